package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medisetu/dispatch/app"
	"github.com/medisetu/dispatch/config"
	"github.com/medisetu/dispatch/infra/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drain the offline queue once and exit",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("sync-command").Errorf("service close: %v", err)
		}
	}()

	n, err := svc.Engine.SyncOfflineRequests(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("replayed %d queued request(s)\n", n)
	return nil
}
