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
	"github.com/medisetu/dispatch/core/engine"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/infra/logger"
)

var (
	testPatientID string
	testLat       float64
	testLon       float64
	testPinCode   string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Inject a test emergency request",
	RunE:  dispatchTest,
}

func init() {
	dispatchCmd.Flags().StringVar(&testPatientID, "patient", "test-patient", "patient identifier")
	dispatchCmd.Flags().Float64Var(&testLat, "lat", 0, "patient latitude")
	dispatchCmd.Flags().Float64Var(&testLon, "lon", 0, "patient longitude")
	dispatchCmd.Flags().StringVar(&testPinCode, "pin", "", "pin code fallback when no coordinates are given")
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchTest(cmd *cobra.Command, args []string) error {
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
	logg := logger.New("dispatch-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	req := engine.Request{PatientID: testPatientID, PinCode: testPinCode}
	if testLat != 0 || testLon != 0 {
		req.Location = &model.Location{Latitude: testLat, Longitude: testLon}
	}
	resp, err := svc.Engine.ProcessEmergencyRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	fmt.Printf("request %s: %s\n", resp.RequestID, resp.Message)
	if resp.AssignedVehicle != nil {
		fmt.Printf("assigned %s, ETA %d min\n", resp.AssignedVehicle.Describe(), resp.ETAMinutes)
	}
	return nil
}
