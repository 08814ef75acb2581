package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medisetu/dispatch/config"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured vehicles",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, f := range cfg.Fleet {
		v, err := f.ToVehicle()
		if err != nil {
			return err
		}
		fmt.Println(v.Describe())
	}
	return nil
}
