package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fleet-importer",
	Short: "Spreadsheet importer for the fleet management API",
	Long:  "Loads expense, fuel, reminder, and insurance spreadsheets, validates rows against API catalogs, and submits them in paced batches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
