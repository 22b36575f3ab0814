package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/fetcher"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/submit"
)

var fuelsCmd = &cobra.Command{
	Use:   "fuels",
	Short: "Import the fuel feed from the pending directory",
	Long:  "Processes every workbook in the pending directory. Rows are split into refuelings and plain expenses by product code; amounts are tax-inclusive and reconciled against the declared gross total.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entries, err := os.ReadDir(cfg.Dirs.Pending)
		if err != nil {
			return err
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".xls", ".xlsx":
				files = append(files, filepath.Join(cfg.Dirs.Pending, e.Name()))
			}
		}
		if len(files) == 0 {
			zap.L().Info("nothing to process", zap.String("dir", cfg.Dirs.Pending))
			return nil
		}

		env, err := initPipeline(ctx,
			catalog.KindVehicles,
			catalog.KindSuppliers,
			catalog.KindPaymentMethods,
			catalog.KindFuelTypes,
			catalog.KindExpenseTypes,
		)
		if err != nil {
			return err
		}
		defer env.Close()

		for i, path := range files {
			zap.L().Info("processing feed file",
				zap.String("file", path),
				zap.Int("index", i+1),
				zap.Int("total", len(files)),
			)
			if err := processFeedFile(cmd, env, path); err != nil {
				return err
			}
		}
		return nil
	},
}

func processFeedFile(cmd *cobra.Command, env *pipelineEnv, path string) error {
	ctx := cmd.Context()

	table, err := fetcher.ReadTable(path, fetcher.TableOptions{Required: mapper.FuelFeedColumns})
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		zap.L().Info("feed file is empty, skipping", zap.String("file", path))
		return nil
	}

	var fuelItems, expenseItems []submit.Item
	var failures []model.RowOutcome
	for _, row := range table.Rows {
		record, err := env.mapper.FuelFeed(row)
		if err != nil {
			zap.L().Warn("row mapping failed",
				zap.Int("row", row.Index),
				zap.String("source", row.Source),
				zap.Error(err),
			)
			failures = append(failures, model.MappingFailed(row, err))
			continue
		}
		if record.Fuel != nil {
			fuelItems = append(fuelItems, submit.Item{Raw: row, Payload: record.Fuel})
		} else {
			expenseItems = append(expenseItems, submit.Item{Raw: row, Payload: record.Expense})
		}
	}
	zap.L().Info("feed mapped",
		zap.String("file", path),
		zap.Int("fuels", len(fuelItems)),
		zap.Int("expenses", len(expenseItems)),
		zap.Int("mapping_errors", len(failures)),
	)

	outcomes := env.batcher.Submit(ctx, fuelItems, submit.Fuels(env.client))
	outcomes = append(outcomes, env.batcher.Submit(ctx, expenseItems, submit.Expenses(env.client))...)
	outcomes = append(outcomes, failures...)

	return env.finishRun(ctx, "fuels", path, table.Header, outcomes)
}

func init() {
	rootCmd.AddCommand(fuelsCmd)
}
