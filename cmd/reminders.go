package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/fetcher"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/submit"
)

var remindersDryRun bool

var remindersCmd = &cobra.Command{
	Use:   "reminders <file>",
	Short: "Import task reminders from a multi-sheet workbook",
	Long:  "Maps every sheet of the workbook to reminder tasks bound to drivers or vehicles. With --dry-run rows are mapped and reported without calling the API.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		env, err := initPipeline(ctx, catalog.KindVehicles, catalog.KindDrivers)
		if err != nil {
			return err
		}
		defer env.Close()

		sheets, err := fetcher.SheetNames(path)
		if err != nil {
			return err
		}

		endpoint := submit.Reminders(env.client)
		if remindersDryRun {
			zap.L().Info("dry run: rows will be mapped but not persisted")
			endpoint = submit.DryRun()
		}

		for _, sheet := range sheets {
			table, err := fetcher.ReadTable(path, fetcher.TableOptions{Sheet: sheet, Required: mapper.ReminderColumns})
			if err != nil {
				zap.L().Warn("skipping sheet",
					zap.String("sheet", sheet),
					zap.Error(err),
				)
				continue
			}
			if len(table.Rows) == 0 {
				zap.L().Info("sheet is empty, skipping", zap.String("sheet", sheet))
				continue
			}
			zap.L().Info("processing sheet",
				zap.String("sheet", sheet),
				zap.Int("rows", len(table.Rows)),
			)

			items, failures := mapRows(table.Rows, func(row model.RawRow) (any, error) {
				r, err := env.mapper.Reminder(row)
				if err != nil {
					return nil, err
				}
				return &r, nil
			})

			outcomes := env.batcher.Submit(ctx, items, endpoint)
			outcomes = append(outcomes, failures...)

			if err := env.finishRun(ctx, "reminders", path, table.Header, outcomes); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	remindersCmd.Flags().BoolVar(&remindersDryRun, "dry-run", false, "map rows without persisting to the API")
	rootCmd.AddCommand(remindersCmd)
}
