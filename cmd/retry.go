package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/store"
	"github.com/getpulpo/fleet-importer/internal/submit"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

var retryType string

var retryCmd = &cobra.Command{
	Use:   "retry <artifact>",
	Short: "Re-submit a previously saved error artifact",
	Long:  "Re-runs the import pipeline over an error artifact written by an earlier run. The journal is consulted first and a warning is logged when the same artifact was already retried, since the pipeline has no duplicate detection of its own.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		artifact := args[0]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		previous, err := st.ListRuns(ctx, store.RunFilter{Command: "retry", Source: artifact})
		st.Close()
		if err != nil {
			return err
		}
		if len(previous) > 0 {
			zap.L().Warn("artifact was already retried, rows may be submitted twice",
				zap.String("artifact", artifact),
				zap.Int("previous_retries", len(previous)),
				zap.Time("last_retry", previous[0].StartedAt),
			)
		}

		switch retryType {
		case "expenses":
			return runImport(ctx, "retry", artifact, "",
				[]catalog.Kind{catalog.KindVehicles, catalog.KindDrivers, catalog.KindSuppliers, catalog.KindPaymentMethods},
				mapper.ExpenseColumns,
				func(m *mapper.Mapper, row model.RawRow) (any, error) {
					e, err := m.Expense(row)
					if err != nil {
						return nil, err
					}
					return &e, nil
				},
				func(client pulpo.Client) submit.Submitter { return submit.Expenses(client) },
			)
		case "scheduled":
			return runImport(ctx, "retry", artifact, "",
				[]catalog.Kind{catalog.KindVehicles, catalog.KindDrivers, catalog.KindSuppliers, catalog.KindPaymentMethods},
				mapper.ScheduledColumns,
				func(m *mapper.Mapper, row model.RawRow) (any, error) {
					s, err := m.Scheduled(row)
					if err != nil {
						return nil, err
					}
					return &s, nil
				},
				func(client pulpo.Client) submit.Submitter { return submit.ScheduledExpenses(client) },
			)
		case "insurances":
			return runImport(ctx, "retry", artifact, "",
				[]catalog.Kind{catalog.KindVehicles, catalog.KindSuppliers, catalog.KindInsuranceTypes},
				mapper.InsuranceColumns,
				func(m *mapper.Mapper, row model.RawRow) (any, error) {
					ins, err := m.Insurance(row)
					if err != nil {
						return nil, err
					}
					return &ins, nil
				},
				func(client pulpo.Client) submit.Submitter { return submit.Insurances(client) },
			)
		case "reminders":
			return runImport(ctx, "retry", artifact, "",
				[]catalog.Kind{catalog.KindVehicles, catalog.KindDrivers},
				mapper.ReminderColumns,
				func(m *mapper.Mapper, row model.RawRow) (any, error) {
					r, err := m.Reminder(row)
					if err != nil {
						return nil, err
					}
					return &r, nil
				},
				func(client pulpo.Client) submit.Submitter { return submit.Reminders(client) },
			)
		case "fuels":
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
			return processFeedFile(cmd, env, artifact)
		default:
			return eris.Errorf("unknown --type %q (expected expenses, scheduled, fuels, reminders, or insurances)", retryType)
		}
	},
}

func init() {
	retryCmd.Flags().StringVar(&retryType, "type", "", "destination pipeline the artifact belongs to (required)")
	_ = retryCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(retryCmd)
}
