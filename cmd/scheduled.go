package main

import (
	"github.com/spf13/cobra"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/submit"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

var scheduledCmd = &cobra.Command{
	Use:   "scheduled <file>",
	Short: "Import recurring expenses (renting, leasing) from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), "scheduled", args[0], "",
			[]catalog.Kind{
				catalog.KindVehicles,
				catalog.KindDrivers,
				catalog.KindSuppliers,
				catalog.KindPaymentMethods,
			},
			mapper.ScheduledColumns,
			func(m *mapper.Mapper, row model.RawRow) (any, error) {
				s, err := m.Scheduled(row)
				if err != nil {
					return nil, err
				}
				return &s, nil
			},
			func(client pulpo.Client) submit.Submitter {
				return submit.ScheduledExpenses(client)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(scheduledCmd)
}
