package main

import (
	"github.com/spf13/cobra"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/submit"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

var expensesCmd = &cobra.Command{
	Use:   "expenses <file>",
	Short: "Import one-off vehicle expenses from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), "expenses", args[0], "",
			[]catalog.Kind{
				catalog.KindVehicles,
				catalog.KindDrivers,
				catalog.KindSuppliers,
				catalog.KindPaymentMethods,
			},
			mapper.ExpenseColumns,
			func(m *mapper.Mapper, row model.RawRow) (any, error) {
				e, err := m.Expense(row)
				if err != nil {
					return nil, err
				}
				return &e, nil
			},
			func(client pulpo.Client) submit.Submitter {
				return submit.Expenses(client)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(expensesCmd)
}
