package main

import (
	"github.com/spf13/cobra"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/submit"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

var insurancesSheet string

var insurancesCmd = &cobra.Command{
	Use:   "insurances <file>",
	Short: "Import insurance policies onto vehicle properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), "insurances", args[0], insurancesSheet,
			[]catalog.Kind{
				catalog.KindVehicles,
				catalog.KindSuppliers,
				catalog.KindInsuranceTypes,
			},
			mapper.InsuranceColumns,
			func(m *mapper.Mapper, row model.RawRow) (any, error) {
				ins, err := m.Insurance(row)
				if err != nil {
					return nil, err
				}
				return &ins, nil
			},
			func(client pulpo.Client) submit.Submitter {
				return submit.Insurances(client)
			},
		)
	},
}

func init() {
	insurancesCmd.Flags().StringVar(&insurancesSheet, "sheet", "INSURANCES", "workbook sheet holding the policies")
	rootCmd.AddCommand(insurancesCmd)
}
