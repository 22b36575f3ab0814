package mapper

import (
	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/reconcile"
)

// InsuranceColumns is the required header set of the INSURANCES sheet.
var InsuranceColumns = []string{
	"Matricula",
	"Número de Poliza",
	"Proveedor",
	"Fecha inicio",
	"Fecha fin",
	"Prima Subtotal",
	"Tipo de Impuesto",
	"Valor de Impuesto",
	"Prima Total",
	"Tipo de Seguro",
	"Frecuencia de Pago",
}

// Insurance maps an insurance policy row onto a vehicle property update.
// The declared premium total is validated against subtotal plus tax; the
// policy has no discount component.
func (m *Mapper) Insurance(row model.RawRow) (model.Insurance, error) {
	plate, err := normalize.RequiredString(row, "Matricula")
	if err != nil {
		return model.Insurance{}, err
	}
	vehicle, err := m.res.Vehicle("Matricula", plate)
	if err != nil {
		return model.Insurance{}, err
	}

	policyNumber, err := normalize.RequiredString(row, "Número de Poliza")
	if err != nil {
		return model.Insurance{}, err
	}

	supplierName, err := normalize.RequiredString(row, "Proveedor")
	if err != nil {
		return model.Insurance{}, err
	}
	supplier, err := m.res.Supplier("Proveedor", supplierName)
	if err != nil {
		return model.Insurance{}, err
	}

	startDate, err := m.dates.RequiredDate(row, "Fecha inicio", "")
	if err != nil {
		return model.Insurance{}, err
	}
	endDate, err := m.dates.RequiredDate(row, "Fecha fin", "")
	if err != nil {
		return model.Insurance{}, err
	}

	taxLabel, err := normalize.RequiredString(row, "Tipo de Impuesto")
	if err != nil {
		return model.Insurance{}, err
	}
	taxType, ok := m.tables.TaxType(taxLabel)
	if !ok {
		return model.Insurance{}, &model.NormalizationError{Field: "Tipo de Impuesto", Reason: "unknown tax type " + taxLabel}
	}

	subtotal, err := normalize.RequiredNumber(row, "Prima Subtotal")
	if err != nil {
		return model.Insurance{}, err
	}
	tax, err := normalize.RequiredNumber(row, "Valor de Impuesto")
	if err != nil {
		return model.Insurance{}, err
	}
	declaredTotal, err := normalize.RequiredNumber(row, "Prima Total")
	if err != nil {
		return model.Insurance{}, err
	}

	amounts, err := reconcile.Net(subtotal, taxType, tax, model.AmountCurrency, 0, declaredTotal)
	if err != nil {
		return model.Insurance{}, err
	}

	typeLabel, err := normalize.RequiredString(row, "Tipo de Seguro")
	if err != nil {
		return model.Insurance{}, err
	}
	insuranceType, err := m.res.CatalogItem(catalog.KindInsuranceTypes, "Tipo de Seguro", typeLabel)
	if err != nil {
		return model.Insurance{}, err
	}

	freqLabel, err := normalize.RequiredString(row, "Frecuencia de Pago")
	if err != nil {
		return model.Insurance{}, err
	}
	frequency, ok := m.tables.PaymentFrequency(freqLabel)
	if !ok {
		return model.Insurance{}, &model.NormalizationError{Field: "Frecuencia de Pago", Reason: "unknown payment frequency " + freqLabel}
	}

	return model.Insurance{
		VehicleID:              vehicle.ID,
		PolicyNumber:           policyNumber,
		SupplierID:             supplier.ID,
		StartDate:              startDate,
		EndDate:                endDate,
		Subtotal:               amounts.Subtotal,
		TaxType:                amounts.TaxType,
		Tax:                    amounts.Tax,
		TotalAmount:            amounts.Total,
		TypeID:                 insuranceType.ID,
		PaymentFrequency:       frequency,
		CreateScheduledExpense: normalize.Bool(row.Cells["Crear Gasto Programado"]),
	}, nil
}
