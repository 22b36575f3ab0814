package mapper

import (
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/reconcile"
)

// ScheduledColumns is the required header set of the scheduled-expense
// (renting/leasing) sheet.
var ScheduledColumns = []string{
	"Nombre del gasto",
	"Tipo de gasto",
	"Subtotal",
	"Total",
	"Frecuencia del gasto",
	"Fecha inicio",
	"Fecha fin",
	"Proveedor",
	"Medio de pago",
}

// Scheduled maps a recurring expense row. The expense is bound to a driver
// (via "Email"), a vehicle (via "Matricula"), or neither; both columns are
// optional.
func (m *Mapper) Scheduled(row model.RawRow) (model.ScheduledExpense, error) {
	name, err := normalize.RequiredString(row, "Nombre del gasto")
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	typeLabel, err := normalize.RequiredString(row, "Tipo de gasto")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	expenseTypeID, ok := m.tables.ExpenseTypeID(typeLabel)
	if !ok {
		return model.ScheduledExpense{}, &model.NormalizationError{Field: "Tipo de gasto", Reason: "unknown expense type " + typeLabel}
	}

	freqLabel, err := normalize.RequiredString(row, "Frecuencia del gasto")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	frequency, ok := m.tables.Frequency(freqLabel)
	if !ok {
		return model.ScheduledExpense{}, &model.NormalizationError{Field: "Frecuencia del gasto", Reason: "unknown frequency " + freqLabel}
	}

	startDate, err := m.dates.RequiredDate(row, "Fecha inicio", "")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	endDate, err := m.dates.RequiredDate(row, "Fecha fin", "")
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	supplierName, err := normalize.RequiredString(row, "Proveedor")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	supplier, err := m.res.Supplier("Proveedor", supplierName)
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	paymentSlug, err := normalize.RequiredString(row, "Medio de pago")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	paymentMethod, err := m.res.PaymentMethod("Medio de pago", paymentSlug)
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	subtotal, err := normalize.RequiredNumber(row, "Subtotal")
	if err != nil {
		return model.ScheduledExpense{}, err
	}
	declaredTotal, err := normalize.RequiredNumber(row, "Total")
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	taxType, tax, discountType, discount := taxAndDiscount(row)
	amounts, err := reconcile.Net(subtotal, taxType, tax, discountType, discount, declaredTotal)
	if err != nil {
		return model.ScheduledExpense{}, err
	}

	var userID *int64
	if email, ok := normalize.String(row.Cells["Email"]); ok {
		driver, err := m.res.Driver("Email", email)
		if err != nil {
			return model.ScheduledExpense{}, err
		}
		userID = &driver.ID
	}

	var vehicleID *int64
	if plate, ok := normalize.String(row.Cells["Matricula"]); ok {
		vehicle, err := m.res.Vehicle("Matricula", plate)
		if err != nil {
			return model.ScheduledExpense{}, err
		}
		vehicleID = &vehicle.ID
	}

	return model.ScheduledExpense{
		Name:            name,
		ExpenseTypeID:   expenseTypeID,
		Subtotal:        amounts.Subtotal,
		TaxType:         amounts.TaxType,
		Tax:             amounts.Tax,
		DiscountType:    amounts.DiscountType,
		Discount:        amounts.Discount,
		Total:           amounts.Total,
		UserID:          userID,
		VehicleID:       vehicleID,
		PaymentMethodID: paymentMethod.ID,
		SupplierID:      supplier.ID,
		StartDate:       startDate,
		EndDate:         endDate,
		Frequency:       frequency,
	}, nil
}
