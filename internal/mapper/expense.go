package mapper

import (
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/reconcile"
)

// ExpenseColumns is the required header set of the one-off expense sheet.
var ExpenseColumns = []string{
	"Nombre del gasto",
	"Tipo de gasto",
	"Fecha",
	"Matricula",
	"Proveedor",
	"Medio de pago",
	"Subtotal",
	"Total",
}

// Expense maps a one-off expense row. Optional columns: "Hora",
// "Email conductor", "Odometro", and the four tax/discount columns.
func (m *Mapper) Expense(row model.RawRow) (model.Expense, error) {
	name, err := normalize.RequiredString(row, "Nombre del gasto")
	if err != nil {
		return model.Expense{}, err
	}

	typeLabel, err := normalize.RequiredString(row, "Tipo de gasto")
	if err != nil {
		return model.Expense{}, err
	}
	expenseTypeID, ok := m.tables.ExpenseTypeID(typeLabel)
	if !ok {
		return model.Expense{}, &model.NormalizationError{Field: "Tipo de gasto", Reason: "unknown expense type " + typeLabel}
	}

	date, err := m.dates.RequiredDate(row, "Fecha", "Hora")
	if err != nil {
		return model.Expense{}, err
	}

	plate, err := normalize.RequiredString(row, "Matricula")
	if err != nil {
		return model.Expense{}, err
	}
	vehicle, err := m.res.Vehicle("Matricula", plate)
	if err != nil {
		return model.Expense{}, err
	}

	supplierName, err := normalize.RequiredString(row, "Proveedor")
	if err != nil {
		return model.Expense{}, err
	}
	supplier, err := m.res.Supplier("Proveedor", supplierName)
	if err != nil {
		return model.Expense{}, err
	}

	paymentSlug, err := normalize.RequiredString(row, "Medio de pago")
	if err != nil {
		return model.Expense{}, err
	}
	paymentMethod, err := m.res.PaymentMethod("Medio de pago", paymentSlug)
	if err != nil {
		return model.Expense{}, err
	}

	subtotal, err := normalize.RequiredNumber(row, "Subtotal")
	if err != nil {
		return model.Expense{}, err
	}
	declaredTotal, err := normalize.RequiredNumber(row, "Total")
	if err != nil {
		return model.Expense{}, err
	}

	taxType, tax, discountType, discount := taxAndDiscount(row)
	amounts, err := reconcile.Net(subtotal, taxType, tax, discountType, discount, declaredTotal)
	if err != nil {
		return model.Expense{}, err
	}

	var driverID *int64
	if email, ok := normalize.String(row.Cells["Email conductor"]); ok {
		if driver, found := m.res.OptionalDriver("Email conductor", email); found {
			driverID = &driver.ID
		}
	}

	var odometer *int64
	if km, ok := normalize.Number(row.Cells["Odometro"]); ok && km > 0 {
		v := int64(km)
		odometer = &v
	}

	return model.Expense{
		Name:            name,
		ExpenseTypeID:   expenseTypeID,
		Subtotal:        amounts.Subtotal,
		TaxType:         amounts.TaxType,
		Tax:             amounts.Tax,
		DiscountType:    amounts.DiscountType,
		Discount:        amounts.Discount,
		Total:           amounts.Total,
		Date:            date,
		VehicleID:       vehicle.ID,
		DriverID:        driverID,
		SupplierID:      supplier.ID,
		PaymentMethodID: paymentMethod.ID,
		Odometer:        odometer,
	}, nil
}
