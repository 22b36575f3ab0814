package mapper

import (
	"encoding/json"
	"strconv"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/reconcile"
)

// FuelFeedColumns is the required header set of the tax-inclusive fuel feed.
var FuelFeedColumns = []string{
	"MATRICULA",
	"NUM_TARJET",
	"COD_ESTABL",
	"COD_CLI",
	"FEC_OPERAC",
	"HOR_OPERAC",
	"COD_PRODU",
	"NUM_LITROS",
	"KILOMETROS",
	"IVA",
	"IMPORTE",
	"IMP_TOTAL",
}

// FeedRecord is the tagged result of mapping one fuel-feed row: the product
// code decides whether the row is a refueling or a plain expense. Exactly
// one of the two fields is set.
type FeedRecord struct {
	Fuel    *model.Fuel
	Expense *model.Expense
}

// FeedSupplier names the supplier the whole fuel feed is billed by.
const FeedSupplier = "Repsol"

// FuelFeed maps one row of the fuel feed. Amounts are gross (tax included);
// reconciliation derives the subtotal and treats the difference between the
// two declared gross amounts as discount.
func (m *Mapper) FuelFeed(row model.RawRow) (FeedRecord, error) {
	plate, err := normalize.RequiredString(row, "MATRICULA")
	if err != nil {
		return FeedRecord{}, err
	}
	vehicle, err := m.res.Vehicle("MATRICULA", plate)
	if err != nil {
		return FeedRecord{}, err
	}

	card, err := normalize.RequiredNumber(row, "NUM_TARJET")
	if err != nil {
		return FeedRecord{}, err
	}
	cardSlug := strconv.FormatInt(int64(card), 10)
	paymentMethod, err := m.res.PaymentMethod("NUM_TARJET", cardSlug)
	if err != nil {
		return FeedRecord{}, err
	}

	supplier, err := m.res.Supplier("Proveedor", FeedSupplier)
	if err != nil {
		return FeedRecord{}, err
	}

	var locationID *int64
	if fiscalCode, ok := normalize.String(row.Cells["COD_ESTABL"]); ok {
		if id, found := m.tables.Location(fiscalCode); found {
			locationID = &id
		}
	}

	date, err := m.dates.RequiredDate(row, "FEC_OPERAC", "HOR_OPERAC")
	if err != nil {
		return FeedRecord{}, err
	}

	var odometer *int64
	if km, ok := normalize.Number(row.Cells["KILOMETROS"]); ok && km > 0 {
		v := int64(km)
		odometer = &v
	}

	taxPct, err := normalize.RequiredNumber(row, "IVA")
	if err != nil {
		return FeedRecord{}, err
	}
	grossAmount, err := normalize.RequiredNumber(row, "IMPORTE")
	if err != nil {
		return FeedRecord{}, err
	}
	grossTotal, err := normalize.RequiredNumber(row, "IMP_TOTAL")
	if err != nil {
		return FeedRecord{}, err
	}

	amounts, err := reconcile.Gross(taxPct, grossAmount, grossTotal)
	if err != nil {
		return FeedRecord{}, err
	}

	productCode, err := normalize.RequiredNumber(row, "COD_PRODU")
	if err != nil {
		return FeedRecord{}, err
	}
	code := int64(productCode)

	if product, ok := m.tables.FuelProduct(code); ok {
		return m.mapFuel(row, product, vehicle.ID, supplier.ID, paymentMethod.ID, locationID, odometer, date, amounts)
	}
	if product, ok := m.tables.ExpenseProduct(code); ok {
		return m.mapFeedExpense(row, product, vehicle.ID, supplier.ID, paymentMethod.ID, locationID, odometer, date, amounts)
	}
	return FeedRecord{}, &model.NormalizationError{Field: "COD_PRODU", Reason: "unrecognized product code " + strconv.FormatInt(code, 10)}
}

func (m *Mapper) mapFuel(row model.RawRow, product Product, vehicleID, supplierID, paymentMethodID int64, locationID, odometer *int64, date string, amounts reconcile.GrossAmounts) (FeedRecord, error) {
	fuelType, err := m.res.CatalogItem(catalog.KindFuelTypes, "COD_PRODU", strconv.FormatInt(product.ReferenceCode, 10))
	if err != nil {
		return FeedRecord{}, err
	}

	volume, err := normalize.RequiredNumber(row, "NUM_LITROS")
	if err != nil {
		return FeedRecord{}, err
	}
	if volume == 0 {
		return FeedRecord{}, &model.NormalizationError{Field: "NUM_LITROS", Reason: "volume must be non-zero"}
	}

	grossAmount := normalize.NumberOr(row.Cells["IMPORTE"], 0)
	grossTotal := normalize.NumberOr(row.Cells["IMP_TOTAL"], 0)

	metadata, err := json.Marshal(map[string]any{
		"cf_feed_raw_filename":         row.Source,
		"cf_feed_product_description":  product.Description,
		"cf_feed_id_cuenta":            row.Cells["COD_CLI"],
		"cf_feed_original_odometer":    row.Cells["KILOMETROS"],
		"cf_feed_fiscal_code":          row.Cells["COD_ESTABL"],
		"cf_feed_discount_per_unit":    (grossAmount - grossTotal) / volume,
		"cf_feed_price_per_unit_final": amounts.Total / volume,
	})
	if err != nil {
		return FeedRecord{}, &model.NormalizationError{Field: "customFieldsMetadata", Reason: err.Error()}
	}

	return FeedRecord{Fuel: &model.Fuel{
		Volume:               volume,
		PricePerUnit:         amounts.Subtotal / volume,
		TaxType:              amounts.TaxType,
		Tax:                  amounts.Tax,
		DiscountType:         amounts.DiscountType,
		Discount:             amounts.DiscountPercentage,
		Total:                amounts.Total,
		Date:                 date,
		FuelTypeID:           fuelType.ID,
		VehicleID:            vehicleID,
		SupplierID:           supplierID,
		LocationID:           locationID,
		PaymentMethodID:      paymentMethodID,
		Odometer:             odometer,
		CustomFieldsMetadata: string(metadata),
	}}, nil
}

func (m *Mapper) mapFeedExpense(row model.RawRow, product Product, vehicleID, supplierID, paymentMethodID int64, locationID, odometer *int64, date string, amounts reconcile.GrossAmounts) (FeedRecord, error) {
	expenseType, err := m.res.CatalogItem(catalog.KindExpenseTypes, "COD_PRODU", strconv.FormatInt(product.ReferenceCode, 10))
	if err != nil {
		return FeedRecord{}, err
	}

	metadata, err := json.Marshal(map[string]any{
		"cf_feed_raw_filename":        row.Source,
		"cf_feed_product_description": product.Description,
		"cf_feed_id_cuenta":           row.Cells["COD_CLI"],
		"cf_feed_original_odometer":   row.Cells["KILOMETROS"],
		"cf_feed_fiscal_code":         row.Cells["COD_ESTABL"],
	})
	if err != nil {
		return FeedRecord{}, &model.NormalizationError{Field: "customFieldsMetadata", Reason: err.Error()}
	}

	return FeedRecord{Expense: &model.Expense{
		Name:                 product.Description,
		ExpenseTypeID:        expenseType.ID,
		Subtotal:             amounts.Subtotal,
		TaxType:              amounts.TaxType,
		Tax:                  amounts.Tax,
		DiscountType:         amounts.DiscountType,
		Discount:             amounts.DiscountPercentage,
		Total:                amounts.Total,
		Date:                 date,
		VehicleID:            vehicleID,
		SupplierID:           supplierID,
		LocationID:           locationID,
		PaymentMethodID:      paymentMethodID,
		Odometer:             odometer,
		CustomFieldsMetadata: string(metadata),
	}}, nil
}
