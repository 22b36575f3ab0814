package mapper

import (
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/resolve"
)

// Mapper holds what every per-destination mapper needs: the vocabulary
// tables, the date normalizer, and the entity resolver.
type Mapper struct {
	tables *Tables
	dates  *normalize.Dates
	res    *resolve.Resolver
}

// New creates the shared mapper core.
func New(tables *Tables, dates *normalize.Dates, res *resolve.Resolver) *Mapper {
	return &Mapper{tables: tables, dates: dates, res: res}
}

// taxAndDiscount applies the precedence rule used across the expense
// sheets: a positive currency value wins over a positive percentage; when
// neither is present the value is zero CURRENCY.
func taxAndDiscount(row model.RawRow) (taxType model.AmountType, tax float64, discountType model.AmountType, discount float64) {
	taxPct := normalize.NumberOr(row.Cells["Porcentaje impuesto"], 0)
	taxCur := normalize.NumberOr(row.Cells["Impuesto monetario"], 0)
	discountPct := normalize.NumberOr(row.Cells["Porcentaje descuento"], 0)
	discountCur := normalize.NumberOr(row.Cells["Descuento monetario"], 0)

	switch {
	case taxCur > 0:
		taxType, tax = model.AmountCurrency, taxCur
	case taxPct > 0:
		taxType, tax = model.AmountPercentage, taxPct
	default:
		taxType, tax = model.AmountCurrency, 0
	}

	switch {
	case discountCur > 0:
		discountType, discount = model.AmountCurrency, discountCur
	case discountPct > 0:
		discountType, discount = model.AmountPercentage, discountPct
	default:
		discountType, discount = model.AmountCurrency, 0
	}

	return taxType, tax, discountType, discount
}
