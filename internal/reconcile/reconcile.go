// Package reconcile recomputes financial totals from their components and
// validates them against declared values within a fixed tolerance.
//
// Two variants exist and are kept as separately named operations because
// they disagree on which quantity is ground truth: Net trusts the subtotal
// and checks the declared total; Gross trusts the tax-inclusive amounts and
// derives the subtotal.
package reconcile

import (
	"math"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// Epsilon is the absolute tolerance for total comparison.
const Epsilon = 1e-4

// Amounts is the reconciled financial breakdown of one row.
type Amounts struct {
	Subtotal     float64
	TaxType      model.AmountType
	Tax          float64
	DiscountType model.AmountType
	Discount     float64
	Total        float64
}

// Net recomputes the total from subtotal, tax, and discount and validates
// it against declaredTotal. The discount applies to the subtotal; the tax
// applies to the discounted subtotal.
func Net(subtotal float64, taxType model.AmountType, tax float64, discountType model.AmountType, discount float64, declaredTotal float64) (Amounts, error) {
	discountAmount := discount
	if discountType == model.AmountPercentage {
		discountAmount = discount / 100 * subtotal
	}

	afterDiscount := subtotal - discountAmount

	taxAmount := tax
	if taxType == model.AmountPercentage {
		taxAmount = tax / 100 * afterDiscount
	}

	computed := afterDiscount + taxAmount
	if math.Abs(computed-declaredTotal) > Epsilon {
		return Amounts{}, &model.ReconciliationError{
			Computed: computed,
			Declared: declaredTotal,
			Inputs: map[string]float64{
				"subtotal": subtotal,
				"tax":      tax,
				"discount": discount,
			},
		}
	}

	return Amounts{
		Subtotal:     subtotal,
		TaxType:      taxType,
		Tax:          tax,
		DiscountType: discountType,
		Discount:     discount,
		Total:        computed,
	}, nil
}

// GrossAmounts extends Amounts with the percentage view of the discount,
// which the fuel endpoint expects.
type GrossAmounts struct {
	Amounts
	DiscountPercentage float64
}

// Gross reconciles a tax-inclusive operation. grossAmount is the charged
// amount before any discount, grossTotal the amount actually billed; both
// include tax at taxPct. The subtotal is derived by removing the tax, the
// discount is the residual between the two gross amounts, and the
// recomputed total must match grossTotal within Epsilon.
func Gross(taxPct, grossAmount, grossTotal float64) (GrossAmounts, error) {
	taxDivisor := 1 + taxPct/100
	subtotal := grossAmount / taxDivisor

	var discountAmount, discountPct float64
	if math.Abs(grossAmount) > math.Abs(grossTotal) {
		discountAmount = (grossTotal - grossAmount) / taxDivisor
		discountPct = (grossAmount - grossTotal) / math.Abs(grossAmount) * 100
	}

	taxAmount := (subtotal + discountAmount) * (taxPct / 100)
	computed := subtotal + discountAmount + taxAmount

	if math.Abs(computed-grossTotal) > Epsilon {
		return GrossAmounts{}, &model.ReconciliationError{
			Computed: computed,
			Declared: grossTotal,
			Inputs: map[string]float64{
				"tax_pct":      taxPct,
				"gross_amount": grossAmount,
				"gross_total":  grossTotal,
			},
		}
	}

	return GrossAmounts{
		Amounts: Amounts{
			Subtotal:     subtotal,
			TaxType:      model.AmountPercentage,
			Tax:          taxPct,
			DiscountType: model.AmountPercentage,
			Discount:     discountPct,
			Total:        computed,
		},
		DiscountPercentage: discountPct,
	}, nil
}
