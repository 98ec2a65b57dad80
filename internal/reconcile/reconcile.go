// Package reconcile repairs line totals the vision model misread.
package reconcile

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// DefaultTolerance is the relative difference (of the extracted total) that is accepted as is.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Truncate2 cuts v to 2 decimal places toward zero: 2.005 -> 2.00, -2.005 -> -2.00.
func Truncate2(v decimal.Decimal) decimal.Decimal {
	return v.Truncate(2)
}

// ExpectedTotal is the line total implied by the other fields of the item.
func ExpectedTotal(item *entity.ExtractedItem) decimal.Decimal {
	return Truncate2(item.UnitPrice.Mul(item.Quantity).Sub(item.Discount))
}

type Reconciler struct {
	logger    *slog.Logger
	tolerance decimal.Decimal
}

// NewReconciler builds a Reconciler. A negative tolerance falls back to DefaultTolerance.
func NewReconciler(tolerance decimal.Decimal, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	return &Reconciler{logger: logger, tolerance: tolerance}
}

// Reconcile overwrites, in place, every total that is off from the expected
// value by more than the tolerance times the extracted total. It never fails
// and returns the corrections it made, indexed by item position.
func (r *Reconciler) Reconcile(items []*entity.ExtractedItem) []entity.TotalCorrection {
	var out []entity.TotalCorrection
	for i, item := range items {
		if item == nil {
			continue
		}
		expected := ExpectedTotal(item)
		if expected.Equal(item.TotalPrice) {
			continue
		}
		diff := expected.Sub(item.TotalPrice).Abs()
		if diff.LessThanOrEqual(r.tolerance.Mul(item.TotalPrice)) {
			continue
		}

		r.logger.Warn("reconcile.total_corrected",
			"index", i,
			"item_code", item.ItemCode,
			"barcode", item.Barcode,
			"extracted_total", item.TotalPrice.StringFixed(2),
			"computed_total", expected.StringFixed(2),
		)
		out = append(out, entity.TotalCorrection{
			Index:     i,
			ItemCode:  item.ItemCode,
			Barcode:   item.Barcode,
			Extracted: item.TotalPrice,
			Corrected: expected,
		})
		item.TotalPrice = expected
	}
	return out
}
