package finance

import (
	"github.com/shopspring/decimal"
)

// DeviationStatus classifies how far a supplier invoice strays from its
// originating quote.
type DeviationStatus string

const (
	DeviationStatusNoQuote DeviationStatus = "no_quote"
	DeviationStatusOK      DeviationStatus = "ok"
	DeviationStatusWarning DeviationStatus = "warning"
	DeviationStatusBlocked DeviationStatus = "blocked"
)

// DefaultDeviationTolerance is the tolerance in percent above which a
// supplier invoice is blocked from approval.
var DefaultDeviationTolerance = decimal.NewFromInt(5)

// warningFraction of the tolerance marks the warning band
var warningFraction = decimal.NewFromFloat(0.6)

// DeviationResult is the outcome of comparing an invoice to its quote
type DeviationResult struct {
	Status    DeviationStatus `json:"status"`
	Deviation decimal.Decimal `json:"deviation_percentage"`
}

// ClassifyDeviation compares a supplier invoice amount against its quote.
// A missing or zero quote amount is not gated. Both thresholds are
// exclusive: a deviation exactly at the tolerance is a warning, one
// exactly at 0.6 of the tolerance is ok.
func ClassifyDeviation(invoiceAmount decimal.Decimal, quoteAmount *decimal.Decimal, tolerancePct decimal.Decimal) DeviationResult {
	if quoteAmount == nil || quoteAmount.IsZero() {
		return DeviationResult{Status: DeviationStatusNoQuote, Deviation: decimal.Zero}
	}

	deviation := invoiceAmount.Sub(*quoteAmount).
		Div(*quoteAmount).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	abs := deviation.Abs()

	switch {
	case abs.GreaterThan(tolerancePct):
		return DeviationResult{Status: DeviationStatusBlocked, Deviation: deviation}
	case abs.GreaterThan(tolerancePct.Mul(warningFraction)):
		return DeviationResult{Status: DeviationStatusWarning, Deviation: deviation}
	default:
		return DeviationResult{Status: DeviationStatusOK, Deviation: deviation}
	}
}
