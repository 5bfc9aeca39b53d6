package billing

import (
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultVATRate is the Swiss standard VAT rate in percent
var DefaultVATRate = decimal.NewFromFloat(8.1)

// TaxBreakdown is the result of a VAT computation. Each stage is rounded
// to cents independently: the tax amount is rounded first, then the total
// is rounded on top of the already-rounded tax. Compounding the raw values
// and rounding once would drift by a cent on certain amounts.
type TaxBreakdown struct {
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTax calculates VAT for a pre-tax amount at the given percentage rate
func ComputeTax(amount, ratePct decimal.Decimal) (TaxBreakdown, error) {
	if amount.IsNegative() {
		return TaxBreakdown{}, shared.NewDomainError("INVALID_AMOUNT", "Taxable amount cannot be negative")
	}
	if ratePct.IsNegative() {
		return TaxBreakdown{}, shared.NewDomainError("INVALID_RATE", "Tax rate cannot be negative")
	}

	rounded := amount.Round(2)
	tax := rounded.Mul(ratePct).Div(decimal.NewFromInt(100)).Round(2)
	total := rounded.Add(tax).Round(2)

	return TaxBreakdown{
		Amount:    rounded,
		Rate:      ratePct,
		TaxAmount: tax,
		Total:     total,
	}, nil
}
