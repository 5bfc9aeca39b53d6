package finance

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RunwaySentinel is returned as the runway when the burn rate is zero.
// Division by zero must never reach a caller as an error or infinity.
var RunwaySentinel = decimal.NewFromInt(99)

// trailingBurnMonths is the window the burn rate averages over
const trailingBurnMonths = 3

// BalanceSnapshot is a point-in-time cash balance taken from the bank feed
type BalanceSnapshot struct {
	shared.BaseEntity
	Balance    decimal.Decimal      `json:"balance"`
	Currency   valueobject.Currency `json:"currency"`
	SnapshotAt time.Time            `json:"snapshot_at"`
}

// NewBalanceSnapshot records a balance observation
func NewBalanceSnapshot(balance decimal.Decimal, currency valueobject.Currency, at time.Time) *BalanceSnapshot {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &BalanceSnapshot{
		BaseEntity: shared.NewBaseEntity(),
		Balance:    balance,
		Currency:   currency,
		SnapshotAt: at,
	}
}

// HorizonProjection is the cash projection for one forecast horizon
type HorizonProjection struct {
	Days             int             `json:"days"`
	ExpectedInflow   decimal.Decimal `json:"expected_inflow"`
	ExpectedOutflow  decimal.Decimal `json:"expected_outflow"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
}

// Forecast is the treasury position over the standard 30/60/90 horizons
type Forecast struct {
	CurrentBalance  decimal.Decimal   `json:"current_balance"`
	BurnRateMonthly decimal.Decimal   `json:"burn_rate_monthly"`
	RunwayMonths    decimal.Decimal   `json:"runway_months"`
	Horizon30       HorizonProjection `json:"horizon_30"`
	Horizon60       HorizonProjection `json:"horizon_60"`
	Horizon90       HorizonProjection `json:"horizon_90"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// MonthlyBurnRate averages the trailing debit total over three months
func MonthlyBurnRate(trailingDebits decimal.Decimal) decimal.Decimal {
	if trailingDebits.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return trailingDebits.Div(decimal.NewFromInt(trailingBurnMonths)).Round(2)
}

// Runway converts a balance and monthly burn into months of cash. A zero
// or negative burn yields the sentinel value.
func Runway(balance, burnMonthly decimal.Decimal) decimal.Decimal {
	if burnMonthly.LessThanOrEqual(decimal.Zero) {
		return RunwaySentinel
	}
	runway := balance.Div(burnMonthly).Round(1)
	if runway.GreaterThan(RunwaySentinel) {
		return RunwaySentinel
	}
	return runway
}

// ProratedBurn scales the monthly burn to an arbitrary horizon length
func ProratedBurn(burnMonthly decimal.Decimal, horizonDays int) decimal.Decimal {
	return burnMonthly.
		Mul(decimal.NewFromInt(int64(horizonDays))).
		Div(decimal.NewFromInt(30)).
		Round(2)
}
