package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestClassifyDeviation(t *testing.T) {
	tol := DefaultDeviationTolerance

	tests := []struct {
		name       string
		invoice    string
		quote      *decimal.Decimal
		wantStatus DeviationStatus
		wantPct    string
	}{
		{"no quote reference", "1000", nil, DeviationStatusNoQuote, "0"},
		{"zero quote amount", "1000", dp("0"), DeviationStatusNoQuote, "0"},
		{"exact match", "1000", dp("1000"), DeviationStatusOK, "0"},
		{"small overrun", "1020", dp("1000"), DeviationStatusOK, "2"},
		{"warning band", "1040", dp("1000"), DeviationStatusWarning, "4"},
		{"negative warning", "960", dp("1000"), DeviationStatusWarning, "-4"},
		{"blocked overrun", "1060", dp("1000"), DeviationStatusBlocked, "6"},
		{"blocked underrun", "940", dp("1000"), DeviationStatusBlocked, "-6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDeviation(d(tt.invoice), tt.quote, tol)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.True(t, got.Deviation.Equal(d(tt.wantPct)),
				"deviation = %s, want %s", got.Deviation, tt.wantPct)
		})
	}
}

func TestClassifyDeviationBoundariesAreExclusive(t *testing.T) {
	tol := DefaultDeviationTolerance

	// exactly at the tolerance is a warning, not blocked
	got := ClassifyDeviation(d("1050"), dp("1000"), tol)
	assert.Equal(t, DeviationStatusWarning, got.Status)

	// exactly at 0.6 of the tolerance is ok, not a warning
	got = ClassifyDeviation(d("1030"), dp("1000"), tol)
	assert.Equal(t, DeviationStatusOK, got.Status)
}
