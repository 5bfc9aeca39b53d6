package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(100.50), CurrencyCHF)
	require.NoError(t, err)
	assert.Equal(t, CurrencyCHF, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))

	_, err = NewMoney(decimal.Zero, "")
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyCHFFromFloat(100.00)
	b := NewMoneyCHFFromFloat(25.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "125.50 CHF", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "74.50 CHF", diff.String())

	_, err = a.Add(Zero(CurrencyEUR))
	assert.Error(t, err)
}

func TestMoneyPercentage(t *testing.T) {
	m := NewMoneyCHF(decimal.NewFromInt(10000))
	deposit := m.Percentage(decimal.NewFromInt(30)).RoundCents()
	assert.Equal(t, "3000.00 CHF", deposit.String())
}

func TestMoneyWithinTolerance(t *testing.T) {
	tol := decimal.NewFromFloat(0.01)

	a := NewMoneyCHFFromFloat(150.00)
	assert.True(t, a.WithinTolerance(NewMoneyCHFFromFloat(150.01), tol))
	assert.True(t, a.WithinTolerance(NewMoneyCHFFromFloat(149.99), tol))
	assert.False(t, a.WithinTolerance(NewMoneyCHFFromFloat(150.02), tol))
	assert.False(t, a.WithinTolerance(Zero(CurrencyEUR), tol))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := NewMoneyCHFFromFloat(42.40)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("99.95"))
	assert.Equal(t, DefaultCurrency, m.Currency())
	assert.Equal(t, "99.95 CHF", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(3.14))
}
