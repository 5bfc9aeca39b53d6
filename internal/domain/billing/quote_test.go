package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

func newTestQuote(t *testing.T) *Quote {
	t.Helper()
	q, err := NewQuote("QUO-202501-001", uuid.New(), uuid.New(),
		decimal.NewFromInt(10000), valueobject.CurrencyCHF)
	require.NoError(t, err)
	return q
}

func TestQuoteSign(t *testing.T) {
	q := newTestQuote(t)
	invoiceID := uuid.New()
	signedAt := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, q.Sign(invoiceID, signedAt))
	assert.Equal(t, QuoteStatusSigned, q.Status)
	assert.True(t, q.IsSigned())
	require.NotNil(t, q.DepositInvoiceID)
	assert.Equal(t, invoiceID, *q.DepositInvoiceID)

	// replayed signature event
	assert.Error(t, q.Sign(uuid.New(), signedAt))
	assert.Equal(t, invoiceID, *q.DepositInvoiceID, "replay must not overwrite the deposit invoice link")
}

func TestQuoteConvert(t *testing.T) {
	q := newTestQuote(t)
	projectID := uuid.New()

	assert.Error(t, q.Convert(projectID), "unsigned quote cannot convert")

	require.NoError(t, q.Sign(uuid.New(), time.Now()))
	require.NoError(t, q.Convert(projectID))
	assert.Equal(t, QuoteStatusConverted, q.Status)
	require.NotNil(t, q.ProjectID)

	assert.Error(t, q.Convert(uuid.New()), "conversion is forward-only")
}

func TestQuoteMarkSent(t *testing.T) {
	q := newTestQuote(t)
	require.NoError(t, q.MarkSent())
	assert.Equal(t, QuoteStatusSent, q.Status)
	assert.Error(t, q.MarkSent())

	// a sent quote can still be signed
	require.NoError(t, q.Sign(uuid.New(), time.Now()))
}
