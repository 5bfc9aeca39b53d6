package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

func TestPaymentMatchAnnotation(t *testing.T) {
	p, err := NewPayment("txn_001", d("3243"), valueobject.CurrencyCHF,
		PaymentDirectionCredit, "INV-202501-001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusUnmatched, p.Status)
	assert.True(t, p.IsIncoming())

	invoiceID := uuid.New()
	require.NoError(t, p.MarkMatched(invoiceID))
	assert.Equal(t, PaymentStatusConfirmed, p.Status)
	require.NotNil(t, p.MatchedInvoiceID)
	assert.Error(t, p.MarkMatched(uuid.New()))

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypePaymentMatched, events[0].EventType())
}

func TestPaymentUnmatchedAlert(t *testing.T) {
	p, err := NewPayment("txn_002", d("100"), valueobject.CurrencyCHF,
		PaymentDirectionCredit, "no reference", time.Now())
	require.NoError(t, err)

	p.MarkUnmatched()
	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypePaymentUnmatched, events[0].EventType())
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment("", d("100"), valueobject.CurrencyCHF,
		PaymentDirectionCredit, "", time.Now())
	assert.Error(t, err)

	_, err = NewPayment("txn_003", d("0"), valueobject.CurrencyCHF,
		PaymentDirectionCredit, "", time.Now())
	assert.Error(t, err)

	_, err = NewPayment("txn_004", d("100"), valueobject.CurrencyCHF,
		PaymentDirection("sideways"), "", time.Now())
	assert.Error(t, err)
}
