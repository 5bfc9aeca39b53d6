package finance

import (
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the finance context
const (
	EventTypePaymentMatched   = "finance.payment.matched"
	EventTypePaymentUnmatched = "finance.payment.unmatched"
)

// PaymentMatchedEvent is raised when a payment is resolved to an invoice
type PaymentMatchedEvent struct {
	shared.BaseDomainEvent
	TransactionID string          `json:"transaction_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentMatchedEvent creates a new PaymentMatchedEvent
func NewPaymentMatchedEvent(p *Payment, invoiceID uuid.UUID) *PaymentMatchedEvent {
	return &PaymentMatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentMatched, p.ID),
		TransactionID:   p.TransactionID,
		InvoiceID:       invoiceID,
		Amount:          p.Amount,
	}
}

// PaymentUnmatchedEvent is raised when no invoice could be resolved for a
// payment. Consumers treat it as a low-priority alert for manual
// reconciliation.
type PaymentUnmatchedEvent struct {
	shared.BaseDomainEvent
	TransactionID string               `json:"transaction_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      valueobject.Currency `json:"currency"`
	Reference     string               `json:"reference"`
}

// NewPaymentUnmatchedEvent creates a new PaymentUnmatchedEvent
func NewPaymentUnmatchedEvent(p *Payment) *PaymentUnmatchedEvent {
	return &PaymentUnmatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentUnmatched, p.ID),
		TransactionID:   p.TransactionID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Reference:       p.Reference,
	}
}
