package finance

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDirection distinguishes incoming from outgoing transfers
type PaymentDirection string

const (
	PaymentDirectionCredit PaymentDirection = "credit"
	PaymentDirectionDebit  PaymentDirection = "debit"
)

// IsValid checks if the direction is a valid PaymentDirection
func (d PaymentDirection) IsValid() bool {
	return d == PaymentDirectionCredit || d == PaymentDirectionDebit
}

// PaymentStatus annotates whether the payment was resolved to an invoice
type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusUnmatched PaymentStatus = "unmatched"
)

// Payment is a bank transaction recorded from a provider notification.
// It is immutable once created except for the matching annotation; the
// provider transaction id is the dedup key for replayed webhooks.
type Payment struct {
	shared.BaseAggregateRoot
	TransactionID    string               `json:"transaction_id"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         valueobject.Currency `json:"currency"`
	Direction        PaymentDirection     `json:"direction"`
	Reference        string               `json:"reference"`
	Status           PaymentStatus        `json:"status"`
	MatchedInvoiceID *uuid.UUID           `json:"matched_invoice_id,omitempty"`
	ReceivedAt       time.Time            `json:"received_at"`
}

// NewPayment records a transaction from a verified provider notification
func NewPayment(
	transactionID string,
	amount decimal.Decimal,
	currency valueobject.Currency,
	direction PaymentDirection,
	reference string,
	receivedAt time.Time,
) (*Payment, error) {
	if transactionID == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction id cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Unknown payment direction: "+string(direction))
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransactionID:     transactionID,
		Amount:            amount,
		Currency:          currency,
		Direction:         direction,
		Reference:         reference,
		Status:            PaymentStatusUnmatched,
		ReceivedAt:        receivedAt,
	}, nil
}

// MarkMatched links the payment to the invoice it settled
func (p *Payment) MarkMatched(invoiceID uuid.UUID) error {
	if p.Status == PaymentStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE", "Payment is already matched")
	}
	p.Status = PaymentStatusConfirmed
	p.MatchedInvoiceID = &invoiceID
	p.AddDomainEvent(NewPaymentMatchedEvent(p, invoiceID))
	return nil
}

// MarkUnmatched records that no invoice could be resolved and raises the
// alert that routes the payment to manual reconciliation.
func (p *Payment) MarkUnmatched() {
	p.Status = PaymentStatusUnmatched
	p.AddDomainEvent(NewPaymentUnmatchedEvent(p))
}

// IsIncoming reports whether the payment is an incoming transfer
func (p *Payment) IsIncoming() bool {
	return p.Direction == PaymentDirectionCredit
}
