package billing

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the billing context
const (
	EventTypeInvoiceCreated      = "billing.invoice.created"
	EventTypeInvoicePaid         = "billing.invoice.paid"
	EventTypeCreditNoteIssued    = "billing.credit_note.issued"
	EventTypeCreditNoteApplied   = "billing.credit_note.applied"
	EventTypeSubscriptionBilled  = "billing.subscription.billed"
	EventTypeBillingRunCompleted = "billing.run.completed"
)

// InvoiceCreatedEvent is raised when a new invoice is issued
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Number    string          `json:"number"`
	CompanyID uuid.UUID       `json:"company_id"`
	Kind      InvoiceType     `json:"kind"`
	Total     decimal.Decimal `json:"total"`
	DueDate   time.Time       `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, inv.ID),
		Number:          inv.Number,
		CompanyID:       inv.CompanyID,
		Kind:            inv.Type,
		Total:           inv.Total,
		DueDate:         inv.DueDate,
	}
}

// InvoicePaidEvent is raised when the matching engine settles an invoice
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	Number        string          `json:"number"`
	CompanyID     uuid.UUID       `json:"company_id"`
	Kind          InvoiceType     `json:"kind"`
	Total         decimal.Decimal `json:"total"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice, paymentID uuid.UUID, transactionID string) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, inv.ID),
		Number:          inv.Number,
		CompanyID:       inv.CompanyID,
		Kind:            inv.Type,
		Total:           inv.Total,
		PaymentID:       paymentID,
		TransactionID:   transactionID,
	}
}

// CreditNoteIssuedEvent is raised when a credit note is created
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	Number    string          `json:"number"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Kind      CreditKind      `json:"kind"`
	Total     decimal.Decimal `json:"total"`
}

// NewCreditNoteIssuedEvent creates a new CreditNoteIssuedEvent
func NewCreditNoteIssuedEvent(cn *CreditNote) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditNoteIssued, cn.ID),
		Number:          cn.Number,
		InvoiceID:       cn.InvoiceID,
		Kind:            cn.Kind,
		Total:           cn.Total,
	}
}

// CreditNoteAppliedEvent is raised when a partial credit reduces an invoice
type CreditNoteAppliedEvent struct {
	shared.BaseDomainEvent
	Number          string          `json:"number"`
	TargetInvoiceID uuid.UUID       `json:"target_invoice_id"`
	Total           decimal.Decimal `json:"total"`
}

// NewCreditNoteAppliedEvent creates a new CreditNoteAppliedEvent
func NewCreditNoteAppliedEvent(cn *CreditNote, targetInvoiceID uuid.UUID) *CreditNoteAppliedEvent {
	return &CreditNoteAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditNoteApplied, cn.ID),
		Number:          cn.Number,
		TargetInvoiceID: targetInvoiceID,
		Total:           cn.Total,
	}
}

// SubscriptionBilledEvent is raised when the scheduled billing run issues
// an invoice for a subscription period.
type SubscriptionBilledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	InvoiceID      uuid.UUID `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	NextBillingAt  time.Time `json:"next_billing_at"`
}

// NewSubscriptionBilledEvent creates a new SubscriptionBilledEvent
func NewSubscriptionBilledEvent(subscriptionID, invoiceID uuid.UUID, invoiceNumber string, nextBillingAt time.Time) *SubscriptionBilledEvent {
	return &SubscriptionBilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionBilled, subscriptionID),
		SubscriptionID:  subscriptionID,
		InvoiceID:       invoiceID,
		InvoiceNumber:   invoiceNumber,
		NextBillingAt:   nextBillingAt,
	}
}

// BillingRunCompletedEvent summarizes a finished recurring billing run
type BillingRunCompletedEvent struct {
	shared.BaseDomainEvent
	Processed int `json:"processed"`
	Invoiced  int `json:"invoiced"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// NewBillingRunCompletedEvent creates a new BillingRunCompletedEvent
func NewBillingRunCompletedEvent(runID uuid.UUID, processed, invoiced, skipped, errors int) *BillingRunCompletedEvent {
	return &BillingRunCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingRunCompleted, runID),
		Processed:       processed,
		Invoiced:        invoiced,
		Skipped:         skipped,
		Errors:          errors,
	}
}
