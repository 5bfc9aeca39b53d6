package billing

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType is the closed set of invoice kinds. Every transition site
// switches exhaustively over these values instead of comparing raw strings.
type InvoiceType string

const (
	InvoiceTypeMilestone        InvoiceType = "milestone"
	InvoiceTypeRecurring        InvoiceType = "recurring"
	InvoiceTypeSupport          InvoiceType = "support"
	InvoiceTypeDeposit          InvoiceType = "deposit"
	InvoiceTypeFinal            InvoiceType = "final"
	InvoiceTypeTimeAndMaterials InvoiceType = "time_and_materials"
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeMilestone, InvoiceTypeRecurring, InvoiceTypeSupport,
		InvoiceTypeDeposit, InvoiceTypeFinal, InvoiceTypeTimeAndMaterials:
		return true
	}
	return false
}

// String returns the string representation
func (t InvoiceType) String() string {
	return string(t)
}

// AllInvoiceTypes returns all valid invoice types
func AllInvoiceTypes() []InvoiceType {
	return []InvoiceType{
		InvoiceTypeMilestone,
		InvoiceTypeRecurring,
		InvoiceTypeSupport,
		InvoiceTypeDeposit,
		InvoiceTypeFinal,
		InvoiceTypeTimeAndMaterials,
	}
}

// InvoiceStatus represents the lifecycle status of a client invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPending,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOpen returns true while the invoice awaits payment
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// Invoice is the client-facing invoice aggregate root
type Invoice struct {
	shared.BaseAggregateRoot
	Number         string               `json:"number"`
	CompanyID      uuid.UUID            `json:"company_id"`
	Type           InvoiceType          `json:"type"`
	Status         InvoiceStatus        `json:"status"`
	Amount         decimal.Decimal      `json:"amount"`
	TaxRate        decimal.Decimal      `json:"tax_rate"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	Total          decimal.Decimal      `json:"total"`
	Currency       valueobject.Currency `json:"currency"`
	DueDate        time.Time            `json:"due_date"`
	QuoteID        *uuid.UUID           `json:"quote_id,omitempty"`
	SubscriptionID *uuid.UUID           `json:"subscription_id,omitempty"`
	ProjectID      *uuid.UUID           `json:"project_id,omitempty"`
	CreditID       *uuid.UUID           `json:"credit_id,omitempty"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
}

// NewInvoice creates a pending invoice with the VAT breakdown derived from
// the pre-tax amount. Workflow-issued invoices are immediately outstanding.
func NewInvoice(
	number string,
	companyID uuid.UUID,
	invoiceType InvoiceType,
	amount decimal.Decimal,
	taxRate decimal.Decimal,
	currency valueobject.Currency,
	dueDate time.Time,
) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown invoice type: "+string(invoiceType))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	breakdown, err := ComputeTax(amount, taxRate)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CompanyID:         companyID,
		Type:              invoiceType,
		Status:            InvoiceStatusPending,
		Amount:            breakdown.Amount,
		TaxRate:           breakdown.Rate,
		TaxAmount:         breakdown.TaxAmount,
		Total:             breakdown.Total,
		Currency:          currency,
		DueDate:           dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// LinkQuote links the invoice to its originating quote
func (i *Invoice) LinkQuote(quoteID uuid.UUID) {
	i.QuoteID = &quoteID
}

// LinkSubscription links the invoice to its originating subscription
func (i *Invoice) LinkSubscription(subscriptionID uuid.UUID) {
	i.SubscriptionID = &subscriptionID
}

// LinkProject links the invoice to a project
func (i *Invoice) LinkProject(projectID uuid.UUID) {
	i.ProjectID = &projectID
}

// MarkSent transitions a draft invoice to sent
func (i *Invoice) MarkSent() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be sent")
	}
	i.Status = InvoiceStatusSent
	return nil
}

// MarkPaid records payment of an open invoice. Only the payment matching
// engine calls this; cancelled and already-paid invoices are rejected.
func (i *Invoice) MarkPaid(at time.Time) error {
	if !i.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not awaiting payment")
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &at
	return nil
}

// MarkOverdue flags an open invoice past its due date
func (i *Invoice) MarkOverdue(now time.Time) error {
	if !i.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not awaiting payment")
	}
	if !now.After(i.DueDate) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}
	i.Status = InvoiceStatusOverdue
	return nil
}

// CancelWithCredit cancels the invoice as part of issuing a full credit
// note against it. This is the only route to the cancelled status.
func (i *Invoice) CancelWithCredit(creditID uuid.UUID) error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already in a terminal state")
	}
	i.Status = InvoiceStatusCancelled
	i.CreditID = &creditID
	return nil
}

// ApplyCredit reduces the invoice's amount, tax and total when a partial
// credit note is applied against it.
func (i *Invoice) ApplyCredit(creditID uuid.UUID, amount, taxAmount, total decimal.Decimal) error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply credit to a terminal invoice")
	}
	if total.GreaterThan(i.Total) {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit exceeds the invoice total")
	}
	i.Amount = i.Amount.Sub(amount)
	i.TaxAmount = i.TaxAmount.Sub(taxAmount)
	i.Total = i.Total.Sub(total)
	i.CreditID = &creditID
	return nil
}

// TotalMoney returns the tax-inclusive total as a Money value object
func (i *Invoice) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.Total, i.Currency)
	return m
}
