package billing

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditKind distinguishes a full cancellation from a partial reduction
type CreditKind string

const (
	CreditKindFull    CreditKind = "full"
	CreditKindPartial CreditKind = "partial"
)

// IsValid checks if the kind is a valid CreditKind
func (k CreditKind) IsValid() bool {
	return k == CreditKindFull || k == CreditKindPartial
}

// CreditStatus represents the lifecycle status of a credit note
type CreditStatus string

const (
	CreditStatusIssued  CreditStatus = "issued"
	CreditStatusApplied CreditStatus = "applied"
)

// CreditNote offsets a previously issued invoice. A full credit cancels
// its source invoice atomically with creation; a partial credit reduces a
// different target invoice when applied later.
type CreditNote struct {
	shared.BaseAggregateRoot
	Number             string               `json:"number"`
	InvoiceID          uuid.UUID            `json:"invoice_id"`
	Kind               CreditKind           `json:"kind"`
	Amount             decimal.Decimal      `json:"amount"`
	TaxRate            decimal.Decimal      `json:"tax_rate"`
	TaxAmount          decimal.Decimal      `json:"tax_amount"`
	Total              decimal.Decimal      `json:"total"`
	Currency           valueobject.Currency `json:"currency"`
	Status             CreditStatus         `json:"status"`
	AppliedToInvoiceID *uuid.UUID           `json:"applied_to_invoice_id,omitempty"`
	AppliedAt          *time.Time           `json:"applied_at,omitempty"`
}

// NewCreditNote creates a credit note in issued status with the same VAT
// breakdown rules as invoices.
func NewCreditNote(
	number string,
	invoiceID uuid.UUID,
	kind CreditKind,
	amount decimal.Decimal,
	taxRate decimal.Decimal,
	currency valueobject.Currency,
) (*CreditNote, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Credit note number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Credit note must reference an invoice")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown credit kind: "+string(kind))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	breakdown, err := ComputeTax(amount, taxRate)
	if err != nil {
		return nil, err
	}

	cn := &CreditNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		InvoiceID:         invoiceID,
		Kind:              kind,
		Amount:            breakdown.Amount,
		TaxRate:           breakdown.Rate,
		TaxAmount:         breakdown.TaxAmount,
		Total:             breakdown.Total,
		Currency:          currency,
		Status:            CreditStatusIssued,
	}

	cn.AddDomainEvent(NewCreditNoteIssuedEvent(cn))

	return cn, nil
}

// CanApply returns true while the credit is still applicable
func (c *CreditNote) CanApply() bool {
	return c.Kind == CreditKindPartial && c.Status == CreditStatusIssued
}

// Apply marks the credit applied against a target invoice. A credit can be
// applied at most once, only partial credits are applicable, and the
// target must differ from the source invoice.
func (c *CreditNote) Apply(targetInvoiceID uuid.UUID, at time.Time) error {
	if c.Status == CreditStatusApplied {
		return shared.NewDomainError("INVALID_STATE", "Credit note has already been applied")
	}
	if c.Kind != CreditKindPartial {
		return shared.NewDomainError("INVALID_STATE", "Only partial credit notes can be applied to another invoice")
	}
	if targetInvoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Target invoice is required")
	}
	if targetInvoiceID == c.InvoiceID {
		return shared.NewDomainError("INVALID_INVOICE", "Credit cannot be applied to its source invoice")
	}
	c.Status = CreditStatusApplied
	c.AppliedToInvoiceID = &targetInvoiceID
	c.AppliedAt = &at
	return nil
}
