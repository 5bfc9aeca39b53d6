package finance

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierInvoiceStatus represents the lifecycle status of a supplier invoice
type SupplierInvoiceStatus string

const (
	SupplierInvoiceStatusPending  SupplierInvoiceStatus = "pending"
	SupplierInvoiceStatusApproved SupplierInvoiceStatus = "approved"
	SupplierInvoiceStatusRejected SupplierInvoiceStatus = "rejected"
	SupplierInvoiceStatusPaid     SupplierInvoiceStatus = "paid"
)

// SupplierInvoice is an incoming invoice from a supplier, gated on the
// deviation between its amount and the originating purchase quote.
type SupplierInvoice struct {
	shared.BaseAggregateRoot
	SupplierName         string                `json:"supplier_name"`
	Reference            string                `json:"reference"`
	Amount               decimal.Decimal       `json:"amount"`
	Total                decimal.Decimal       `json:"total"`
	Currency             valueobject.Currency  `json:"currency"`
	QuoteAmount          *decimal.Decimal      `json:"quote_amount,omitempty"`
	Status               SupplierInvoiceStatus `json:"status"`
	DeviationStatus      DeviationStatus       `json:"deviation_status"`
	DeviationPct         decimal.Decimal       `json:"deviation_percentage"`
	ApprovedBy           *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time            `json:"approved_at,omitempty"`
	PaymentScheduledDate *time.Time            `json:"payment_scheduled_date,omitempty"`
}

// NewSupplierInvoice records a pending supplier invoice and classifies its
// deviation against the optional quote amount.
func NewSupplierInvoice(
	supplierName string,
	reference string,
	amount decimal.Decimal,
	total decimal.Decimal,
	currency valueobject.Currency,
	quoteAmount *decimal.Decimal,
	tolerancePct decimal.Decimal,
) (*SupplierInvoice, error) {
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier name cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Supplier invoice amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if total.IsZero() {
		total = amount
	}

	result := ClassifyDeviation(amount, quoteAmount, tolerancePct)

	return &SupplierInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierName:      supplierName,
		Reference:         reference,
		Amount:            amount,
		Total:             total,
		Currency:          currency,
		QuoteAmount:       quoteAmount,
		Status:            SupplierInvoiceStatusPending,
		DeviationStatus:   result.Status,
		DeviationPct:      result.Deviation,
	}, nil
}

// ReclassifyDeviation recomputes the deviation gate against a different
// tolerance, for deployments that tighten or loosen the configured band
// after the invoice was recorded.
func (s *SupplierInvoice) ReclassifyDeviation(tolerancePct decimal.Decimal) {
	result := ClassifyDeviation(s.Amount, s.QuoteAmount, tolerancePct)
	s.DeviationStatus = result.Status
	s.DeviationPct = result.Deviation
}

// Approve authorizes the invoice for payment. A blocked invoice is refused
// unless the caller passes force; the computed deviation stays on the
// record either way for audit.
func (s *SupplierInvoice) Approve(approverID uuid.UUID, force bool, at time.Time, scheduledDate *time.Time) error {
	if s.Status != SupplierInvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending supplier invoices can be approved")
	}
	if s.DeviationStatus == DeviationStatusBlocked && !force {
		return shared.NewDomainError("GATE_BLOCKED",
			"Supplier invoice deviates beyond tolerance and requires an explicit override")
	}
	s.Status = SupplierInvoiceStatusApproved
	s.ApprovedBy = &approverID
	s.ApprovedAt = &at
	s.PaymentScheduledDate = scheduledDate
	return nil
}

// Reject declines the invoice
func (s *SupplierInvoice) Reject() error {
	if s.Status != SupplierInvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending supplier invoices can be rejected")
	}
	s.Status = SupplierInvoiceStatusRejected
	return nil
}

// MarkPaid records that the outgoing transfer was executed
func (s *SupplierInvoice) MarkPaid() error {
	if s.Status != SupplierInvoiceStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved supplier invoices can be paid")
	}
	s.Status = SupplierInvoiceStatusPaid
	return nil
}
