package billing

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle status of a quote.
// A quote only moves forward: draft -> sent -> signed -> converted.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusSigned    QuoteStatus = "signed"
	QuoteStatusConverted QuoteStatus = "converted"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusSigned, QuoteStatusConverted:
		return true
	}
	return false
}

// String returns the string representation
func (s QuoteStatus) String() string {
	return string(s)
}

// Quote represents a sales quote aggregate root. The sales flow creates it;
// the signature webhook moves it to signed and the payment workflow to
// converted once the deposit is paid and the project activated.
type Quote struct {
	shared.BaseAggregateRoot
	Number           string               `json:"number"`
	ContactID        uuid.UUID            `json:"contact_id"`
	CompanyID        uuid.UUID            `json:"company_id"`
	AmountPreTax     decimal.Decimal      `json:"amount_pre_tax"`
	Currency         valueobject.Currency `json:"currency"`
	Status           QuoteStatus          `json:"status"`
	DepositInvoiceID *uuid.UUID           `json:"deposit_invoice_id,omitempty"`
	ProjectID        *uuid.UUID           `json:"project_id,omitempty"`
	SignedAt         *time.Time           `json:"signed_at,omitempty"`
}

// NewQuote creates a new quote in draft status
func NewQuote(number string, contactID, companyID uuid.UUID, amountPreTax decimal.Decimal, currency valueobject.Currency) (*Quote, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Quote number cannot be empty")
	}
	if amountPreTax.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quote amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Quote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		ContactID:         contactID,
		CompanyID:         companyID,
		AmountPreTax:      amountPreTax,
		Currency:          currency,
		Status:            QuoteStatusDraft,
	}, nil
}

// MarkSent transitions a draft quote to sent
func (q *Quote) MarkSent() error {
	if q.Status != QuoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotes can be sent")
	}
	q.Status = QuoteStatusSent
	return nil
}

// Sign records the e-signature and links the deposit invoice created for
// it. Signed and converted quotes reject the transition; the caller treats
// an already-signed quote as a replayed event.
func (q *Quote) Sign(depositInvoiceID uuid.UUID, at time.Time) error {
	switch q.Status {
	case QuoteStatusDraft, QuoteStatusSent:
		q.Status = QuoteStatusSigned
		q.DepositInvoiceID = &depositInvoiceID
		q.SignedAt = &at
		return nil
	case QuoteStatusSigned, QuoteStatusConverted:
		return shared.NewDomainError("INVALID_STATE", "Quote is already signed")
	default:
		return shared.NewDomainError("INVALID_STATE", "Quote cannot be signed from status "+q.Status.String())
	}
}

// Convert marks the quote converted once the deposit payment activated the
// project. Only signed quotes convert; there is no reversal.
func (q *Quote) Convert(projectID uuid.UUID) error {
	if q.Status != QuoteStatusSigned {
		return shared.NewDomainError("INVALID_STATE", "Only signed quotes can be converted")
	}
	q.Status = QuoteStatusConverted
	q.ProjectID = &projectID
	return nil
}

// IsSigned returns true once the quote carries a signature
func (q *Quote) IsSigned() bool {
	return q.Status == QuoteStatusSigned || q.Status == QuoteStatusConverted
}

// HasDepositInvoice returns true when a deposit invoice is already linked
func (q *Quote) HasDepositInvoice() bool {
	return q.DepositInvoiceID != nil
}
