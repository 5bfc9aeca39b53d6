package support

import (
	"context"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketStatus represents the lifecycle status of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Ticket is a support case. Closing a billable ticket with logged hours
// and no covering subscription triggers a support invoice.
type Ticket struct {
	shared.BaseAggregateRoot
	Subject        string          `json:"subject"`
	CompanyID      uuid.UUID       `json:"company_id"`
	Status         TicketStatus    `json:"status"`
	Billable       bool            `json:"billable"`
	HoursLogged    decimal.Decimal `json:"hours_logged"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	SubscriptionID *uuid.UUID      `json:"subscription_id,omitempty"`
	InvoiceID      *uuid.UUID      `json:"invoice_id,omitempty"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
}

// NewTicket opens a ticket
func NewTicket(subject string, companyID uuid.UUID, billable bool, hourlyRate decimal.Decimal) (*Ticket, error) {
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Ticket subject cannot be empty")
	}
	return &Ticket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Subject:           subject,
		CompanyID:         companyID,
		Status:            TicketStatusOpen,
		Billable:          billable,
		HourlyRate:        hourlyRate,
		HoursLogged:       decimal.Zero,
	}, nil
}

// LogHours adds worked time to the ticket
func (t *Ticket) LogHours(hours decimal.Decimal) error {
	if t.Status == TicketStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Cannot log hours on a closed ticket")
	}
	if hours.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Logged hours must be positive")
	}
	t.HoursLogged = t.HoursLogged.Add(hours)
	if t.Status == TicketStatusOpen {
		t.Status = TicketStatusInProgress
	}
	return nil
}

// LinkSubscription marks the ticket as covered by a support subscription
func (t *Ticket) LinkSubscription(subscriptionID uuid.UUID) {
	t.SubscriptionID = &subscriptionID
}

// ShouldInvoiceOnClose reports whether closing this ticket produces a
// support invoice: billable with positive logged hours. Whether a linked
// subscription still covers the work depends on the subscription's
// current status, which the closing workflow checks.
func (t *Ticket) ShouldInvoiceOnClose() bool {
	return t.Billable && t.HoursLogged.GreaterThan(decimal.Zero)
}

// BillableAmount is hours times rate, rounded to cents
func (t *Ticket) BillableAmount() decimal.Decimal {
	return t.HoursLogged.Mul(t.HourlyRate).Round(2)
}

// Close terminates the ticket, optionally linking the invoice issued
func (t *Ticket) Close(at time.Time, invoiceID *uuid.UUID) error {
	if t.Status == TicketStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Ticket is already closed")
	}
	t.Status = TicketStatusClosed
	t.ClosedAt = &at
	t.InvoiceID = invoiceID
	return nil
}

// TicketRepository persists tickets
type TicketRepository interface {
	Save(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	List(ctx context.Context, filter shared.Filter) ([]*Ticket, error)
}
