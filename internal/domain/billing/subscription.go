package billing

import (
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingCycle is the interval between recurring invoices
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleAnnual    BillingCycle = "annual"
)

// IsValid checks if the cycle is a valid BillingCycle
func (c BillingCycle) IsValid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleAnnual:
		return true
	}
	return false
}

// Months returns the cycle length in calendar months
func (c BillingCycle) Months() int {
	switch c {
	case BillingCycleQuarterly:
		return 3
	case BillingCycleAnnual:
		return 12
	default:
		return 1
	}
}

// SubscriptionStatus represents the lifecycle status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a recurring billing agreement. The scheduled billing run
// invoices every active subscription whose next billing date has arrived.
type Subscription struct {
	shared.BaseAggregateRoot
	Name          string               `json:"name"`
	CompanyID     uuid.UUID            `json:"company_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      valueobject.Currency `json:"currency"`
	Cycle         BillingCycle         `json:"cycle"`
	Status        SubscriptionStatus   `json:"status"`
	StartDate     time.Time            `json:"start_date"`
	NextBillingAt time.Time            `json:"next_billing_at"`
	LastInvoiceID *uuid.UUID           `json:"last_invoice_id,omitempty"`
}

// NewSubscription creates an active subscription. The first invoice falls
// one cycle after the start date, not on the start date itself.
func NewSubscription(
	name string,
	companyID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	cycle BillingCycle,
	startDate time.Time,
) (*Subscription, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Subscription name cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Subscription amount must be positive")
	}
	if !cycle.IsValid() {
		return nil, shared.NewDomainError("INVALID_CYCLE", "Unknown billing cycle: "+string(cycle))
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Subscription{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CompanyID:         companyID,
		Amount:            amount,
		Currency:          currency,
		Cycle:             cycle,
		Status:            SubscriptionStatusActive,
		StartDate:         startDate,
		NextBillingAt:     startDate.AddDate(0, cycle.Months(), 0),
	}, nil
}

// IsDue reports whether the subscription should be invoiced now
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !s.NextBillingAt.After(now)
}

// RecordInvoiced advances the next billing date one cycle from the current
// next billing date, not from the run time, so a late run does not shift
// the billing anchor.
func (s *Subscription) RecordInvoiced(invoiceID uuid.UUID, invoiceNumber string) error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active subscriptions can be invoiced")
	}
	next := s.NextBillingAt.AddDate(0, s.Cycle.Months(), 0)
	s.NextBillingAt = next
	s.LastInvoiceID = &invoiceID
	s.AddDomainEvent(NewSubscriptionBilledEvent(s.ID, invoiceID, invoiceNumber, next))
	return nil
}

// Pause suspends billing without losing the billing anchor
func (s *Subscription) Pause() error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active subscriptions can be paused")
	}
	s.Status = SubscriptionStatusPaused
	return nil
}

// Resume reactivates a paused subscription
func (s *Subscription) Resume() error {
	if s.Status != SubscriptionStatusPaused {
		return shared.NewDomainError("INVALID_STATE", "Only paused subscriptions can be resumed")
	}
	s.Status = SubscriptionStatusActive
	return nil
}

// Cancel terminates the subscription permanently
func (s *Subscription) Cancel() error {
	if s.Status == SubscriptionStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Subscription is already cancelled")
	}
	s.Status = SubscriptionStatusCancelled
	return nil
}
