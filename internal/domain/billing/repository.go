package billing

import (
	"context"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// QuoteRepository persists quotes
type QuoteRepository interface {
	Save(ctx context.Context, quote *Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindByNumber(ctx context.Context, number string) (*Quote, error)
	List(ctx context.Context, filter shared.Filter) ([]*Quote, error)
}

// InvoiceRepository persists client invoices
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, number string) (*Invoice, error)
	// SearchByReference returns open invoices whose number appears in the
	// given free-form text, used by reference-based payment matching.
	SearchByReference(ctx context.Context, reference string) ([]*Invoice, error)
	// FindOpenByCurrency returns invoices awaiting payment in a currency,
	// the candidate set for amount-based payment matching.
	FindOpenByCurrency(ctx context.Context, currency valueobject.Currency) ([]*Invoice, error)
	// FindOpenDueWithin returns open invoices due on or before the horizon,
	// used by the treasury forecast.
	FindOpenDueWithin(ctx context.Context, horizon time.Time) ([]*Invoice, error)
	FindByProjectAndType(ctx context.Context, projectID uuid.UUID, invoiceType InvoiceType) ([]*Invoice, error)
	List(ctx context.Context, filter shared.Filter) ([]*Invoice, error)
}

// CreditNoteRepository persists credit notes
type CreditNoteRepository interface {
	Save(ctx context.Context, note *CreditNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*CreditNote, error)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]*CreditNote, error)
}

// SubscriptionRepository persists subscriptions
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// FindDue returns active subscriptions whose next billing date is on or
	// before the given time, ordered by next billing date.
	FindDue(ctx context.Context, now time.Time) ([]*Subscription, error)
	List(ctx context.Context, filter shared.Filter) ([]*Subscription, error)
}
