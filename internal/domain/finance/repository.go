package finance

import (
	"context"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRepository persists payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByTransactionID is the durable dedup lookup for replayed
	// provider notifications.
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	// SumDebitsSince totals outgoing payments received after the given
	// time, the input to the trailing burn rate.
	SumDebitsSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	List(ctx context.Context, filter shared.Filter) ([]*Payment, error)
}

// SupplierInvoiceRepository persists supplier invoices
type SupplierInvoiceRepository interface {
	Save(ctx context.Context, invoice *SupplierInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierInvoice, error)
	// FindApprovedScheduledWithin returns approved invoices whose payment
	// is scheduled on or before the horizon, the outflow side of the
	// treasury forecast.
	FindApprovedScheduledWithin(ctx context.Context, horizon time.Time) ([]*SupplierInvoice, error)
	List(ctx context.Context, filter shared.Filter) ([]*SupplierInvoice, error)
}

// BalanceSnapshotRepository persists balance snapshots
type BalanceSnapshotRepository interface {
	Save(ctx context.Context, snapshot *BalanceSnapshot) error
	// Latest returns the most recent snapshot, or shared.ErrNotFound when
	// no snapshot has been recorded yet.
	Latest(ctx context.Context) (*BalanceSnapshot, error)
}
