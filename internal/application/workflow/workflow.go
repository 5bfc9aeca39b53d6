// Package workflow hosts the lifecycle state machines that turn verified
// external signals into financial record mutations. Every service follows
// the same sequence: check the idempotency ledger, mutate through the
// repositories, record the execution, then publish domain events for
// best-effort side effects.
package workflow

import (
	"context"
	"encoding/json"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
)

// InvoiceRenderer forwards an issued invoice to the external document
// service. Rendering is best-effort: a failure never rolls back the
// stored invoice.
type InvoiceRenderer interface {
	Render(ctx context.Context, inv *billing.Invoice) error
}

// publishEvents drains an aggregate's pending domain events onto the bus.
// Publishing happens after the mutation is saved; handler failures are the
// bus's problem, not the workflow's.
func publishEvents(ctx context.Context, bus shared.EventBus, aggregates ...shared.AggregateRoot) {
	if bus == nil {
		return
	}
	for _, agg := range aggregates {
		for _, e := range agg.GetDomainEvents() {
			_ = bus.Publish(ctx, e)
		}
		agg.ClearDomainEvents()
	}
}

// ledgerPayload renders a ledger input/output document, falling back to an
// empty object when marshalling fails.
func ledgerPayload(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
