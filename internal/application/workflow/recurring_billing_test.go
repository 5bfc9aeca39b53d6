package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

type billingFixture struct {
	svc        *RecurringBillingService
	subs       *fakeSubscriptionRepo
	invoices   *fakeInvoiceRepo
	ledger     *automation.Ledger
	executions *fakeExecRepo
	bus        *fakeBus
	now        time.Time
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	f := &billingFixture{
		subs:     &fakeSubscriptionRepo{},
		invoices: &fakeInvoiceRepo{},
		bus:      &fakeBus{},
		now:      time.Date(2025, time.July, 1, 6, 0, 0, 0, time.UTC),
	}
	f.ledger, f.executions = newTestLedger()
	f.svc = NewRecurringBillingService(RecurringBillingConfig{
		Subscriptions: f.subs,
		Invoices:      f.invoices,
		Numbers:       billing.NewNumberGenerator(&memSequencer{}),
		Ledger:        f.ledger,
		Bus:           f.bus,
	}).WithClock(func() time.Time { return f.now })
	return f
}

func (f *billingFixture) addSubscription(t *testing.T, name string, amount int64, nextBillingAt time.Time) *billing.Subscription {
	t.Helper()
	sub, err := billing.NewSubscription(name, uuid.New(), decimal.NewFromInt(amount),
		valueobject.CurrencyCHF, billing.BillingCycleMonthly, nextBillingAt.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.NoError(t, f.subs.Save(context.Background(), sub))
	return sub
}

func TestRunDailyPassBillsDueSubscriptions(t *testing.T) {
	f := newBillingFixture(t)
	due := f.addSubscription(t, "Hosting", 500, f.now)
	f.addSubscription(t, "Maintenance", 800, f.now.AddDate(0, 0, 10))

	summary, err := f.svc.RunDailyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BillingRunSummary{Processed: 1, Invoiced: 1}, summary)

	require.Len(t, f.invoices.invoices, 1)
	inv := f.invoices.invoices[0]
	assert.Equal(t, billing.InvoiceTypeRecurring, inv.Type)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, inv.SubscriptionID)
	assert.Equal(t, due.ID, *inv.SubscriptionID)
	assert.Equal(t, f.now.AddDate(0, 0, 30), inv.DueDate)

	// the billing anchor advanced one cycle from the previous date
	assert.Equal(t, f.now.AddDate(0, 1, 0), due.NextBillingAt)
	require.NotNil(t, due.LastInvoiceID)
	assert.Equal(t, inv.ID, *due.LastInvoiceID)
}

func TestRunDailyPassSkipsAlreadyBilled(t *testing.T) {
	f := newBillingFixture(t)
	sub := f.addSubscription(t, "Hosting", 500, f.now)

	f.ledger.Record(context.Background(), automation.RuleSubscriptionBilled, "subscription",
		sub.ID.String(), automation.ExecutionStatusSuccess, "{}", "{}")

	summary, err := f.svc.RunDailyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BillingRunSummary{Processed: 1, Skipped: 1}, summary)
	assert.Empty(t, f.invoices.invoices)
}

func TestRunDailyPassContinuesPastFailures(t *testing.T) {
	f := newBillingFixture(t)
	broken := f.addSubscription(t, "Hosting", 500, f.now)
	f.addSubscription(t, "Maintenance", 800, f.now)

	// the first invoice save fails; the pass records the failure and
	// still bills the second subscription
	f.invoices.saveErrOnce = errSaveFailed

	summary, err := f.svc.RunDailyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Invoiced)
	assert.Equal(t, 1, summary.Errors)

	failed := f.executions.byStatus(automation.ExecutionStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, broken.ID.String(), failed[0].EntityID)

	// the failed subscription keeps its billing anchor
	assert.Equal(t, f.now, broken.NextBillingAt)
}

func TestRunDailyPassRerunIsIdempotent(t *testing.T) {
	f := newBillingFixture(t)
	f.addSubscription(t, "Hosting", 500, f.now)

	first, err := f.svc.RunDailyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Invoiced)

	second, err := f.svc.RunDailyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Invoiced)
	assert.Len(t, f.invoices.invoices, 1)
}
