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
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

type paymentFixture struct {
	svc        *PaymentReceivedService
	payments   *fakePaymentRepo
	invoices   *fakeInvoiceRepo
	quotes     *fakeQuoteRepo
	projects   *fakeProjectRepo
	executions *fakeExecRepo
	bus        *fakeBus
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		payments: &fakePaymentRepo{},
		invoices: &fakeInvoiceRepo{},
		quotes:   &fakeQuoteRepo{},
		projects: &fakeProjectRepo{},
		bus:      &fakeBus{},
	}
	ledger, executions := newTestLedger()
	f.executions = executions
	f.svc = NewPaymentReceivedService(PaymentReceivedConfig{
		Payments: f.payments,
		Invoices: f.invoices,
		Quotes:   f.quotes,
		Projects: f.projects,
		Ledger:   ledger,
		Bus:      f.bus,
	})
	return f
}

func openInvoice(t *testing.T, number string, invoiceType billing.InvoiceType, amount int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(number, uuid.New(), invoiceType,
		decimal.NewFromInt(amount), billing.DefaultVATRate, valueobject.CurrencyCHF,
		time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func TestPaymentMatchesByReference(t *testing.T) {
	f := newPaymentFixture(t)
	inv := openInvoice(t, "INV-202506-001", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), inv))

	result, err := f.svc.Process(context.Background(), PaymentNotification{
		TransactionID: "tx-100",
		Amount:        inv.Total,
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionCredit,
		Reference:     "Payment for INV-202506-001, thanks",
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, billing.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, result.Payment)
	assert.Equal(t, finance.PaymentStatusConfirmed, result.Payment.Status)
	require.NotNil(t, result.Payment.MatchedInvoiceID)
	assert.Equal(t, inv.ID, *result.Payment.MatchedInvoiceID)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusSuccess, f.executions.entries[0].Status)
	assert.NotEmpty(t, f.bus.events)
}

func TestPaymentReplayByTransactionID(t *testing.T) {
	f := newPaymentFixture(t)
	inv := openInvoice(t, "INV-202506-002", billing.InvoiceTypeRecurring, 500)
	require.NoError(t, f.invoices.Save(context.Background(), inv))

	notification := PaymentNotification{
		TransactionID: "tx-200",
		Amount:        inv.Total,
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionCredit,
		Reference:     inv.Number,
	}

	first, err := f.svc.Process(context.Background(), notification)
	require.NoError(t, err)
	assert.True(t, first.Matched)

	replay, err := f.svc.Process(context.Background(), notification)
	require.NoError(t, err)
	assert.True(t, replay.AlreadyProcessed)

	// the replay recorded nothing new
	assert.Len(t, f.payments.payments, 1)
	assert.Len(t, f.executions.entries, 1)
}

func TestAmbiguousAmountStaysUnmatched(t *testing.T) {
	f := newPaymentFixture(t)
	first := openInvoice(t, "INV-202506-003", billing.InvoiceTypeRecurring, 750)
	second := openInvoice(t, "INV-202506-004", billing.InvoiceTypeSupport, 750)
	require.NoError(t, f.invoices.Save(context.Background(), first))
	require.NoError(t, f.invoices.Save(context.Background(), second))

	result, err := f.svc.Process(context.Background(), PaymentNotification{
		TransactionID: "tx-300",
		Amount:        first.Total,
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionCredit,
		Reference:     "wire transfer",
	})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, finance.PaymentStatusUnmatched, result.Payment.Status)
	assert.Equal(t, billing.InvoiceStatusPending, first.Status)
	assert.Equal(t, billing.InvoiceStatusPending, second.Status)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusWarning, f.executions.entries[0].Status)
}

func TestOutgoingTransferIsRecordedAndSkipped(t *testing.T) {
	f := newPaymentFixture(t)

	result, err := f.svc.Process(context.Background(), PaymentNotification{
		TransactionID: "tx-400",
		Amount:        decimal.NewFromInt(1200),
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionDebit,
		Reference:     "office rent",
	})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	require.Len(t, f.payments.payments, 1)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusSkipped, f.executions.entries[0].Status)
}

func TestDepositPaymentActivatesProject(t *testing.T) {
	f := newPaymentFixture(t)

	quote, err := billing.NewQuote("QUO-202506-010", uuid.New(), uuid.New(),
		decimal.NewFromInt(10000), valueobject.CurrencyCHF)
	require.NoError(t, err)
	require.NoError(t, f.quotes.Save(context.Background(), quote))

	deposit := openInvoice(t, "INV-202506-010", billing.InvoiceTypeDeposit, 3000)
	deposit.LinkQuote(quote.ID)
	require.NoError(t, f.invoices.Save(context.Background(), deposit))
	require.NoError(t, quote.Sign(deposit.ID, time.Now()))

	result, err := f.svc.Process(context.Background(), PaymentNotification{
		TransactionID: "tx-500",
		Amount:        deposit.Total,
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionCredit,
		Reference:     deposit.Number,
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)

	assert.Equal(t, billing.QuoteStatusConverted, quote.Status)
	require.Len(t, f.projects.projects, 1)
	proj := f.projects.projects[0]
	assert.Equal(t, project.ProjectStatusActive, proj.Status)
	require.NotNil(t, quote.ProjectID)
	assert.Equal(t, proj.ID, *quote.ProjectID)
}

func TestFinalPaymentCompletesProject(t *testing.T) {
	f := newPaymentFixture(t)

	proj, err := project.NewProject("Website relaunch", uuid.New(), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.projects.Save(context.Background(), proj))

	final := openInvoice(t, "INV-202506-011", billing.InvoiceTypeFinal, 7000)
	final.LinkProject(proj.ID)
	require.NoError(t, f.invoices.Save(context.Background(), final))

	result, err := f.svc.Process(context.Background(), PaymentNotification{
		TransactionID: "tx-600",
		Amount:        final.Total,
		Currency:      valueobject.CurrencyCHF,
		Direction:     finance.PaymentDirectionCredit,
		Reference:     final.Number,
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, project.ProjectStatusCompleted, proj.Status)
	require.NotNil(t, proj.CompletedAt)
}
