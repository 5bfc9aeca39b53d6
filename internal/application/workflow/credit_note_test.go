package workflow

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
)

type creditFixture struct {
	svc        *CreditNoteService
	credits    *fakeCreditRepo
	invoices   *fakeInvoiceRepo
	executions *fakeExecRepo
}

func newCreditFixture(t *testing.T) *creditFixture {
	t.Helper()
	f := &creditFixture{
		credits:  &fakeCreditRepo{},
		invoices: &fakeInvoiceRepo{},
	}
	ledger, executions := newTestLedger()
	f.executions = executions
	f.svc = NewCreditNoteService(CreditNoteConfig{
		Credits:  f.credits,
		Invoices: f.invoices,
		Numbers:  billing.NewNumberGenerator(&memSequencer{}),
		Ledger:   ledger,
		Bus:      &fakeBus{},
	})
	return f
}

func TestIssueFullCreditCancelsInvoice(t *testing.T) {
	f := newCreditFixture(t)
	inv := openInvoice(t, "INV-202507-001", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), inv))

	note, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: inv.ID,
		Kind:      billing.CreditKindFull,
	})
	require.NoError(t, err)

	assert.Equal(t, billing.CreditKindFull, note.Kind)
	assert.True(t, note.Amount.Equal(decimal.NewFromInt(1000)), "got %s", note.Amount)
	assert.True(t, note.Total.Equal(decimal.NewFromFloat(1081)), "full credit mirrors the invoice total, got %s", note.Total)

	assert.Equal(t, billing.InvoiceStatusCancelled, inv.Status)
	require.NotNil(t, inv.CreditID)
	assert.Equal(t, note.ID, *inv.CreditID)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.RuleCreditIssued, f.executions.entries[0].RuleName)
}

func TestIssueFullCreditOnPaidInvoiceFails(t *testing.T) {
	f := newCreditFixture(t)
	inv := openInvoice(t, "INV-202507-002", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, inv.MarkPaid(inv.DueDate))
	require.NoError(t, f.invoices.Save(context.Background(), inv))

	_, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: inv.ID,
		Kind:      billing.CreditKindFull,
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)

	// nothing was persisted
	assert.Empty(t, f.credits.notes)
	assert.Equal(t, billing.InvoiceStatusPaid, inv.Status)
}

func TestIssuePartialCreditLeavesInvoiceOpen(t *testing.T) {
	f := newCreditFixture(t)
	inv := openInvoice(t, "INV-202507-003", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), inv))

	note, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: inv.ID,
		Kind:      billing.CreditKindPartial,
		Amount:    decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	assert.Equal(t, billing.CreditStatusIssued, note.Status)
	assert.True(t, note.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, billing.InvoiceStatusPending, inv.Status)
	assert.Nil(t, inv.CreditID)
}

func TestApplyPartialCreditReducesTarget(t *testing.T) {
	f := newCreditFixture(t)
	source := openInvoice(t, "INV-202507-004", billing.InvoiceTypeRecurring, 1000)
	target := openInvoice(t, "INV-202507-005", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), source))
	require.NoError(t, f.invoices.Save(context.Background(), target))

	note, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: source.ID,
		Kind:      billing.CreditKindPartial,
		Amount:    decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	applied, err := f.svc.Apply(context.Background(), note.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.CreditStatusApplied, applied.Status)
	require.NotNil(t, applied.AppliedToInvoiceID)
	assert.Equal(t, target.ID, *applied.AppliedToInvoiceID)

	assert.True(t, target.Amount.Equal(decimal.NewFromInt(800)), "got %s", target.Amount)
	assert.True(t, target.Total.Equal(decimal.NewFromFloat(864.80)), "got %s", target.Total)

	// a credit applies at most once
	_, err = f.svc.Apply(context.Background(), note.ID, target.ID)
	require.Error(t, err)
}

func TestIssueCreditSaveFailureIsLedgered(t *testing.T) {
	f := newCreditFixture(t)
	inv := openInvoice(t, "INV-202507-007", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), inv))
	f.invoices.saveErr = errSaveFailed

	_, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: inv.ID,
		Kind:      billing.CreditKindFull,
	})
	require.ErrorIs(t, err, errSaveFailed)

	failed := f.executions.byStatus(automation.ExecutionStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, automation.RuleCreditIssued, failed[0].RuleName)
	assert.Equal(t, inv.ID.String(), failed[0].EntityID)
	assert.Contains(t, failed[0].Output, errSaveFailed.Error())
}

func TestApplyCreditSaveFailureIsLedgered(t *testing.T) {
	f := newCreditFixture(t)
	source := openInvoice(t, "INV-202507-008", billing.InvoiceTypeRecurring, 1000)
	target := openInvoice(t, "INV-202507-009", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), source))
	require.NoError(t, f.invoices.Save(context.Background(), target))

	note, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: source.ID,
		Kind:      billing.CreditKindPartial,
		Amount:    decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	f.invoices.saveErr = errSaveFailed

	_, err = f.svc.Apply(context.Background(), note.ID, target.ID)
	require.ErrorIs(t, err, errSaveFailed)

	failed := f.executions.byStatus(automation.ExecutionStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, automation.RuleCreditIssued, failed[0].RuleName)
	assert.Equal(t, note.ID.String(), failed[0].EntityID)
	assert.Contains(t, failed[0].Output, errSaveFailed.Error())
}

func TestApplyCreditToSourceInvoiceFails(t *testing.T) {
	f := newCreditFixture(t)
	source := openInvoice(t, "INV-202507-006", billing.InvoiceTypeRecurring, 1000)
	require.NoError(t, f.invoices.Save(context.Background(), source))

	note, err := f.svc.Issue(context.Background(), CreditNoteRequest{
		InvoiceID: source.ID,
		Kind:      billing.CreditKindPartial,
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), note.ID, source.ID)
	require.Error(t, err)
	assert.Equal(t, billing.CreditStatusIssued, note.Status)
}
