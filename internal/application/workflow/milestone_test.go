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
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

type milestoneFixture struct {
	svc          *MilestoneService
	deliverables *fakeDeliverableRepo
	projects     *fakeProjectRepo
	invoices     *fakeInvoiceRepo
	executions   *fakeExecRepo
}

func newMilestoneFixture(t *testing.T) *milestoneFixture {
	t.Helper()
	f := &milestoneFixture{
		deliverables: &fakeDeliverableRepo{},
		projects:     &fakeProjectRepo{},
		invoices:     &fakeInvoiceRepo{},
	}
	ledger, executions := newTestLedger()
	f.executions = executions
	f.svc = NewMilestoneService(MilestoneConfig{
		Deliverables: f.deliverables,
		Projects:     f.projects,
		Invoices:     f.invoices,
		Numbers:      billing.NewNumberGenerator(&memSequencer{}),
		Ledger:       ledger,
		Bus:          &fakeBus{},
	})
	return f
}

func (f *milestoneFixture) addDeliverable(t *testing.T, billable bool, completed bool) *project.Deliverable {
	t.Helper()
	proj, err := project.NewProject("CRM rollout", uuid.New(), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.projects.Save(context.Background(), proj))

	d, err := project.NewDeliverable(proj.ID, "Phase 1", decimal.NewFromInt(4500), billable)
	require.NoError(t, err)
	if completed {
		require.NoError(t, d.Complete())
	}
	require.NoError(t, f.deliverables.Save(context.Background(), d))
	return d
}

func TestInvoiceDeliverable(t *testing.T) {
	f := newMilestoneFixture(t)
	d := f.addDeliverable(t, true, true)

	inv, err := f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, billing.InvoiceTypeMilestone, inv.Type)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(4500)))
	require.NotNil(t, inv.ProjectID)
	assert.Equal(t, d.ProjectID, *inv.ProjectID)

	assert.Equal(t, project.DeliverableStatusInvoiced, d.Status)
	require.NotNil(t, d.InvoiceID)
	assert.Equal(t, inv.ID, *d.InvoiceID)
}

func TestInvoiceDeliverableTwiceFails(t *testing.T) {
	f := newMilestoneFixture(t)
	d := f.addDeliverable(t, true, true)

	_, err := f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.NoError(t, err)

	_, err = f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.ErrorIs(t, err, shared.ErrAlreadyInvoiced)
	assert.Len(t, f.invoices.invoices, 1)
}

func TestInvoiceIncompleteDeliverableFails(t *testing.T) {
	f := newMilestoneFixture(t)
	d := f.addDeliverable(t, true, false)

	_, err := f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION", domainErr.Code)
	assert.Equal(t, project.DeliverableStatusPlanned, d.Status)
	assert.Empty(t, f.invoices.invoices)
}

func TestInvoiceNonBillableDeliverableFails(t *testing.T) {
	f := newMilestoneFixture(t)
	d := f.addDeliverable(t, false, true)

	_, err := f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION", domainErr.Code)
	assert.Empty(t, f.invoices.invoices)
}

func TestInvoiceDeliverableSaveFailureIsLedgered(t *testing.T) {
	f := newMilestoneFixture(t)
	d := f.addDeliverable(t, true, true)
	f.invoices.saveErr = errSaveFailed

	_, err := f.svc.InvoiceDeliverable(context.Background(), d.ID)
	require.ErrorIs(t, err, errSaveFailed)

	failed := f.executions.byStatus(automation.ExecutionStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, automation.RuleMilestoneInvoiced, failed[0].RuleName)
	assert.Equal(t, d.ID.String(), failed[0].EntityID)
	assert.Contains(t, failed[0].Output, errSaveFailed.Error())
}
