package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/crm"
	"github.com/finflow/backend/internal/domain/shared"
)

type stubClassifier struct {
	verdict crm.Classification
	err     error
	calls   int
}

func (c *stubClassifier) Classify(ctx context.Context, lead *crm.Lead) (crm.Classification, error) {
	c.calls++
	if c.err != nil {
		return crm.Classification{}, c.err
	}
	return c.verdict, nil
}

func newLeadFixture(t *testing.T, classifier *stubClassifier) (*LeadQualificationService, *fakeLeadRepo, *fakeExecRepo) {
	t.Helper()
	leads := &fakeLeadRepo{}
	ledger, executions := newTestLedger()
	svc := NewLeadQualificationService(LeadQualificationConfig{
		Leads:      leads,
		Classifier: classifier,
		Ledger:     ledger,
		Bus:        &fakeBus{},
	})
	return svc, leads, executions
}

func newLead(t *testing.T, leads *fakeLeadRepo) *crm.Lead {
	t.Helper()
	lead, err := crm.NewLead("Dana Frei", "dana@example.ch", "Frei Consulting", "Need a custom portal")
	require.NoError(t, err)
	require.NoError(t, leads.Save(context.Background(), lead))
	return lead
}

func TestQualifyAppliesVerdict(t *testing.T) {
	classifier := &stubClassifier{verdict: crm.Classification{
		Tier:      crm.LeadTierHot,
		Score:     88,
		Rationale: "named budget and timeline",
	}}
	svc, leads, executions := newLeadFixture(t, classifier)
	lead := newLead(t, leads)

	qualified, err := svc.Qualify(context.Background(), lead.ID)
	require.NoError(t, err)

	assert.Equal(t, crm.LeadStatusQualified, qualified.Status)
	require.NotNil(t, qualified.Tier)
	assert.Equal(t, crm.LeadTierHot, *qualified.Tier)
	require.NotNil(t, qualified.Score)
	assert.Equal(t, 88, *qualified.Score)

	require.Len(t, executions.entries, 1)
	assert.Equal(t, automation.RuleLeadQualification, executions.entries[0].RuleName)
	assert.Equal(t, automation.ExecutionStatusSuccess, executions.entries[0].Status)
}

func TestQualifyColdLeadIsRejected(t *testing.T) {
	classifier := &stubClassifier{verdict: crm.Classification{
		Tier:  crm.LeadTierCold,
		Score: 12,
	}}
	svc, leads, _ := newLeadFixture(t, classifier)
	lead := newLead(t, leads)

	qualified, err := svc.Qualify(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusRejected, qualified.Status)
}

func TestClassifierFailureLeavesLeadUntouched(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("classifier unavailable after retries")}
	svc, leads, executions := newLeadFixture(t, classifier)
	lead := newLead(t, leads)

	_, err := svc.Qualify(context.Background(), lead.ID)
	require.Error(t, err)

	assert.Equal(t, crm.LeadStatusNew, lead.Status)
	assert.Nil(t, lead.Tier)

	// exactly one failed attempt is ledgered
	require.Len(t, executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusFailed, executions.entries[0].Status)
	assert.Equal(t, 1, classifier.calls)
}

func TestQualifyTwiceFails(t *testing.T) {
	classifier := &stubClassifier{verdict: crm.Classification{Tier: crm.LeadTierWarm, Score: 55}}
	svc, leads, _ := newLeadFixture(t, classifier)
	lead := newLead(t, leads)

	_, err := svc.Qualify(context.Background(), lead.ID)
	require.NoError(t, err)

	_, err = svc.Qualify(context.Background(), lead.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	assert.Equal(t, 1, classifier.calls)
}
