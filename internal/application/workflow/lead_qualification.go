package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/crm"
	"github.com/finflow/backend/internal/domain/shared"
)

// LeadClassifier scores an inbound lead. Implementations handle their own
// retries; the workflow sees a single verdict or a single exhausted error.
type LeadClassifier interface {
	Classify(ctx context.Context, lead *crm.Lead) (crm.Classification, error)
}

// LeadQualificationService qualifies inbound leads through a classifier
type LeadQualificationService struct {
	leads      crm.LeadRepository
	classifier LeadClassifier
	ledger     *automation.Ledger
	bus        shared.EventBus
	logger     *zap.Logger
}

// LeadQualificationConfig holds the service dependencies
type LeadQualificationConfig struct {
	Leads      crm.LeadRepository
	Classifier LeadClassifier
	Ledger     *automation.Ledger
	Bus        shared.EventBus
	Logger     *zap.Logger
}

// NewLeadQualificationService creates a LeadQualificationService
func NewLeadQualificationService(cfg LeadQualificationConfig) *LeadQualificationService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadQualificationService{
		leads:      cfg.Leads,
		classifier: cfg.Classifier,
		ledger:     cfg.Ledger,
		bus:        cfg.Bus,
		logger:     logger,
	}
}

// Qualify runs the classifier over the lead and stores the verdict. A
// classifier failure leaves the lead untouched in new status and writes
// exactly one failed ledger entry for the attempt.
func (s *LeadQualificationService) Qualify(ctx context.Context, leadID uuid.UUID) (*crm.Lead, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != crm.LeadStatusNew {
		return nil, shared.NewDomainError("INVALID_STATE", "Lead has already been qualified")
	}

	verdict, err := s.classifier.Classify(ctx, lead)
	if err != nil {
		s.ledger.Record(ctx, automation.RuleLeadQualification, "lead", lead.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"email": lead.Email, "company": lead.CompanyName}),
			err.Error())
		return nil, fmt.Errorf("classify lead %s: %w", lead.Email, err)
	}

	if err := lead.ApplyClassification(verdict); err != nil {
		return nil, err
	}
	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("save qualified lead: %w", err)
	}

	s.ledger.Record(ctx, automation.RuleLeadQualification, "lead", lead.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{"email": lead.Email, "company": lead.CompanyName}),
		ledgerPayload(verdict))

	publishEvents(ctx, s.bus, lead)

	s.logger.Info("lead qualified",
		zap.String("email", lead.Email),
		zap.String("tier", string(verdict.Tier)),
		zap.Int("score", verdict.Score))

	return lead, nil
}
