package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"

	"github.com/google/uuid"
)

// MilestoneService issues a milestone invoice for a completed deliverable
type MilestoneService struct {
	deliverables project.DeliverableRepository
	projects     project.ProjectRepository
	invoices     billing.InvoiceRepository
	numbers      *billing.NumberGenerator
	ledger       *automation.Ledger
	bus          shared.EventBus
	renderer     InvoiceRenderer
	logger       *zap.Logger
	dueDays      int
	now          func() time.Time
}

// MilestoneConfig holds the service dependencies
type MilestoneConfig struct {
	Deliverables project.DeliverableRepository
	Projects     project.ProjectRepository
	Invoices     billing.InvoiceRepository
	Numbers      *billing.NumberGenerator
	Ledger       *automation.Ledger
	Bus          shared.EventBus
	Renderer     InvoiceRenderer
	Logger       *zap.Logger
	DueDays      int
}

// NewMilestoneService creates a MilestoneService
func NewMilestoneService(cfg MilestoneConfig) *MilestoneService {
	dueDays := cfg.DueDays
	if dueDays <= 0 {
		dueDays = 30
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilestoneService{
		deliverables: cfg.Deliverables,
		projects:     cfg.Projects,
		invoices:     cfg.Invoices,
		numbers:      cfg.Numbers,
		ledger:       cfg.Ledger,
		bus:          cfg.Bus,
		renderer:     cfg.Renderer,
		logger:       logger,
		dueDays:      dueDays,
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *MilestoneService) WithClock(now func() time.Time) *MilestoneService {
	s.now = now
	return s
}

// InvoiceDeliverable issues a milestone invoice for the deliverable. The
// deliverable must exist, be completed and billable, and not yet carry an
// invoice; violations surface as domain errors without side effects.
func (s *MilestoneService) InvoiceDeliverable(ctx context.Context, deliverableID uuid.UUID) (*billing.Invoice, error) {
	deliverable, err := s.deliverables.FindByID(ctx, deliverableID)
	if err != nil {
		return nil, err
	}
	proj, err := s.projects.FindByID(ctx, deliverable.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project for deliverable: %w", err)
	}

	now := s.now()
	number, err := s.numbers.Next(ctx, billing.InvoiceNumberPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("milestone invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(
		number,
		proj.CompanyID,
		billing.InvoiceTypeMilestone,
		deliverable.Amount,
		billing.DefaultVATRate,
		valueobject.DefaultCurrency,
		now.AddDate(0, 0, s.dueDays),
	)
	if err != nil {
		return nil, err
	}
	invoice.LinkProject(proj.ID)

	// validate the deliverable transition before anything is persisted
	if err := deliverable.MarkInvoiced(invoice.ID); err != nil {
		return nil, err
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		s.ledger.Record(ctx, automation.RuleMilestoneInvoiced, "deliverable", deliverable.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"deliverable": deliverable.Name}), err.Error())
		return nil, fmt.Errorf("save milestone invoice: %w", err)
	}
	if err := s.deliverables.Save(ctx, deliverable); err != nil {
		s.ledger.Record(ctx, automation.RuleMilestoneInvoiced, "deliverable", deliverable.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"deliverable": deliverable.Name, "invoice": invoice.Number}), err.Error())
		return nil, fmt.Errorf("save invoiced deliverable: %w", err)
	}

	if s.renderer != nil {
		if err := s.renderer.Render(ctx, invoice); err != nil {
			s.logger.Warn("milestone invoice rendering failed",
				zap.String("number", invoice.Number),
				zap.Error(err))
		}
	}

	s.ledger.Record(ctx, automation.RuleMilestoneInvoiced, "deliverable", deliverable.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{"deliverable": deliverable.Name}),
		ledgerPayload(map[string]string{"invoice": invoice.Number, "amount": deliverable.Amount.String()}))

	publishEvents(ctx, s.bus, invoice)

	s.logger.Info("deliverable invoiced",
		zap.String("deliverable", deliverable.Name),
		zap.String("invoice_number", invoice.Number))

	return invoice, nil
}
