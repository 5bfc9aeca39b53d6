package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/finance"
)

// SupplierApprovalService drives the supplier invoice approval gate
type SupplierApprovalService struct {
	invoices  finance.SupplierInvoiceRepository
	ledger    *automation.Ledger
	logger    *zap.Logger
	tolerance decimal.Decimal
	now       func() time.Time
}

// SupplierApprovalConfig holds the service dependencies
type SupplierApprovalConfig struct {
	Invoices finance.SupplierInvoiceRepository
	Ledger   *automation.Ledger
	Logger   *zap.Logger
	// DeviationTolPct is the allowed deviation band in percent between a
	// supplier invoice and its quote. Zero or negative falls back to the
	// default tolerance.
	DeviationTolPct int
}

// NewSupplierApprovalService creates a SupplierApprovalService
func NewSupplierApprovalService(cfg SupplierApprovalConfig) *SupplierApprovalService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tolerance := finance.DefaultDeviationTolerance
	if cfg.DeviationTolPct > 0 {
		tolerance = decimal.NewFromInt(int64(cfg.DeviationTolPct))
	}
	return &SupplierApprovalService{
		invoices:  cfg.Invoices,
		ledger:    cfg.Ledger,
		logger:    logger,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *SupplierApprovalService) WithClock(now func() time.Time) *SupplierApprovalService {
	s.now = now
	return s
}

// Approve authorizes a pending supplier invoice for payment. A deviation
// beyond tolerance blocks the approval unless force is set; the override
// is recorded in the execution ledger with the approver.
func (s *SupplierApprovalService) Approve(ctx context.Context, id, approverID uuid.UUID, force bool, scheduledDate *time.Time) (*finance.SupplierInvoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// the gate decision uses the tolerance configured now, not the one in
	// effect when the invoice was recorded
	invoice.ReclassifyDeviation(s.tolerance)

	if err := invoice.Approve(approverID, force, s.now(), scheduledDate); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save approved supplier invoice: %w", err)
	}

	status := automation.ExecutionStatusSuccess
	if invoice.DeviationStatus == finance.DeviationStatusBlocked {
		// an override on a blocked invoice stays visible in the ledger
		status = automation.ExecutionStatusWarning
	}
	s.ledger.Record(ctx, automation.RuleSupplierApproval, "supplier_invoice", invoice.ID.String(),
		status,
		ledgerPayload(map[string]any{
			"supplier": invoice.SupplierName,
			"amount":   invoice.Amount.String(),
			"force":    force,
		}),
		ledgerPayload(map[string]string{
			"decision":      "approved",
			"approved_by":   approverID.String(),
			"deviation":     string(invoice.DeviationStatus),
			"deviation_pct": invoice.DeviationPct.String(),
		}))

	s.logger.Info("supplier invoice approved",
		zap.String("supplier", invoice.SupplierName),
		zap.String("deviation", string(invoice.DeviationStatus)),
		zap.Bool("force", force))

	return invoice, nil
}

// Reject declines a pending supplier invoice
func (s *SupplierApprovalService) Reject(ctx context.Context, id, approverID uuid.UUID) (*finance.SupplierInvoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := invoice.Reject(); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save rejected supplier invoice: %w", err)
	}

	s.ledger.Record(ctx, automation.RuleSupplierApproval, "supplier_invoice", invoice.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{
			"supplier": invoice.SupplierName,
			"amount":   invoice.Amount.String(),
		}),
		ledgerPayload(map[string]string{
			"decision":    "rejected",
			"rejected_by": approverID.String(),
		}))

	s.logger.Info("supplier invoice rejected",
		zap.String("supplier", invoice.SupplierName))

	return invoice, nil
}
