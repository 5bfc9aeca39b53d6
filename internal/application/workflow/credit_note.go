package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
)

// CreditNoteRequest describes a credit note to issue against an invoice.
// Amount is ignored for full credits, which always mirror the invoice.
type CreditNoteRequest struct {
	InvoiceID uuid.UUID          `json:"invoice_id"`
	Kind      billing.CreditKind `json:"kind"`
	Amount    decimal.Decimal    `json:"amount"`
}

// CreditNoteService issues and applies credit notes
type CreditNoteService struct {
	credits  billing.CreditNoteRepository
	invoices billing.InvoiceRepository
	numbers  *billing.NumberGenerator
	ledger   *automation.Ledger
	bus      shared.EventBus
	logger   *zap.Logger
	now      func() time.Time
}

// CreditNoteConfig holds the service dependencies
type CreditNoteConfig struct {
	Credits  billing.CreditNoteRepository
	Invoices billing.InvoiceRepository
	Numbers  *billing.NumberGenerator
	Ledger   *automation.Ledger
	Bus      shared.EventBus
	Logger   *zap.Logger
}

// NewCreditNoteService creates a CreditNoteService
func NewCreditNoteService(cfg CreditNoteConfig) *CreditNoteService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditNoteService{
		credits:  cfg.Credits,
		invoices: cfg.Invoices,
		numbers:  cfg.Numbers,
		ledger:   cfg.Ledger,
		bus:      cfg.Bus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *CreditNoteService) WithClock(now func() time.Time) *CreditNoteService {
	s.now = now
	return s
}

// Issue creates a credit note against the given invoice. A full credit
// cancels the invoice in the same operation; a partial credit stays in
// issued status until applied to another invoice.
func (s *CreditNoteService) Issue(ctx context.Context, req CreditNoteRequest) (*billing.CreditNote, error) {
	invoice, err := s.invoices.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if req.Kind == billing.CreditKindFull {
		amount = invoice.Amount
	}

	now := s.now()
	number, err := s.numbers.Next(ctx, billing.CreditNumberPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("credit note number: %w", err)
	}

	note, err := billing.NewCreditNote(number, invoice.ID, req.Kind, amount, invoice.TaxRate, invoice.Currency)
	if err != nil {
		return nil, err
	}

	// the cancellation must be valid before either record is persisted
	if req.Kind == billing.CreditKindFull {
		if err := invoice.CancelWithCredit(note.ID); err != nil {
			return nil, err
		}
	}

	if err := s.credits.Save(ctx, note); err != nil {
		s.ledger.Record(ctx, automation.RuleCreditIssued, "invoice", invoice.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"invoice": invoice.Number, "kind": string(req.Kind)}), err.Error())
		return nil, fmt.Errorf("save credit note: %w", err)
	}
	if req.Kind == billing.CreditKindFull {
		if err := s.invoices.Save(ctx, invoice); err != nil {
			s.ledger.Record(ctx, automation.RuleCreditIssued, "invoice", invoice.ID.String(),
				automation.ExecutionStatusFailed,
				ledgerPayload(map[string]string{"invoice": invoice.Number, "credit_note": note.Number}), err.Error())
			return nil, fmt.Errorf("save cancelled invoice: %w", err)
		}
	}

	s.ledger.Record(ctx, automation.RuleCreditIssued, "invoice", invoice.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{"invoice": invoice.Number, "kind": string(req.Kind)}),
		ledgerPayload(map[string]string{"credit_note": note.Number, "total": note.Total.String()}))

	publishEvents(ctx, s.bus, note, invoice)

	s.logger.Info("credit note issued",
		zap.String("credit_number", note.Number),
		zap.String("invoice_number", invoice.Number),
		zap.String("kind", string(req.Kind)))

	return note, nil
}

// Apply applies an issued partial credit note against a target invoice,
// reducing the target's amount, tax and total.
func (s *CreditNoteService) Apply(ctx context.Context, noteID, targetInvoiceID uuid.UUID) (*billing.CreditNote, error) {
	note, err := s.credits.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	target, err := s.invoices.FindByID(ctx, targetInvoiceID)
	if err != nil {
		return nil, err
	}

	if err := note.Apply(target.ID, s.now()); err != nil {
		return nil, err
	}
	if err := target.ApplyCredit(note.ID, note.Amount, note.TaxAmount, note.Total); err != nil {
		return nil, err
	}
	note.AddDomainEvent(billing.NewCreditNoteAppliedEvent(note, target.ID))

	if err := s.credits.Save(ctx, note); err != nil {
		s.ledger.Record(ctx, automation.RuleCreditIssued, "credit_note", note.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"credit_note": note.Number, "target": target.Number}), err.Error())
		return nil, fmt.Errorf("save applied credit note: %w", err)
	}
	if err := s.invoices.Save(ctx, target); err != nil {
		s.ledger.Record(ctx, automation.RuleCreditIssued, "credit_note", note.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"credit_note": note.Number, "target": target.Number}), err.Error())
		return nil, fmt.Errorf("save credited invoice: %w", err)
	}

	s.ledger.Record(ctx, automation.RuleCreditIssued, "credit_note", note.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{"credit_note": note.Number, "target": target.Number}),
		ledgerPayload(map[string]string{"total": note.Total.String()}))

	publishEvents(ctx, s.bus, note, target)

	s.logger.Info("credit note applied",
		zap.String("credit_number", note.Number),
		zap.String("target_invoice", target.Number),
		zap.String("total", note.Total.String()))

	return note, nil
}
