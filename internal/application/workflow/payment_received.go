package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

// dedupTTL is how long a provider transaction id stays in the fast-path
// duplicate store.
const dedupTTL = 24 * time.Hour

// PaymentNotification is a verified bank payment notification
type PaymentNotification struct {
	TransactionID string                   `json:"transaction_id"`
	Amount        decimal.Decimal          `json:"amount"`
	Currency      valueobject.Currency     `json:"currency"`
	Direction     finance.PaymentDirection `json:"direction"`
	Reference     string                   `json:"reference"`
	ReceivedAt    time.Time                `json:"received_at"`
}

// PaymentResult reports what the workflow did with the notification
type PaymentResult struct {
	AlreadyProcessed bool             `json:"already_processed"`
	Matched          bool             `json:"matched"`
	Payment          *finance.Payment `json:"payment,omitempty"`
	Invoice          *billing.Invoice `json:"invoice,omitempty"`
}

// PaymentReceivedService matches incoming payments to open invoices and
// drives the deposit-to-project and final-invoice side flows.
type PaymentReceivedService struct {
	payments finance.PaymentRepository
	invoices billing.InvoiceRepository
	quotes   billing.QuoteRepository
	projects project.ProjectRepository
	matcher  *finance.PaymentMatcher
	dedup    shared.IdempotencyStore
	ledger   *automation.Ledger
	bus      shared.EventBus
	logger   *zap.Logger
	now      func() time.Time
}

// PaymentReceivedConfig holds the service dependencies
type PaymentReceivedConfig struct {
	Payments finance.PaymentRepository
	Invoices billing.InvoiceRepository
	Quotes   billing.QuoteRepository
	Projects project.ProjectRepository
	Matcher  *finance.PaymentMatcher
	Dedup    shared.IdempotencyStore
	Ledger   *automation.Ledger
	Bus      shared.EventBus
	Logger   *zap.Logger
}

// NewPaymentReceivedService creates a PaymentReceivedService
func NewPaymentReceivedService(cfg PaymentReceivedConfig) *PaymentReceivedService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = finance.NewPaymentMatcher(cfg.Invoices)
	}
	return &PaymentReceivedService{
		payments: cfg.Payments,
		invoices: cfg.Invoices,
		quotes:   cfg.Quotes,
		projects: cfg.Projects,
		matcher:  matcher,
		dedup:    cfg.Dedup,
		ledger:   cfg.Ledger,
		bus:      cfg.Bus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *PaymentReceivedService) WithClock(now func() time.Time) *PaymentReceivedService {
	s.now = now
	return s
}

// Process handles a verified payment notification. The transaction id is
// the dedup key: a replay returns the already-processed result without
// touching any record. Outgoing transfers are recorded and skipped.
func (s *PaymentReceivedService) Process(ctx context.Context, n PaymentNotification) (*PaymentResult, error) {
	if s.alreadySeen(ctx, n.TransactionID) {
		return &PaymentResult{AlreadyProcessed: true}, nil
	}

	existing, err := s.payments.FindByTransactionID(ctx, n.TransactionID)
	if err == nil {
		s.logger.Info("payment already recorded, treating notification as replay",
			zap.String("transaction_id", n.TransactionID))
		return &PaymentResult{AlreadyProcessed: true, Payment: existing}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("payment dedup lookup: %w", err)
	}

	receivedAt := n.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	payment, err := finance.NewPayment(n.TransactionID, n.Amount, n.Currency, n.Direction, n.Reference, receivedAt)
	if err != nil {
		return nil, err
	}

	if !payment.IsIncoming() {
		if err := s.payments.Save(ctx, payment); err != nil {
			return nil, fmt.Errorf("save outgoing payment: %w", err)
		}
		s.ledger.Record(ctx, automation.RulePaymentReceived, "payment", n.TransactionID,
			automation.ExecutionStatusSkipped, ledgerPayload(n),
			`{"reason":"outgoing transfer"}`)
		s.markSeen(ctx, n.TransactionID)
		return &PaymentResult{Payment: payment}, nil
	}

	invoice, err := s.matcher.Match(ctx, finance.MatchCandidate{
		Reference: n.Reference,
		Amount:    n.Amount,
		Currency:  payment.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("payment matching: %w", err)
	}

	if invoice == nil {
		payment.MarkUnmatched()
		if err := s.payments.Save(ctx, payment); err != nil {
			return nil, fmt.Errorf("save unmatched payment: %w", err)
		}
		s.ledger.Record(ctx, automation.RulePaymentReceived, "payment", n.TransactionID,
			automation.ExecutionStatusWarning, ledgerPayload(n),
			`{"reason":"no unambiguous invoice match"}`)
		s.markSeen(ctx, n.TransactionID)
		publishEvents(ctx, s.bus, payment)
		s.logger.Warn("payment left unmatched",
			zap.String("transaction_id", n.TransactionID),
			zap.String("reference", n.Reference))
		return &PaymentResult{Payment: payment}, nil
	}

	if err := invoice.MarkPaid(receivedAt); err != nil {
		s.ledger.Record(ctx, automation.RulePaymentReceived, "payment", n.TransactionID,
			automation.ExecutionStatusFailed, ledgerPayload(n), err.Error())
		return nil, err
	}
	invoice.AddDomainEvent(billing.NewInvoicePaidEvent(invoice, payment.ID, n.TransactionID))
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save paid invoice: %w", err)
	}

	if err := payment.MarkMatched(invoice.ID); err != nil {
		return nil, err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("save matched payment: %w", err)
	}

	status := automation.ExecutionStatusSuccess
	if err := s.settleSideEffects(ctx, invoice); err != nil {
		// the payment itself is settled; the follow-up is retried manually
		s.logger.Warn("post-payment side flow failed",
			zap.String("invoice_number", invoice.Number),
			zap.Error(err))
		status = automation.ExecutionStatusPartial
	}

	s.ledger.Record(ctx, automation.RulePaymentReceived, "payment", n.TransactionID,
		status, ledgerPayload(n),
		ledgerPayload(map[string]string{"invoice": invoice.Number}))
	s.markSeen(ctx, n.TransactionID)
	publishEvents(ctx, s.bus, invoice, payment)

	s.logger.Info("payment matched",
		zap.String("transaction_id", n.TransactionID),
		zap.String("invoice_number", invoice.Number),
		zap.String("amount", n.Amount.String()))

	return &PaymentResult{Matched: true, Payment: payment, Invoice: invoice}, nil
}

// settleSideEffects runs the lifecycle transitions a settled invoice
// triggers: a paid deposit activates the project and converts the quote,
// a paid final invoice completes the project.
func (s *PaymentReceivedService) settleSideEffects(ctx context.Context, invoice *billing.Invoice) error {
	now := s.now()

	switch invoice.Type {
	case billing.InvoiceTypeDeposit:
		if invoice.QuoteID == nil {
			return nil
		}
		quote, err := s.quotes.FindByID(ctx, *invoice.QuoteID)
		if err != nil {
			return fmt.Errorf("load quote for deposit: %w", err)
		}
		if quote.Status != billing.QuoteStatusSigned {
			return nil
		}
		proj, err := project.NewProject("Project "+quote.Number, quote.CompanyID, &quote.ID, now)
		if err != nil {
			return err
		}
		if err := s.projects.Save(ctx, proj); err != nil {
			return fmt.Errorf("save project: %w", err)
		}
		if err := quote.Convert(proj.ID); err != nil {
			return err
		}
		if err := s.quotes.Save(ctx, quote); err != nil {
			return fmt.Errorf("save converted quote: %w", err)
		}
		s.logger.Info("deposit paid, project activated",
			zap.String("quote_number", quote.Number),
			zap.String("project_id", proj.ID.String()))

	case billing.InvoiceTypeFinal:
		if invoice.ProjectID == nil {
			return nil
		}
		proj, err := s.projects.FindByID(ctx, *invoice.ProjectID)
		if err != nil {
			return fmt.Errorf("load project for final invoice: %w", err)
		}
		if proj.Status == project.ProjectStatusCompleted {
			return nil
		}
		if err := proj.Complete(now); err != nil {
			return err
		}
		if err := s.projects.Save(ctx, proj); err != nil {
			return fmt.Errorf("save completed project: %w", err)
		}
		s.logger.Info("final invoice paid, project completed",
			zap.String("project_id", proj.ID.String()))
	}

	return nil
}

// alreadySeen checks the fast-path duplicate store. Store failures never
// block processing; the durable transaction-id lookup still guards.
func (s *PaymentReceivedService) alreadySeen(ctx context.Context, transactionID string) bool {
	if s.dedup == nil {
		return false
	}
	seen, err := s.dedup.IsProcessed(ctx, transactionID)
	if err != nil {
		s.logger.Warn("dedup store lookup failed", zap.Error(err))
		return false
	}
	return seen
}

func (s *PaymentReceivedService) markSeen(ctx context.Context, transactionID string) {
	if s.dedup == nil {
		return
	}
	if _, err := s.dedup.MarkProcessed(ctx, transactionID, dedupTTL); err != nil {
		s.logger.Warn("dedup store mark failed", zap.Error(err))
	}
}
