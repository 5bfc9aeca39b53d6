package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
)

// Signature event types accepted from the e-signature provider. Anything
// else is acknowledged and skipped so the provider stops retrying.
const (
	SignatureEventCompleted = "document.completed"
	SignatureEventSigned    = "document.signed"
)

// SignatureEvent is a verified e-signature notification
type SignatureEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	QuoteNumber string    `json:"quote_number"`
	SignedAt    time.Time `json:"signed_at"`
}

// SignatureResult reports what the workflow did with the event
type SignatureResult struct {
	Skipped          bool             `json:"skipped"`
	AlreadyProcessed bool             `json:"already_processed"`
	Quote            *billing.Quote   `json:"quote,omitempty"`
	DepositInvoice   *billing.Invoice `json:"deposit_invoice,omitempty"`
}

// QuoteSignedService issues the deposit invoice when a quote is signed
type QuoteSignedService struct {
	quotes         billing.QuoteRepository
	invoices       billing.InvoiceRepository
	numbers        *billing.NumberGenerator
	ledger         *automation.Ledger
	bus            shared.EventBus
	renderer       InvoiceRenderer
	logger         *zap.Logger
	depositPercent decimal.Decimal
	depositDueDays int
	now            func() time.Time
}

// QuoteSignedConfig holds the service dependencies
type QuoteSignedConfig struct {
	Quotes         billing.QuoteRepository
	Invoices       billing.InvoiceRepository
	Numbers        *billing.NumberGenerator
	Ledger         *automation.Ledger
	Bus            shared.EventBus
	Renderer       InvoiceRenderer
	Logger         *zap.Logger
	DepositPercent int
	DepositDueDays int
}

// NewQuoteSignedService creates a QuoteSignedService
func NewQuoteSignedService(cfg QuoteSignedConfig) *QuoteSignedService {
	depositPercent := cfg.DepositPercent
	if depositPercent <= 0 || depositPercent > 100 {
		depositPercent = 30
	}
	depositDueDays := cfg.DepositDueDays
	if depositDueDays <= 0 {
		depositDueDays = 15
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteSignedService{
		quotes:         cfg.Quotes,
		invoices:       cfg.Invoices,
		numbers:        cfg.Numbers,
		ledger:         cfg.Ledger,
		bus:            cfg.Bus,
		renderer:       cfg.Renderer,
		logger:         logger,
		depositPercent: decimal.NewFromInt(int64(depositPercent)),
		depositDueDays: depositDueDays,
		now:            time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *QuoteSignedService) WithClock(now func() time.Time) *QuoteSignedService {
	s.now = now
	return s
}

// DepositAmount returns the deposit share of a pre-tax quote amount,
// rounded to cents.
func (s *QuoteSignedService) DepositAmount(amountPreTax decimal.Decimal) decimal.Decimal {
	return amountPreTax.Mul(s.depositPercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Process handles a verified signature event. A replayed event for an
// already signed quote is a no-op acknowledged as already processed; the
// deposit invoice link is never overwritten.
func (s *QuoteSignedService) Process(ctx context.Context, event SignatureEvent) (*SignatureResult, error) {
	if event.EventType != SignatureEventCompleted && event.EventType != SignatureEventSigned {
		s.logger.Info("ignoring signature event type",
			zap.String("event_type", event.EventType),
			zap.String("event_id", event.EventID))
		return &SignatureResult{Skipped: true}, nil
	}

	quote, err := s.quotes.FindByNumber(ctx, event.QuoteNumber)
	if err != nil {
		return nil, err
	}

	if quote.IsSigned() {
		s.logger.Info("quote already signed, treating event as replay",
			zap.String("quote_number", quote.Number))
		return &SignatureResult{AlreadyProcessed: true, Quote: quote}, nil
	}

	ran, err := s.ledger.HasRun(ctx, automation.RuleQuoteSigned, quote.ID.String())
	if err != nil {
		return nil, fmt.Errorf("ledger lookup for quote %s: %w", quote.Number, err)
	}
	if ran {
		return &SignatureResult{AlreadyProcessed: true, Quote: quote}, nil
	}

	now := s.now()
	signedAt := event.SignedAt
	if signedAt.IsZero() {
		signedAt = now
	}

	number, err := s.numbers.Next(ctx, billing.InvoiceNumberPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("deposit invoice number: %w", err)
	}

	deposit := s.DepositAmount(quote.AmountPreTax)
	invoice, err := billing.NewInvoice(
		number,
		quote.CompanyID,
		billing.InvoiceTypeDeposit,
		deposit,
		billing.DefaultVATRate,
		quote.Currency,
		now.AddDate(0, 0, s.depositDueDays),
	)
	if err != nil {
		return nil, err
	}
	invoice.LinkQuote(quote.ID)

	if err := s.invoices.Save(ctx, invoice); err != nil {
		s.ledger.Record(ctx, automation.RuleQuoteSigned, "quote", quote.ID.String(),
			automation.ExecutionStatusFailed, ledgerPayload(event), err.Error())
		return nil, fmt.Errorf("save deposit invoice: %w", err)
	}

	// the deposit invoice is already persisted past this point, so any
	// failure is ledgered as failed for replay
	if err := quote.Sign(invoice.ID, signedAt); err != nil {
		s.ledger.Record(ctx, automation.RuleQuoteSigned, "quote", quote.ID.String(),
			automation.ExecutionStatusFailed, ledgerPayload(event), err.Error())
		return nil, err
	}
	if err := s.quotes.Save(ctx, quote); err != nil {
		s.ledger.Record(ctx, automation.RuleQuoteSigned, "quote", quote.ID.String(),
			automation.ExecutionStatusFailed, ledgerPayload(event), err.Error())
		return nil, fmt.Errorf("save signed quote: %w", err)
	}

	if s.renderer != nil {
		if err := s.renderer.Render(ctx, invoice); err != nil {
			s.logger.Warn("deposit invoice rendering failed",
				zap.String("number", invoice.Number),
				zap.Error(err))
		}
	}

	s.ledger.Record(ctx, automation.RuleQuoteSigned, "quote", quote.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(event),
		ledgerPayload(map[string]string{
			"deposit_invoice": invoice.Number,
			"deposit_amount":  deposit.String(),
		}))

	publishEvents(ctx, s.bus, invoice)

	s.logger.Info("quote signed, deposit invoice issued",
		zap.String("quote_number", quote.Number),
		zap.String("invoice_number", invoice.Number),
		zap.String("deposit_amount", deposit.String()))

	return &SignatureResult{Quote: quote, DepositInvoice: invoice}, nil
}
