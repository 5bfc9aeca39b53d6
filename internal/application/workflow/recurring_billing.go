package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
)

// BillingRunSummary is the outcome of one daily billing pass
type BillingRunSummary struct {
	Processed int `json:"processed"`
	Invoiced  int `json:"invoiced"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// RecurringBillingService runs the daily pass over due subscriptions.
// Items are processed sequentially because document numbering counts
// existing rows; per-item failures are counted and the batch continues.
type RecurringBillingService struct {
	subscriptions billing.SubscriptionRepository
	invoices      billing.InvoiceRepository
	numbers       *billing.NumberGenerator
	ledger        *automation.Ledger
	bus           shared.EventBus
	renderer      InvoiceRenderer
	logger        *zap.Logger
	dueDays       int
	now           func() time.Time
}

// RecurringBillingConfig holds the service dependencies
type RecurringBillingConfig struct {
	Subscriptions billing.SubscriptionRepository
	Invoices      billing.InvoiceRepository
	Numbers       *billing.NumberGenerator
	Ledger        *automation.Ledger
	Bus           shared.EventBus
	Renderer      InvoiceRenderer
	Logger        *zap.Logger
	DueDays       int
}

// NewRecurringBillingService creates a RecurringBillingService
func NewRecurringBillingService(cfg RecurringBillingConfig) *RecurringBillingService {
	dueDays := cfg.DueDays
	if dueDays <= 0 {
		dueDays = 30
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurringBillingService{
		subscriptions: cfg.Subscriptions,
		invoices:      cfg.Invoices,
		numbers:       cfg.Numbers,
		ledger:        cfg.Ledger,
		bus:           cfg.Bus,
		renderer:      cfg.Renderer,
		logger:        logger,
		dueDays:       dueDays,
		now:           time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *RecurringBillingService) WithClock(now func() time.Time) *RecurringBillingService {
	s.now = now
	return s
}

// RunDailyPass bills every active subscription whose next billing date has
// arrived. A subscription already billed today (per the ledger) is
// skipped, so rerunning the pass is safe.
func (s *RecurringBillingService) RunDailyPass(ctx context.Context) (BillingRunSummary, error) {
	now := s.now()
	var summary BillingRunSummary

	due, err := s.subscriptions.FindDue(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("find due subscriptions: %w", err)
	}

	for _, sub := range due {
		summary.Processed++

		ran, err := s.ledger.HasRun(ctx, automation.RuleSubscriptionBilled, sub.ID.String())
		if err != nil {
			s.logger.Error("ledger lookup failed, skipping subscription",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			summary.Errors++
			continue
		}
		if ran {
			summary.Skipped++
			continue
		}

		if err := s.billSubscription(ctx, sub, now); err != nil {
			s.logger.Error("subscription billing failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("name", sub.Name),
				zap.Error(err))
			s.ledger.Record(ctx, automation.RuleSubscriptionBilled, "subscription", sub.ID.String(),
				automation.ExecutionStatusFailed, "{}", err.Error())
			summary.Errors++
			continue
		}
		summary.Invoiced++
	}

	_ = s.bus.Publish(ctx, billing.NewBillingRunCompletedEvent(
		uuid.New(), summary.Processed, summary.Invoiced, summary.Skipped, summary.Errors))

	s.logger.Info("recurring billing pass completed",
		zap.Int("processed", summary.Processed),
		zap.Int("invoiced", summary.Invoiced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

func (s *RecurringBillingService) billSubscription(ctx context.Context, sub *billing.Subscription, now time.Time) error {
	number, err := s.numbers.Next(ctx, billing.InvoiceNumberPrefix, now)
	if err != nil {
		return fmt.Errorf("invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(
		number,
		sub.CompanyID,
		billing.InvoiceTypeRecurring,
		sub.Amount,
		billing.DefaultVATRate,
		sub.Currency,
		now.AddDate(0, 0, s.dueDays),
	)
	if err != nil {
		return err
	}
	invoice.LinkSubscription(sub.ID)

	if err := s.invoices.Save(ctx, invoice); err != nil {
		return fmt.Errorf("save recurring invoice: %w", err)
	}

	if err := sub.RecordInvoiced(invoice.ID, invoice.Number); err != nil {
		return err
	}
	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return fmt.Errorf("save advanced subscription: %w", err)
	}

	if s.renderer != nil {
		if err := s.renderer.Render(ctx, invoice); err != nil {
			s.logger.Warn("recurring invoice rendering failed",
				zap.String("number", invoice.Number),
				zap.Error(err))
		}
	}

	s.ledger.Record(ctx, automation.RuleSubscriptionBilled, "subscription", sub.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{"subscription": sub.Name}),
		ledgerPayload(map[string]string{
			"invoice":         invoice.Number,
			"next_billing_at": sub.NextBillingAt.Format(time.RFC3339),
		}))

	publishEvents(ctx, s.bus, invoice, sub)
	return nil
}
