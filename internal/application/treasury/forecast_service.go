// Package treasury projects the cash position over the standard 30/60/90
// day horizons and produces the monthly treasury report.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/shared"
)

// forecastHorizons are the projection windows in days
var forecastHorizons = [3]int{30, 60, 90}

// trailingDebitWindow is how far back the burn rate looks
const trailingDebitWindow = 90 * 24 * time.Hour

// ForecastService computes the treasury forecast from the latest balance
// snapshot, open receivables, upcoming subscription renewals and approved
// supplier payments.
type ForecastService struct {
	snapshots     finance.BalanceSnapshotRepository
	payments      finance.PaymentRepository
	invoices      billing.InvoiceRepository
	subscriptions billing.SubscriptionRepository
	suppliers     finance.SupplierInvoiceRepository
	logger        *zap.Logger
	now           func() time.Time
}

// ForecastConfig holds the service dependencies
type ForecastConfig struct {
	Snapshots     finance.BalanceSnapshotRepository
	Payments      finance.PaymentRepository
	Invoices      billing.InvoiceRepository
	Subscriptions billing.SubscriptionRepository
	Suppliers     finance.SupplierInvoiceRepository
	Logger        *zap.Logger
}

// NewForecastService creates a ForecastService
func NewForecastService(cfg ForecastConfig) *ForecastService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastService{
		snapshots:     cfg.Snapshots,
		payments:      cfg.Payments,
		invoices:      cfg.Invoices,
		subscriptions: cfg.Subscriptions,
		suppliers:     cfg.Suppliers,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *ForecastService) WithClock(now func() time.Time) *ForecastService {
	s.now = now
	return s
}

// Forecast builds the 30/60/90 day cash projection. An unavailable
// balance snapshot, whether missing or unreadable, degrades to a zero
// balance with a warning rather than failing the whole forecast.
func (s *ForecastService) Forecast(ctx context.Context) (*finance.Forecast, error) {
	now := s.now()

	balance := decimal.Zero
	snapshot, err := s.snapshots.Latest(ctx)
	switch {
	case err == nil:
		balance = snapshot.Balance
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("no balance snapshot recorded, forecasting from zero balance")
	default:
		s.logger.Warn("balance snapshot lookup failed, forecasting from zero balance",
			zap.Error(err))
	}

	trailingDebits, err := s.payments.SumDebitsSince(ctx, now.Add(-trailingDebitWindow))
	if err != nil {
		return nil, fmt.Errorf("trailing debit sum: %w", err)
	}
	burn := finance.MonthlyBurnRate(trailingDebits)

	forecast := &finance.Forecast{
		CurrentBalance:  balance,
		BurnRateMonthly: burn,
		RunwayMonths:    finance.Runway(balance, burn),
		GeneratedAt:     now,
	}

	projections := [3]*finance.HorizonProjection{
		&forecast.Horizon30, &forecast.Horizon60, &forecast.Horizon90,
	}
	for i, days := range forecastHorizons {
		p, err := s.projectHorizon(ctx, now, days, balance, burn)
		if err != nil {
			return nil, err
		}
		*projections[i] = p
	}

	return forecast, nil
}

func (s *ForecastService) projectHorizon(ctx context.Context, now time.Time, days int, balance, burn decimal.Decimal) (finance.HorizonProjection, error) {
	horizon := now.AddDate(0, 0, days)

	inflow := decimal.Zero
	open, err := s.invoices.FindOpenDueWithin(ctx, horizon)
	if err != nil {
		return finance.HorizonProjection{}, fmt.Errorf("open invoices within %d days: %w", days, err)
	}
	for _, inv := range open {
		inflow = inflow.Add(inv.Total)
	}

	renewals, err := s.subscriptionInflow(ctx, horizon)
	if err != nil {
		return finance.HorizonProjection{}, err
	}
	inflow = inflow.Add(renewals)

	outflow := finance.ProratedBurn(burn, days)
	scheduled, err := s.suppliers.FindApprovedScheduledWithin(ctx, horizon)
	if err != nil {
		return finance.HorizonProjection{}, fmt.Errorf("scheduled supplier payments within %d days: %w", days, err)
	}
	for _, si := range scheduled {
		outflow = outflow.Add(si.Total)
	}

	return finance.HorizonProjection{
		Days:             days,
		ExpectedInflow:   inflow,
		ExpectedOutflow:  outflow,
		ProjectedBalance: balance.Add(inflow).Sub(outflow),
	}, nil
}

// subscriptionInflow sums the tax-inclusive renewals subscriptions will
// generate up to the horizon. A short cycle can renew more than once
// within a long horizon.
func (s *ForecastService) subscriptionInflow(ctx context.Context, horizon time.Time) (decimal.Decimal, error) {
	subs, err := s.subscriptions.FindDue(ctx, horizon)
	if err != nil {
		return decimal.Zero, fmt.Errorf("subscriptions renewing before horizon: %w", err)
	}

	total := decimal.Zero
	for _, sub := range subs {
		breakdown, err := billing.ComputeTax(sub.Amount, billing.DefaultVATRate)
		if err != nil {
			return decimal.Zero, fmt.Errorf("subscription %s tax: %w", sub.Name, err)
		}
		for next := sub.NextBillingAt; !next.After(horizon); next = next.AddDate(0, sub.Cycle.Months(), 0) {
			total = total.Add(breakdown.Total)
		}
	}
	return total, nil
}
