package treasury

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/finance"
)

// ReportNotifier delivers a finished treasury report. Delivery is
// best-effort; the report run itself succeeds once the forecast is built.
type ReportNotifier interface {
	SendTreasuryReport(ctx context.Context, report *MonthlyReport) error
}

// ThresholdSource provides the current alert thresholds, defaults merged
// with any persisted overrides.
type ThresholdSource interface {
	Thresholds(ctx context.Context) (map[string]automation.Threshold, error)
}

// MonthlyReport is the aggregate treasury report sent on the first of
// each month.
type MonthlyReport struct {
	Period      string                    `json:"period"`
	Forecast    *finance.Forecast         `json:"forecast"`
	RunwayLevel automation.ThresholdLevel `json:"runway_level"`
}

// ReportService produces the monthly treasury report
type ReportService struct {
	forecasts  *ForecastService
	ledger     *automation.Ledger
	notifier   ReportNotifier
	thresholds ThresholdSource
	logger     *zap.Logger
	now        func() time.Time
}

// ReportConfig holds the service dependencies
type ReportConfig struct {
	Forecasts  *ForecastService
	Ledger     *automation.Ledger
	Notifier   ReportNotifier
	Thresholds ThresholdSource
	Logger     *zap.Logger
}

// NewReportService creates a ReportService
func NewReportService(cfg ReportConfig) *ReportService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		forecasts:  cfg.Forecasts,
		ledger:     cfg.Ledger,
		notifier:   cfg.Notifier,
		thresholds: cfg.Thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	if s.forecasts != nil {
		s.forecasts.WithClock(now)
	}
	return s
}

// Run builds and dispatches the treasury report for the current period.
// The period string is the ledger entity, so a rescheduled or manually
// repeated run within the same day is a no-op.
func (s *ReportService) Run(ctx context.Context) (*MonthlyReport, error) {
	period := s.now().Format("2006-01")

	ran, err := s.ledger.HasRun(ctx, automation.RuleMonthlyReport, period)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup for report %s: %w", period, err)
	}
	if ran {
		s.logger.Info("treasury report already sent today", zap.String("period", period))
		return nil, nil
	}

	forecast, err := s.forecasts.Forecast(ctx)
	if err != nil {
		s.ledger.Record(ctx, automation.RuleMonthlyReport, "report", period,
			automation.ExecutionStatusFailed, "{}", err.Error())
		return nil, fmt.Errorf("build treasury report %s: %w", period, err)
	}

	report := &MonthlyReport{
		Period:      period,
		Forecast:    forecast,
		RunwayLevel: automation.ThresholdLevelOK,
	}
	s.evaluateRunway(ctx, report)

	status := automation.ExecutionStatusSuccess
	if report.RunwayLevel != automation.ThresholdLevelOK {
		status = automation.ExecutionStatusWarning
	}
	if s.notifier != nil {
		if err := s.notifier.SendTreasuryReport(ctx, report); err != nil {
			s.logger.Warn("treasury report delivery failed",
				zap.String("period", period),
				zap.Error(err))
			status = automation.ExecutionStatusPartial
		}
	}

	output := fmt.Sprintf(`{"balance":%q,"runway_months":%q,"runway_level":%q}`,
		forecast.CurrentBalance.String(), forecast.RunwayMonths.String(), report.RunwayLevel)
	s.ledger.Record(ctx, automation.RuleMonthlyReport, "report", period, status, "{}", output)

	s.logger.Info("treasury report generated",
		zap.String("period", period),
		zap.String("balance", forecast.CurrentBalance.String()),
		zap.String("runway_months", forecast.RunwayMonths.String()),
		zap.String("runway_level", string(report.RunwayLevel)))

	return report, nil
}

// evaluateRunway grades the runway against the configured threshold. A
// threshold-source failure leaves the report at ok rather than failing
// the run.
func (s *ReportService) evaluateRunway(ctx context.Context, report *MonthlyReport) {
	if s.thresholds == nil {
		return
	}
	thresholds, err := s.thresholds.Thresholds(ctx)
	if err != nil {
		s.logger.Warn("loading alert thresholds failed", zap.Error(err))
		return
	}
	threshold, ok := thresholds[automation.MetricRunwayMonths]
	if !ok {
		return
	}
	report.RunwayLevel = threshold.Evaluate(report.Forecast.RunwayMonths)
	if report.RunwayLevel != automation.ThresholdLevelOK {
		s.logger.Warn("cash runway below threshold",
			zap.String("runway_months", report.Forecast.RunwayMonths.String()),
			zap.String("level", string(report.RunwayLevel)))
	}
}
