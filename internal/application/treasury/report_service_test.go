package treasury

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
)

type stubNotifier struct {
	reports []*MonthlyReport
	err     error
}

func (n *stubNotifier) SendTreasuryReport(ctx context.Context, report *MonthlyReport) error {
	if n.err != nil {
		return n.err
	}
	n.reports = append(n.reports, report)
	return nil
}

type stubThresholds struct {
	thresholds map[string]automation.Threshold
	err        error
}

func (s *stubThresholds) Thresholds(ctx context.Context) (map[string]automation.Threshold, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.thresholds, nil
}

type reportFixture struct {
	forecast   *forecastFixture
	svc        *ReportService
	notifier   *stubNotifier
	executions *fakeExecRepo
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		forecast: newForecastFixture(t),
		notifier: &stubNotifier{},
	}
	f.executions = &fakeExecRepo{}
	ledger := automation.NewLedger(f.executions, zap.NewNop())
	f.svc = NewReportService(ReportConfig{
		Forecasts:  f.forecast.svc,
		Ledger:     ledger,
		Notifier:   f.notifier,
		Thresholds: &stubThresholds{thresholds: automation.DefaultThresholds()},
		Logger:     zap.NewNop(),
	})
	f.svc.WithClock(func() time.Time { return f.forecast.now })
	return f
}

func TestReportRunNotifiesAndRecords(t *testing.T) {
	f := newReportFixture(t)
	f.forecast.setBalance(60000)
	f.forecast.addDebit(t, 30000, 45)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "2025-01", report.Period)
	assert.True(t, report.Forecast.RunwayMonths.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, automation.ThresholdLevelOK, report.RunwayLevel)

	require.Len(t, f.notifier.reports, 1)
	require.Len(t, f.executions.entries, 1)
	entry := f.executions.entries[0]
	assert.Equal(t, automation.RuleMonthlyReport, entry.RuleName)
	assert.Equal(t, "2025-01", entry.EntityID)
	assert.Equal(t, automation.ExecutionStatusSuccess, entry.Status)
}

func TestReportRepeatedRunIsNoOp(t *testing.T) {
	f := newReportFixture(t)
	f.forecast.setBalance(60000)

	first, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Len(t, f.notifier.reports, 1)
	assert.Len(t, f.executions.entries, 1)
}

func TestReportNotifierFailureIsPartial(t *testing.T) {
	f := newReportFixture(t)
	f.forecast.setBalance(60000)
	f.notifier.err = errors.New("smtp unavailable")

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusPartial, f.executions.entries[0].Status)
}

func TestReportRunwayBelowThresholdWarns(t *testing.T) {
	f := newReportFixture(t)
	// 10000 balance against a 2500 monthly burn is four months of runway,
	// inside the warning band of the default threshold
	f.forecast.setBalance(10000)
	f.forecast.addDebit(t, 7500, 30)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, report.Forecast.RunwayMonths.Equal(decimal.NewFromInt(4)), "got %s", report.Forecast.RunwayMonths)
	assert.Equal(t, automation.ThresholdLevelWarning, report.RunwayLevel)

	require.Len(t, f.executions.entries, 1)
	assert.Equal(t, automation.ExecutionStatusWarning, f.executions.entries[0].Status)
}

func TestReportCriticalRunway(t *testing.T) {
	f := newReportFixture(t)
	f.forecast.setBalance(5000)
	f.forecast.addDebit(t, 7500, 30)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, automation.ThresholdLevelCritical, report.RunwayLevel)
}

func TestReportThresholdLookupFailureStaysOK(t *testing.T) {
	f := newReportFixture(t)
	f.forecast.setBalance(5000)
	f.forecast.addDebit(t, 7500, 30)
	f.svc.thresholds = &stubThresholds{err: errors.New("settings store down")}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, automation.ThresholdLevelOK, report.RunwayLevel)
}
