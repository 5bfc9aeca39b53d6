package automation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/shared"
)

// Ledger is the idempotency and audit surface over the execution log.
// HasRun answers "did this rule already fire for this entity today";
// Record appends an entry and never fails the caller, because a logging
// failure must not roll back a financial mutation that already committed.
type Ledger struct {
	executions ExecutionRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewLedger creates a Ledger over the execution repository
func NewLedger(executions ExecutionRepository, logger *zap.Logger) *Ledger {
	return &Ledger{
		executions: executions,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// HasRun reports whether the rule already ran for the entity within the
// calendar day containing now.
func (l *Ledger) HasRun(ctx context.Context, ruleName, entityID string) (bool, error) {
	now := l.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)
	return l.executions.ExistsInWindow(ctx, ruleName, entityID, from, to)
}

// Record appends an execution entry. Persistence errors are warned and
// swallowed.
func (l *Ledger) Record(ctx context.Context, ruleName, entityType, entityID string, status ExecutionStatus, input, output string) {
	entry, err := NewExecutionEntry(ruleName, entityType, entityID, status, input, output)
	if err != nil {
		l.logger.Warn("invalid automation ledger entry",
			zap.String("rule", ruleName),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return
	}
	if err := l.executions.Append(ctx, entry); err != nil {
		l.logger.Warn("failed to append automation ledger entry",
			zap.String("rule", ruleName),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// History lists recent executions for the observability endpoint,
// optionally narrowed to one rule and/or status.
func (l *Ledger) History(ctx context.Context, ruleName string, status ExecutionStatus, filter shared.Filter) ([]*ExecutionEntry, error) {
	return l.executions.Search(ctx, ruleName, status, filter.Normalize())
}
