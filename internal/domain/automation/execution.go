package automation

import (
	"context"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExecutionStatus is the outcome of one automation run
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
	ExecutionStatusWarning ExecutionStatus = "warning"
	ExecutionStatusPartial ExecutionStatus = "partial"
	ExecutionStatusSkipped ExecutionStatus = "skipped"
)

// IsValid checks if the status is a valid ExecutionStatus
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusWarning,
		ExecutionStatusPartial, ExecutionStatusSkipped:
		return true
	}
	return false
}

// Rule names of the built-in automations, used as ledger keys
const (
	RuleQuoteSigned        = "quote_signed"
	RulePaymentReceived    = "payment_received"
	RuleSubscriptionBilled = "subscription_billed"
	RuleMonthlyReport      = "monthly_report"
	RuleLeadQualification  = "lead_qualification"
	RuleTicketClosed       = "ticket_closed"
	RuleMilestoneInvoiced  = "milestone_invoiced"
	RuleCreditIssued       = "credit_issued"
	RuleSupplierApproval   = "supplier_approval"
)

// ExecutionEntry is one append-only record in the automation ledger. It is
// never mutated after creation; the (rule, entity, day) triple is the
// idempotency key that suppresses duplicate financial effects.
type ExecutionEntry struct {
	shared.BaseEntity
	RuleName   string          `json:"rule_name"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Status     ExecutionStatus `json:"status"`
	Input      string          `json:"input,omitempty"`
	Output     string          `json:"output,omitempty"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewExecutionEntry creates a ledger entry
func NewExecutionEntry(ruleName, entityType, entityID string, status ExecutionStatus, input, output string) (*ExecutionEntry, error) {
	if ruleName == "" {
		return nil, shared.NewDomainError("INVALID_RULE", "Rule name cannot be empty")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown execution status: "+string(status))
	}
	return &ExecutionEntry{
		BaseEntity: shared.NewBaseEntity(),
		RuleName:   ruleName,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     status,
		Input:      input,
		Output:     output,
		ExecutedAt: time.Now(),
	}, nil
}

// ExecutionRepository persists ledger entries
type ExecutionRepository interface {
	Append(ctx context.Context, entry *ExecutionEntry) error
	// ExistsInWindow reports whether the rule already ran for the entity
	// between from (inclusive) and to (exclusive).
	ExistsInWindow(ctx context.Context, ruleName, entityID string, from, to time.Time) (bool, error)
	List(ctx context.Context, filter shared.Filter) ([]*ExecutionEntry, error)
	// Search narrows the listing to one rule and/or status; empty values
	// leave the dimension unconstrained.
	Search(ctx context.Context, ruleName string, status ExecutionStatus, filter shared.Filter) ([]*ExecutionEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ExecutionEntry, error)
}
