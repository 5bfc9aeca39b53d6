package project

import (
	"context"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
)

// Project is created when the deposit payment for a signed quote arrives
// and completed when the final invoice is paid.
type Project struct {
	shared.BaseAggregateRoot
	Name        string        `json:"name"`
	CompanyID   uuid.UUID     `json:"company_id"`
	QuoteID     *uuid.UUID    `json:"quote_id,omitempty"`
	Status      ProjectStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewProject creates an active project
func NewProject(name string, companyID uuid.UUID, quoteID *uuid.UUID, startedAt time.Time) (*Project, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CompanyID:         companyID,
		QuoteID:           quoteID,
		Status:            ProjectStatusActive,
		StartedAt:         startedAt,
	}, nil
}

// Complete marks the project finished
func (p *Project) Complete(at time.Time) error {
	if p.Status == ProjectStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Project is already completed")
	}
	p.Status = ProjectStatusCompleted
	p.CompletedAt = &at
	return nil
}

// DeliverableStatus represents the lifecycle status of a deliverable
type DeliverableStatus string

const (
	DeliverableStatusPlanned    DeliverableStatus = "planned"
	DeliverableStatusInProgress DeliverableStatus = "in_progress"
	DeliverableStatusCompleted  DeliverableStatus = "completed"
	DeliverableStatusInvoiced   DeliverableStatus = "invoiced"
)

// Deliverable is a billable milestone within a project
type Deliverable struct {
	shared.BaseAggregateRoot
	ProjectID uuid.UUID         `json:"project_id"`
	Name      string            `json:"name"`
	Amount    decimal.Decimal   `json:"amount"`
	Billable  bool              `json:"billable"`
	Status    DeliverableStatus `json:"status"`
	InvoiceID *uuid.UUID        `json:"invoice_id,omitempty"`
}

// NewDeliverable creates a planned deliverable
func NewDeliverable(projectID uuid.UUID, name string, amount decimal.Decimal, billable bool) (*Deliverable, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Deliverable name cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deliverable amount cannot be negative")
	}
	return &Deliverable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		Name:              name,
		Amount:            amount,
		Billable:          billable,
		Status:            DeliverableStatusPlanned,
	}, nil
}

// Start moves a planned deliverable into progress
func (d *Deliverable) Start() error {
	if d.Status != DeliverableStatusPlanned {
		return shared.NewDomainError("INVALID_STATE", "Only planned deliverables can be started")
	}
	d.Status = DeliverableStatusInProgress
	return nil
}

// Complete marks the deliverable done and ready for billing
func (d *Deliverable) Complete() error {
	if d.Status == DeliverableStatusInvoiced || d.Status == DeliverableStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Deliverable is already completed")
	}
	d.Status = DeliverableStatusCompleted
	return nil
}

// MarkInvoiced links the invoice issued for this deliverable. It requires
// the deliverable to be completed, billable, and not yet invoiced. Only
// the duplicate-invoice case is a conflict; a deliverable that is not
// ready to bill is a validation failure.
func (d *Deliverable) MarkInvoiced(invoiceID uuid.UUID) error {
	if d.InvoiceID != nil || d.Status == DeliverableStatusInvoiced {
		return shared.ErrAlreadyInvoiced
	}
	if !d.Billable {
		return shared.NewDomainError("VALIDATION", "Deliverable is not billable")
	}
	if d.Status != DeliverableStatusCompleted {
		return shared.NewDomainError("VALIDATION", "Only completed deliverables can be invoiced")
	}
	d.Status = DeliverableStatusInvoiced
	d.InvoiceID = &invoiceID
	return nil
}

// ProjectRepository persists projects
type ProjectRepository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*Project, error)
	List(ctx context.Context, filter shared.Filter) ([]*Project, error)
}

// DeliverableRepository persists deliverables
type DeliverableRepository interface {
	Save(ctx context.Context, deliverable *Deliverable) error
	FindByID(ctx context.Context, id uuid.UUID) (*Deliverable, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*Deliverable, error)
}
