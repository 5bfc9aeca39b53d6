package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/crm"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/support"
)

// ProjectModel is the persistence model for project.Project
type ProjectModel struct {
	AggregateModel
	Name        string     `gorm:"size:200;not null"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	QuoteID     *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"size:20;not null;index"`
	StartedAt   time.Time  `gorm:"not null"`
	CompletedAt *time.Time
}

// TableName returns the table name
func (ProjectModel) TableName() string { return "projects" }

// ToDomain converts the model to a domain project
func (m *ProjectModel) ToDomain() *project.Project {
	return &project.Project{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		CompanyID:         m.CompanyID,
		QuoteID:           m.QuoteID,
		Status:            project.ProjectStatus(m.Status),
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}
}

// ProjectModelFromDomain converts a domain project to its model
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Name:        p.Name,
		CompanyID:   p.CompanyID,
		QuoteID:     p.QuoteID,
		Status:      string(p.Status),
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// DeliverableModel is the persistence model for project.Deliverable
type DeliverableModel struct {
	AggregateModel
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"size:200;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Billable  bool            `gorm:"not null"`
	Status    string          `gorm:"size:20;not null;index"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name
func (DeliverableModel) TableName() string { return "deliverables" }

// ToDomain converts the model to a domain deliverable
func (m *DeliverableModel) ToDomain() *project.Deliverable {
	return &project.Deliverable{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProjectID:         m.ProjectID,
		Name:              m.Name,
		Amount:            m.Amount,
		Billable:          m.Billable,
		Status:            project.DeliverableStatus(m.Status),
		InvoiceID:         m.InvoiceID,
	}
}

// DeliverableModelFromDomain converts a domain deliverable to its model
func DeliverableModelFromDomain(d *project.Deliverable) *DeliverableModel {
	m := &DeliverableModel{
		ProjectID: d.ProjectID,
		Name:      d.Name,
		Amount:    d.Amount,
		Billable:  d.Billable,
		Status:    string(d.Status),
		InvoiceID: d.InvoiceID,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// TicketModel is the persistence model for support.Ticket
type TicketModel struct {
	AggregateModel
	Subject        string          `gorm:"size:300;not null"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status         string          `gorm:"size:20;not null;index"`
	Billable       bool            `gorm:"not null"`
	HoursLogged    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	HourlyRate     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SubscriptionID *uuid.UUID      `gorm:"type:uuid"`
	InvoiceID      *uuid.UUID      `gorm:"type:uuid"`
	ClosedAt       *time.Time
}

// TableName returns the table name
func (TicketModel) TableName() string { return "tickets" }

// ToDomain converts the model to a domain ticket
func (m *TicketModel) ToDomain() *support.Ticket {
	return &support.Ticket{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Subject:           m.Subject,
		CompanyID:         m.CompanyID,
		Status:            support.TicketStatus(m.Status),
		Billable:          m.Billable,
		HoursLogged:       m.HoursLogged,
		HourlyRate:        m.HourlyRate,
		SubscriptionID:    m.SubscriptionID,
		InvoiceID:         m.InvoiceID,
		ClosedAt:          m.ClosedAt,
	}
}

// TicketModelFromDomain converts a domain ticket to its model
func TicketModelFromDomain(t *support.Ticket) *TicketModel {
	m := &TicketModel{
		Subject:        t.Subject,
		CompanyID:      t.CompanyID,
		Status:         string(t.Status),
		Billable:       t.Billable,
		HoursLogged:    t.HoursLogged,
		HourlyRate:     t.HourlyRate,
		SubscriptionID: t.SubscriptionID,
		InvoiceID:      t.InvoiceID,
		ClosedAt:       t.ClosedAt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// LeadModel is the persistence model for crm.Lead
type LeadModel struct {
	AggregateModel
	Name        string  `gorm:"size:200;not null"`
	Email       string  `gorm:"size:200;not null;index"`
	CompanyName string  `gorm:"size:200"`
	Message     string  `gorm:"type:text"`
	Status      string  `gorm:"size:20;not null;index"`
	Tier        *string `gorm:"size:10"`
	Score       *int
}

// TableName returns the table name
func (LeadModel) TableName() string { return "leads" }

// ToDomain converts the model to a domain lead
func (m *LeadModel) ToDomain() *crm.Lead {
	lead := &crm.Lead{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		CompanyName:       m.CompanyName,
		Message:           m.Message,
		Status:            crm.LeadStatus(m.Status),
		Score:             m.Score,
	}
	if m.Tier != nil {
		tier := crm.LeadTier(*m.Tier)
		lead.Tier = &tier
	}
	return lead
}

// LeadModelFromDomain converts a domain lead to its model
func LeadModelFromDomain(l *crm.Lead) *LeadModel {
	m := &LeadModel{
		Name:        l.Name,
		Email:       l.Email,
		CompanyName: l.CompanyName,
		Message:     l.Message,
		Status:      string(l.Status),
		Score:       l.Score,
	}
	if l.Tier != nil {
		tier := string(*l.Tier)
		m.Tier = &tier
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// ExecutionModel is the persistence model for automation.ExecutionEntry
type ExecutionModel struct {
	BaseModel
	RuleName   string    `gorm:"size:100;not null;index:idx_executions_rule_entity"`
	EntityType string    `gorm:"size:50;not null"`
	EntityID   string    `gorm:"size:100;not null;index:idx_executions_rule_entity"`
	Status     string    `gorm:"size:10;not null;index"`
	Input      string    `gorm:"type:text"`
	Output     string    `gorm:"type:text"`
	ExecutedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name
func (ExecutionModel) TableName() string { return "automation_executions" }

// ToDomain converts the model to a domain ledger entry
func (m *ExecutionModel) ToDomain() *automation.ExecutionEntry {
	return &automation.ExecutionEntry{
		BaseEntity: m.BaseModel.ToDomain(),
		RuleName:   m.RuleName,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Status:     automation.ExecutionStatus(m.Status),
		Input:      m.Input,
		Output:     m.Output,
		ExecutedAt: m.ExecutedAt,
	}
}

// ExecutionModelFromDomain converts a domain entry to its model
func ExecutionModelFromDomain(e *automation.ExecutionEntry) *ExecutionModel {
	m := &ExecutionModel{
		RuleName:   e.RuleName,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Status:     string(e.Status),
		Input:      e.Input,
		Output:     e.Output,
		ExecutedAt: e.ExecutedAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// SettingModel is a key-value row for persisted configuration overrides,
// including alert thresholds.
type SettingModel struct {
	BaseModel
	Key   string `gorm:"size:100;not null;uniqueIndex"`
	Value string `gorm:"type:text;not null"`
}

// TableName returns the table name
func (SettingModel) TableName() string { return "settings" }
