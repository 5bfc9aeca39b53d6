package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

// QuoteModel is the persistence model for billing.Quote
type QuoteModel struct {
	AggregateModel
	Number           string          `gorm:"size:50;not null;uniqueIndex"`
	ContactID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompanyID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountPreTax     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency         string          `gorm:"size:3;not null"`
	Status           string          `gorm:"size:20;not null;index"`
	DepositInvoiceID *uuid.UUID      `gorm:"type:uuid"`
	ProjectID        *uuid.UUID      `gorm:"type:uuid"`
	SignedAt         *time.Time
}

// TableName returns the table name
func (QuoteModel) TableName() string { return "quotes" }

// ToDomain converts the model to a domain quote
func (m *QuoteModel) ToDomain() *billing.Quote {
	return &billing.Quote{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		ContactID:         m.ContactID,
		CompanyID:         m.CompanyID,
		AmountPreTax:      m.AmountPreTax,
		Currency:          valueobject.Currency(m.Currency),
		Status:            billing.QuoteStatus(m.Status),
		DepositInvoiceID:  m.DepositInvoiceID,
		ProjectID:         m.ProjectID,
		SignedAt:          m.SignedAt,
	}
}

// QuoteModelFromDomain converts a domain quote to its persistence model
func QuoteModelFromDomain(q *billing.Quote) *QuoteModel {
	m := &QuoteModel{
		Number:           q.Number,
		ContactID:        q.ContactID,
		CompanyID:        q.CompanyID,
		AmountPreTax:     q.AmountPreTax,
		Currency:         string(q.Currency),
		Status:           string(q.Status),
		DepositInvoiceID: q.DepositInvoiceID,
		ProjectID:        q.ProjectID,
		SignedAt:         q.SignedAt,
	}
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for billing.Invoice
type InvoiceModel struct {
	AggregateModel
	Number         string          `gorm:"size:50;not null;uniqueIndex"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"size:30;not null;index"`
	Status         string          `gorm:"size:20;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency       string          `gorm:"size:3;not null;index"`
	DueDate        time.Time       `gorm:"not null;index"`
	QuoteID        *uuid.UUID      `gorm:"type:uuid;index"`
	SubscriptionID *uuid.UUID      `gorm:"type:uuid;index"`
	ProjectID      *uuid.UUID      `gorm:"type:uuid;index"`
	CreditID       *uuid.UUID      `gorm:"type:uuid"`
	PaidAt         *time.Time
}

// TableName returns the table name
func (InvoiceModel) TableName() string { return "invoices" }

// ToDomain converts the model to a domain invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		CompanyID:         m.CompanyID,
		Type:              billing.InvoiceType(m.Type),
		Status:            billing.InvoiceStatus(m.Status),
		Amount:            m.Amount,
		TaxRate:           m.TaxRate,
		TaxAmount:         m.TaxAmount,
		Total:             m.Total,
		Currency:          valueobject.Currency(m.Currency),
		DueDate:           m.DueDate,
		QuoteID:           m.QuoteID,
		SubscriptionID:    m.SubscriptionID,
		ProjectID:         m.ProjectID,
		CreditID:          m.CreditID,
		PaidAt:            m.PaidAt,
	}
}

// InvoiceModelFromDomain converts a domain invoice to its persistence model
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:         i.Number,
		CompanyID:      i.CompanyID,
		Type:           string(i.Type),
		Status:         string(i.Status),
		Amount:         i.Amount,
		TaxRate:        i.TaxRate,
		TaxAmount:      i.TaxAmount,
		Total:          i.Total,
		Currency:       string(i.Currency),
		DueDate:        i.DueDate,
		QuoteID:        i.QuoteID,
		SubscriptionID: i.SubscriptionID,
		ProjectID:      i.ProjectID,
		CreditID:       i.CreditID,
		PaidAt:         i.PaidAt,
	}
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	return m
}

// CreditNoteModel is the persistence model for billing.CreditNote
type CreditNoteModel struct {
	AggregateModel
	Number             string          `gorm:"size:50;not null;uniqueIndex"`
	InvoiceID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind               string          `gorm:"size:10;not null"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency           string          `gorm:"size:3;not null"`
	Status             string          `gorm:"size:10;not null;index"`
	AppliedToInvoiceID *uuid.UUID      `gorm:"type:uuid"`
	AppliedAt          *time.Time
}

// TableName returns the table name
func (CreditNoteModel) TableName() string { return "credit_notes" }

// ToDomain converts the model to a domain credit note
func (m *CreditNoteModel) ToDomain() *billing.CreditNote {
	return &billing.CreditNote{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Number:             m.Number,
		InvoiceID:          m.InvoiceID,
		Kind:               billing.CreditKind(m.Kind),
		Amount:             m.Amount,
		TaxRate:            m.TaxRate,
		TaxAmount:          m.TaxAmount,
		Total:              m.Total,
		Currency:           valueobject.Currency(m.Currency),
		Status:             billing.CreditStatus(m.Status),
		AppliedToInvoiceID: m.AppliedToInvoiceID,
		AppliedAt:          m.AppliedAt,
	}
}

// CreditNoteModelFromDomain converts a domain credit note to its model
func CreditNoteModelFromDomain(c *billing.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{
		Number:             c.Number,
		InvoiceID:          c.InvoiceID,
		Kind:               string(c.Kind),
		Amount:             c.Amount,
		TaxRate:            c.TaxRate,
		TaxAmount:          c.TaxAmount,
		Total:              c.Total,
		Currency:           string(c.Currency),
		Status:             string(c.Status),
		AppliedToInvoiceID: c.AppliedToInvoiceID,
		AppliedAt:          c.AppliedAt,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// SubscriptionModel is the persistence model for billing.Subscription
type SubscriptionModel struct {
	AggregateModel
	Name          string          `gorm:"size:200;not null"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency      string          `gorm:"size:3;not null"`
	Cycle         string          `gorm:"size:10;not null"`
	Status        string          `gorm:"size:10;not null;index"`
	StartDate     time.Time       `gorm:"not null"`
	NextBillingAt time.Time       `gorm:"not null;index"`
	LastInvoiceID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name
func (SubscriptionModel) TableName() string { return "subscriptions" }

// ToDomain converts the model to a domain subscription
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	return &billing.Subscription{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		CompanyID:         m.CompanyID,
		Amount:            m.Amount,
		Currency:          valueobject.Currency(m.Currency),
		Cycle:             billing.BillingCycle(m.Cycle),
		Status:            billing.SubscriptionStatus(m.Status),
		StartDate:         m.StartDate,
		NextBillingAt:     m.NextBillingAt,
		LastInvoiceID:     m.LastInvoiceID,
	}
}

// SubscriptionModelFromDomain converts a domain subscription to its model
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{
		Name:          s.Name,
		CompanyID:     s.CompanyID,
		Amount:        s.Amount,
		Currency:      string(s.Currency),
		Cycle:         string(s.Cycle),
		Status:        string(s.Status),
		StartDate:     s.StartDate,
		NextBillingAt: s.NextBillingAt,
		LastInvoiceID: s.LastInvoiceID,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
