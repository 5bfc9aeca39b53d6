package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

// PaymentModel is the persistence model for finance.Payment
type PaymentModel struct {
	AggregateModel
	TransactionID    string          `gorm:"size:100;not null;uniqueIndex"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency         string          `gorm:"size:3;not null"`
	Direction        string          `gorm:"size:10;not null;index"`
	Reference        string          `gorm:"size:500"`
	Status           string          `gorm:"size:10;not null;index"`
	MatchedInvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	ReceivedAt       time.Time       `gorm:"not null;index"`
}

// TableName returns the table name
func (PaymentModel) TableName() string { return "payments" }

// ToDomain converts the model to a domain payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TransactionID:     m.TransactionID,
		Amount:            m.Amount,
		Currency:          valueobject.Currency(m.Currency),
		Direction:         finance.PaymentDirection(m.Direction),
		Reference:         m.Reference,
		Status:            finance.PaymentStatus(m.Status),
		MatchedInvoiceID:  m.MatchedInvoiceID,
		ReceivedAt:        m.ReceivedAt,
	}
}

// PaymentModelFromDomain converts a domain payment to its model
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		TransactionID:    p.TransactionID,
		Amount:           p.Amount,
		Currency:         string(p.Currency),
		Direction:        string(p.Direction),
		Reference:        p.Reference,
		Status:           string(p.Status),
		MatchedInvoiceID: p.MatchedInvoiceID,
		ReceivedAt:       p.ReceivedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// SupplierInvoiceModel is the persistence model for finance.SupplierInvoice
type SupplierInvoiceModel struct {
	AggregateModel
	SupplierName         string           `gorm:"size:200;not null"`
	Reference            string           `gorm:"size:100"`
	Amount               decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Total                decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Currency             string           `gorm:"size:3;not null"`
	QuoteAmount          *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Status               string           `gorm:"size:10;not null;index"`
	DeviationStatus      string           `gorm:"size:10;not null"`
	DeviationPct         decimal.Decimal  `gorm:"type:decimal(8,4);not null"`
	ApprovedBy           *uuid.UUID       `gorm:"type:uuid"`
	ApprovedAt           *time.Time
	PaymentScheduledDate *time.Time `gorm:"index"`
}

// TableName returns the table name
func (SupplierInvoiceModel) TableName() string { return "supplier_invoices" }

// ToDomain converts the model to a domain supplier invoice
func (m *SupplierInvoiceModel) ToDomain() *finance.SupplierInvoice {
	return &finance.SupplierInvoice{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		SupplierName:         m.SupplierName,
		Reference:            m.Reference,
		Amount:               m.Amount,
		Total:                m.Total,
		Currency:             valueobject.Currency(m.Currency),
		QuoteAmount:          m.QuoteAmount,
		Status:               finance.SupplierInvoiceStatus(m.Status),
		DeviationStatus:      finance.DeviationStatus(m.DeviationStatus),
		DeviationPct:         m.DeviationPct,
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt,
		PaymentScheduledDate: m.PaymentScheduledDate,
	}
}

// SupplierInvoiceModelFromDomain converts a domain supplier invoice to its model
func SupplierInvoiceModelFromDomain(s *finance.SupplierInvoice) *SupplierInvoiceModel {
	m := &SupplierInvoiceModel{
		SupplierName:         s.SupplierName,
		Reference:            s.Reference,
		Amount:               s.Amount,
		Total:                s.Total,
		Currency:             string(s.Currency),
		QuoteAmount:          s.QuoteAmount,
		Status:               string(s.Status),
		DeviationStatus:      string(s.DeviationStatus),
		DeviationPct:         s.DeviationPct,
		ApprovedBy:           s.ApprovedBy,
		ApprovedAt:           s.ApprovedAt,
		PaymentScheduledDate: s.PaymentScheduledDate,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// BalanceSnapshotModel is the persistence model for finance.BalanceSnapshot
type BalanceSnapshotModel struct {
	BaseModel
	Balance    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency   string          `gorm:"size:3;not null"`
	SnapshotAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name
func (BalanceSnapshotModel) TableName() string { return "balance_snapshots" }

// ToDomain converts the model to a domain snapshot
func (m *BalanceSnapshotModel) ToDomain() *finance.BalanceSnapshot {
	return &finance.BalanceSnapshot{
		BaseEntity: m.BaseModel.ToDomain(),
		Balance:    m.Balance,
		Currency:   valueobject.Currency(m.Currency),
		SnapshotAt: m.SnapshotAt,
	}
}

// BalanceSnapshotModelFromDomain converts a domain snapshot to its model
func BalanceSnapshotModelFromDomain(s *finance.BalanceSnapshot) *BalanceSnapshotModel {
	m := &BalanceSnapshotModel{
		Balance:    s.Balance,
		Currency:   string(s.Currency),
		SnapshotAt: s.SnapshotAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
