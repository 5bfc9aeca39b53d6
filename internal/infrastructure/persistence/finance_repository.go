package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save inserts or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *finance.Payment) error {
	return r.db.WithContext(ctx).Save(models.PaymentModelFromDomain(payment)).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionID finds a payment by its provider transaction ID
func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SumDebitsSince returns the total of outgoing payments received on or
// after the given time.
func (r *GormPaymentRepository) SumDebitsSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("direction = ? AND received_at >= ?", string(finance.PaymentDirectionDebit), since).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// List returns payments matching the filter
func (r *GormPaymentRepository) List(ctx context.Context, filter shared.Filter) ([]*finance.Payment, error) {
	var rows []models.PaymentModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]*finance.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

// GormSupplierInvoiceRepository implements finance.SupplierInvoiceRepository using GORM
type GormSupplierInvoiceRepository struct {
	db *gorm.DB
}

// NewGormSupplierInvoiceRepository creates a new GormSupplierInvoiceRepository
func NewGormSupplierInvoiceRepository(db *gorm.DB) *GormSupplierInvoiceRepository {
	return &GormSupplierInvoiceRepository{db: db}
}

// Save inserts or updates a supplier invoice
func (r *GormSupplierInvoiceRepository) Save(ctx context.Context, invoice *finance.SupplierInvoice) error {
	return r.db.WithContext(ctx).Save(models.SupplierInvoiceModelFromDomain(invoice)).Error
}

// FindByID finds a supplier invoice by its ID
func (r *GormSupplierInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.SupplierInvoice, error) {
	var model models.SupplierInvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindApprovedScheduledWithin returns approved supplier invoices whose
// payment is scheduled on or before the horizon.
func (r *GormSupplierInvoiceRepository) FindApprovedScheduledWithin(ctx context.Context, horizon time.Time) ([]*finance.SupplierInvoice, error) {
	var rows []models.SupplierInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND payment_scheduled_date IS NOT NULL AND payment_scheduled_date <= ?",
			string(finance.SupplierInvoiceStatusApproved), horizon).
		Order("payment_scheduled_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]*finance.SupplierInvoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// List returns supplier invoices matching the filter
func (r *GormSupplierInvoiceRepository) List(ctx context.Context, filter shared.Filter) ([]*finance.SupplierInvoice, error) {
	var rows []models.SupplierInvoiceModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]*finance.SupplierInvoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// GormBalanceSnapshotRepository implements finance.BalanceSnapshotRepository using GORM
type GormBalanceSnapshotRepository struct {
	db *gorm.DB
}

// NewGormBalanceSnapshotRepository creates a new GormBalanceSnapshotRepository
func NewGormBalanceSnapshotRepository(db *gorm.DB) *GormBalanceSnapshotRepository {
	return &GormBalanceSnapshotRepository{db: db}
}

// Save inserts or updates a balance snapshot
func (r *GormBalanceSnapshotRepository) Save(ctx context.Context, snapshot *finance.BalanceSnapshot) error {
	return r.db.WithContext(ctx).Save(models.BalanceSnapshotModelFromDomain(snapshot)).Error
}

// Latest returns the most recent balance snapshot
func (r *GormBalanceSnapshotRepository) Latest(ctx context.Context) (*finance.BalanceSnapshot, error) {
	var model models.BalanceSnapshotModel
	if err := r.db.WithContext(ctx).Order("snapshot_at desc").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ finance.PaymentRepository         = (*GormPaymentRepository)(nil)
	_ finance.SupplierInvoiceRepository = (*GormSupplierInvoiceRepository)(nil)
	_ finance.BalanceSnapshotRepository = (*GormBalanceSnapshotRepository)(nil)
)
