package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/finflow/backend/internal/infrastructure/persistence/models"
)

// applyFilter applies pagination and sorting to a query
func applyFilter(db *gorm.DB, filter shared.Filter) *gorm.DB {
	filter = filter.Normalize()
	if filter.SortBy != "" {
		db = db.Order(fmt.Sprintf("%s %s", filter.SortBy, filter.SortDir))
	}
	return db.Limit(filter.Limit).Offset(filter.Offset)
}

// GormQuoteRepository implements billing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// Save inserts or updates a quote
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	return r.db.WithContext(ctx).Save(models.QuoteModelFromDomain(quote)).Error
}

// FindByID finds a quote by its ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a quote by its document number
func (r *GormQuoteRepository) FindByNumber(ctx context.Context, number string) (*billing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns quotes matching the filter
func (r *GormQuoteRepository) List(ctx context.Context, filter shared.Filter) ([]*billing.Quote, error) {
	var rows []models.QuoteModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	quotes := make([]*billing.Quote, len(rows))
	for i := range rows {
		quotes[i] = rows[i].ToDomain()
	}
	return quotes, nil
}

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save inserts or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its document number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// openStatuses are the invoice statuses still awaiting payment
var openStatuses = []string{
	string(billing.InvoiceStatusSent),
	string(billing.InvoiceStatusPending),
	string(billing.InvoiceStatusOverdue),
}

// SearchByReference returns open invoices whose number appears in the text
func (r *GormInvoiceRepository) SearchByReference(ctx context.Context, reference string) ([]*billing.Invoice, error) {
	var rows []models.InvoiceModel
	// the reference contains the number, so match number as a substring
	// of the reference rather than the other way around
	if err := r.db.WithContext(ctx).
		Where("status IN ?", openStatuses).
		Where("? LIKE '%' || number || '%'", reference).
		Order("due_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// FindOpenByCurrency returns invoices awaiting payment in a currency
func (r *GormInvoiceRepository) FindOpenByCurrency(ctx context.Context, currency valueobject.Currency) ([]*billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND currency = ?", openStatuses, string(currency)).
		Order("due_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// FindOpenDueWithin returns open invoices due on or before the horizon
func (r *GormInvoiceRepository) FindOpenDueWithin(ctx context.Context, horizon time.Time) ([]*billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date <= ?", openStatuses, horizon).
		Order("due_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// FindByProjectAndType returns a project's invoices of a given type
func (r *GormInvoiceRepository) FindByProjectAndType(ctx context.Context, projectID uuid.UUID, invoiceType billing.InvoiceType) ([]*billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND type = ?", projectID, string(invoiceType)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// List returns invoices matching the filter
func (r *GormInvoiceRepository) List(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

func toDomainInvoices(rows []models.InvoiceModel) []*billing.Invoice {
	invoices := make([]*billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices
}

// GormCreditNoteRepository implements billing.CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// Save inserts or updates a credit note
func (r *GormCreditNoteRepository) Save(ctx context.Context, note *billing.CreditNote) error {
	return r.db.WithContext(ctx).Save(models.CreditNoteModelFromDomain(note)).Error
}

// FindByID finds a credit note by its ID
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CreditNote, error) {
	var model models.CreditNoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceID returns credit notes issued against an invoice
func (r *GormCreditNoteRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]*billing.CreditNote, error) {
	var rows []models.CreditNoteModel
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Find(&rows).Error; err != nil {
		return nil, err
	}
	notes := make([]*billing.CreditNote, len(rows))
	for i := range rows {
		notes[i] = rows[i].ToDomain()
	}
	return notes, nil
}

// GormSubscriptionRepository implements billing.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Save inserts or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *billing.Subscription) error {
	return r.db.WithContext(ctx).Save(models.SubscriptionModelFromDomain(sub)).Error
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue returns active subscriptions due on or before the given time
func (r *GormSubscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]*billing.Subscription, error) {
	var rows []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_billing_at <= ?", string(billing.SubscriptionStatusActive), now).
		Order("next_billing_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	subs := make([]*billing.Subscription, len(rows))
	for i := range rows {
		subs[i] = rows[i].ToDomain()
	}
	return subs, nil
}

// List returns subscriptions matching the filter
func (r *GormSubscriptionRepository) List(ctx context.Context, filter shared.Filter) ([]*billing.Subscription, error) {
	var rows []models.SubscriptionModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	subs := make([]*billing.Subscription, len(rows))
	for i := range rows {
		subs[i] = rows[i].ToDomain()
	}
	return subs, nil
}

// GormNumberSequencer implements billing.NumberSequencer with a count
// query over existing document numbers
type GormNumberSequencer struct {
	db *gorm.DB
}

// NewGormNumberSequencer creates a new GormNumberSequencer
func NewGormNumberSequencer(db *gorm.DB) *GormNumberSequencer {
	return &GormNumberSequencer{db: db}
}

// NextSequence returns the next counter value for a prefix in a period
func (s *GormNumberSequencer) NextSequence(ctx context.Context, prefix string, period time.Time) (int64, error) {
	pattern := fmt.Sprintf("%s-%s-%%", prefix, period.Format("200601"))

	table := "invoices"
	if prefix == billing.CreditNumberPrefix {
		table = "credit_notes"
	} else if prefix == billing.QuoteNumberPrefix {
		table = "quotes"
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Table(table).
		Where("number LIKE ?", pattern).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s numbers: %w", prefix, err)
	}
	return count + 1, nil
}

var (
	_ billing.QuoteRepository        = (*GormQuoteRepository)(nil)
	_ billing.InvoiceRepository      = (*GormInvoiceRepository)(nil)
	_ billing.CreditNoteRepository   = (*GormCreditNoteRepository)(nil)
	_ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
	_ billing.NumberSequencer        = (*GormNumberSequencer)(nil)
)
