package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/crm"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/support"
	"github.com/finflow/backend/internal/infrastructure/persistence/models"
)

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Save inserts or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Save(models.ProjectModelFromDomain(p)).Error
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByQuoteID finds the project created from a quote
func (r *GormProjectRepository) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns projects matching the filter
func (r *GormProjectRepository) List(ctx context.Context, filter shared.Filter) ([]*project.Project, error) {
	var rows []models.ProjectModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	projects := make([]*project.Project, len(rows))
	for i := range rows {
		projects[i] = rows[i].ToDomain()
	}
	return projects, nil
}

// GormDeliverableRepository implements project.DeliverableRepository using GORM
type GormDeliverableRepository struct {
	db *gorm.DB
}

// NewGormDeliverableRepository creates a new GormDeliverableRepository
func NewGormDeliverableRepository(db *gorm.DB) *GormDeliverableRepository {
	return &GormDeliverableRepository{db: db}
}

// Save inserts or updates a deliverable
func (r *GormDeliverableRepository) Save(ctx context.Context, d *project.Deliverable) error {
	return r.db.WithContext(ctx).Save(models.DeliverableModelFromDomain(d)).Error
}

// FindByID finds a deliverable by its ID
func (r *GormDeliverableRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Deliverable, error) {
	var model models.DeliverableModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProjectID returns a project's deliverables
func (r *GormDeliverableRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*project.Deliverable, error) {
	var rows []models.DeliverableModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	deliverables := make([]*project.Deliverable, len(rows))
	for i := range rows {
		deliverables[i] = rows[i].ToDomain()
	}
	return deliverables, nil
}

// GormTicketRepository implements support.TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Save inserts or updates a ticket
func (r *GormTicketRepository) Save(ctx context.Context, t *support.Ticket) error {
	return r.db.WithContext(ctx).Save(models.TicketModelFromDomain(t)).Error
}

// FindByID finds a ticket by its ID
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	var model models.TicketModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns tickets matching the filter
func (r *GormTicketRepository) List(ctx context.Context, filter shared.Filter) ([]*support.Ticket, error) {
	var rows []models.TicketModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	tickets := make([]*support.Ticket, len(rows))
	for i := range rows {
		tickets[i] = rows[i].ToDomain()
	}
	return tickets, nil
}

// GormLeadRepository implements crm.LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// Save inserts or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, l *crm.Lead) error {
	return r.db.WithContext(ctx).Save(models.LeadModelFromDomain(l)).Error
}

// FindByID finds a lead by its ID
func (r *GormLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Lead, error) {
	var model models.LeadModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns leads matching the filter
func (r *GormLeadRepository) List(ctx context.Context, filter shared.Filter) ([]*crm.Lead, error) {
	var rows []models.LeadModel
	if err := applyFilter(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	leads := make([]*crm.Lead, len(rows))
	for i := range rows {
		leads[i] = rows[i].ToDomain()
	}
	return leads, nil
}

// GormExecutionRepository implements automation.ExecutionRepository using GORM.
// The table is append-only; entries are never updated or deleted.
type GormExecutionRepository struct {
	db *gorm.DB
}

// NewGormExecutionRepository creates a new GormExecutionRepository
func NewGormExecutionRepository(db *gorm.DB) *GormExecutionRepository {
	return &GormExecutionRepository{db: db}
}

// Append writes a new ledger entry
func (r *GormExecutionRepository) Append(ctx context.Context, entry *automation.ExecutionEntry) error {
	return r.db.WithContext(ctx).Create(models.ExecutionModelFromDomain(entry)).Error
}

// ExistsInWindow reports whether the rule already ran for the entity in
// [from, to).
func (r *GormExecutionRepository) ExistsInWindow(ctx context.Context, ruleName, entityID string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExecutionModel{}).
		Where("rule_name = ? AND entity_id = ? AND executed_at >= ? AND executed_at < ?",
			ruleName, entityID, from, to).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns ledger entries matching the filter, newest first by default
func (r *GormExecutionRepository) List(ctx context.Context, filter shared.Filter) ([]*automation.ExecutionEntry, error) {
	return r.Search(ctx, "", "", filter)
}

// Search returns ledger entries for an optional rule name and status.
// Empty values leave the dimension unconstrained.
func (r *GormExecutionRepository) Search(ctx context.Context, ruleName string, status automation.ExecutionStatus, filter shared.Filter) ([]*automation.ExecutionEntry, error) {
	if filter.SortBy == "" {
		filter.SortBy = "executed_at"
		filter.SortDir = shared.SortDesc
	}
	db := applyFilter(r.db.WithContext(ctx), filter.Normalize())
	if ruleName != "" {
		db = db.Where("rule_name = ?", ruleName)
	}
	if status != "" {
		db = db.Where("status = ?", string(status))
	}
	var rows []models.ExecutionModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*automation.ExecutionEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// FindByID finds a ledger entry by its ID
func (r *GormExecutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*automation.ExecutionEntry, error) {
	var model models.ExecutionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ project.ProjectRepository      = (*GormProjectRepository)(nil)
	_ project.DeliverableRepository  = (*GormDeliverableRepository)(nil)
	_ support.TicketRepository       = (*GormTicketRepository)(nil)
	_ crm.LeadRepository             = (*GormLeadRepository)(nil)
	_ automation.ExecutionRepository = (*GormExecutionRepository)(nil)
)
