package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/infrastructure/persistence/models"
)

// thresholdSettingKey is the settings row holding alert threshold overrides
const thresholdSettingKey = "alert_thresholds"

// GormSettingRepository stores key-value configuration overrides
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// Get returns the value stored under a key
func (r *GormSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var model models.SettingModel
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return model.Value, nil
}

// Set upserts the value stored under a key
func (r *GormSettingRepository) Set(ctx context.Context, key, value string) error {
	model := models.SettingModel{Key: key, Value: value}
	model.ID = shared.NewBaseEntity().ID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
}

// Thresholds returns the default alert thresholds merged with any
// persisted overrides.
func (r *GormSettingRepository) Thresholds(ctx context.Context) (map[string]automation.Threshold, error) {
	raw, err := r.Get(ctx, thresholdSettingKey)
	if errors.Is(err, shared.ErrNotFound) {
		return automation.DefaultThresholds(), nil
	}
	if err != nil {
		return nil, err
	}
	var overrides map[string]automation.Threshold
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("decode threshold overrides: %w", err)
	}
	return automation.MergeThresholds(overrides), nil
}

// SaveThresholds persists threshold overrides
func (r *GormSettingRepository) SaveThresholds(ctx context.Context, overrides map[string]automation.Threshold) error {
	raw, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode threshold overrides: %w", err)
	}
	return r.Set(ctx, thresholdSettingKey, string(raw))
}
