package repositories

import (
	"context"
	"errors"

	"jewelstock/models"

	"gorm.io/gorm"
)

// ErrEmptyPayload is returned when a caller tries to persist an empty
// threshold document. The backend rejects empty nested payloads, so the
// guard sits here instead of failing server-side.
var ErrEmptyPayload = errors.New("refusing to save empty threshold payload")

type ThresholdRepository struct {
	db *gorm.DB
}

func NewThresholdRepository(db *gorm.DB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

// LoadAll returns every category document as categoryKey -> raw JSON
// payload.
func (r *ThresholdRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	var docs []models.ThresholdDoc
	if err := r.db.WithContext(ctx).Find(&docs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.CategoryKey] = d.Payload
	}
	return out, nil
}

// SaveCategory writes the whole document of one category.
func (r *ThresholdRepository) SaveCategory(ctx context.Context, categoryKey, payload string) error {
	if payload == "" || payload == "{}" || payload == "null" {
		return ErrEmptyPayload
	}

	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.ThresholdDoc{}).Where("category_key = ?", categoryKey).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return db.Model(&models.ThresholdDoc{}).Where("category_key = ?", categoryKey).
			Update("payload", payload).Error
	}
	return db.Create(&models.ThresholdDoc{CategoryKey: categoryKey, Payload: payload}).Error
}

// DeleteCategory removes the document entirely. Used when cascade
// cleanup empties a category.
func (r *ThresholdRepository) DeleteCategory(ctx context.Context, categoryKey string) error {
	return r.db.WithContext(ctx).Where("category_key = ?", categoryKey).
		Delete(&models.ThresholdDoc{}).Error
}

// WeightModeRepository persists the write-once schema decision per
// (category, item).
type WeightModeRepository struct {
	db *gorm.DB
}

func NewWeightModeRepository(db *gorm.DB) *WeightModeRepository {
	return &WeightModeRepository{db: db}
}

func (r *WeightModeRepository) LoadModes(ctx context.Context) ([]models.WeightMode, error) {
	var modes []models.WeightMode
	if err := r.db.WithContext(ctx).Find(&modes).Error; err != nil {
		return nil, err
	}
	return modes, nil
}

// SaveMode inserts the mode row. The setter in the service layer checks
// the lock first; the unique index backs it up against races.
func (r *WeightModeRepository) SaveMode(ctx context.Context, categoryKey, itemKey, mode string) error {
	return r.db.WithContext(ctx).Create(&models.WeightMode{
		CategoryKey: categoryKey,
		ItemKey:     itemKey,
		Mode:        mode,
	}).Error
}
