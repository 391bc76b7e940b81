package contahub

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRawNotFound = errors.New("raw payload not found")

// RawRepository persists captured report payloads.
type RawRepository struct {
	db *gorm.DB
}

func NewRawRepository(db *gorm.DB) *RawRepository {
	return &RawRepository{db: db}
}

func (r *RawRepository) Get(ctx context.Context, id uint) (*RawPayload, error) {
	var payload RawPayload
	err := r.db.WithContext(ctx).First(&payload, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRawNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateIfAbsent inserts a payload unless one already exists for the same
// establishment, report type and date. Returns false when the existing row
// won.
func (r *RawRepository) CreateIfAbsent(ctx context.Context, payload *RawPayload) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "bar_id"},
			{Name: "data_type"},
			{Name: "data_date"},
		},
		DoNothing: true,
	}).Create(payload)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RawRepository) Exists(ctx context.Context, barID int, dataType, dataDate string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RawPayload{}).
		Where("bar_id = ? AND data_type = ? AND data_date = ?", barID, dataType, dataDate).
		Count(&count).Error
	return count > 0, err
}

// MarkProcessed flips the processed flag. Called exactly once per payload,
// after the load loop completes, regardless of partial chunk failures.
func (r *RawRepository) MarkProcessed(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&RawPayload{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": now,
		}).Error
}
