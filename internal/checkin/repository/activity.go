package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// GormActivityRepository reads the activity log. Entries are written only
// through a ledger transaction.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates an activity repository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// List returns the newest entries of an event first
func (r *GormActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	q := r.db.WithContext(ctx).Where("event_id = ?", filter.EventID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var entries []domain.ActivityLogEntry
	err := q.Order("timestamp DESC").Order("id DESC").Find(&entries).Error
	return entries, err
}
