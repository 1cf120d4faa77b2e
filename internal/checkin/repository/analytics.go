package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// GormAnalyticsRepository reads analytics inputs with plain snapshot reads
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates an analytics repository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// Scope returns the event followed by its secondary events
func (r *GormAnalyticsRepository) Scope(ctx context.Context, eventID uint) ([]uint, error) {
	db := r.db.WithContext(ctx)

	var event domain.Event
	if err := db.Select("id").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrEventNotFound, eventID)
		}
		return nil, err
	}

	var secondary []uint
	err := db.Model(&domain.Event{}).
		Where("parent_event_id = ?", eventID).
		Order("id ASC").
		Pluck("id", &secondary).Error
	if err != nil {
		return nil, err
	}
	return append([]uint{eventID}, secondary...), nil
}

type allocationRow struct {
	EventID  uint
	GuestID  uint
	ItemID   uint
	Quantity int
	Category string
	Style    string
	Product  string
	Size     string
	Gender   string
	Color    string
}

// Load reads roster size, check-ins inside the window and active assignments
func (r *GormAnalyticsRepository) Load(ctx context.Context, scope []uint, filter domain.AnalyticsFilter) (*domain.AnalyticsDataset, error) {
	db := r.db.WithContext(ctx)
	ds := &domain.AnalyticsDataset{ScopeEventIDs: scope}
	if len(scope) == 0 {
		return ds, nil
	}

	var total int64
	err := db.Raw(`SELECT COUNT(*) FROM (
		SELECT id AS guest_id, event_id FROM guests WHERE event_id IN ?
		UNION
		SELECT guest_id, event_id FROM guest_events WHERE event_id IN ?
	) participations`, scope, scope).Scan(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count roster: %w", err)
	}
	ds.TotalGuests = int(total)

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return ds, nil
	}

	q := db.Model(&domain.CheckInRecord{}).
		Select("event_id, guest_id, checked_in_at").
		Where("event_id IN ? AND checked_in = ? AND checked_in_at IS NOT NULL", scope, true)
	if filter.StartDate != nil {
		q = q.Where("checked_in_at >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		q = q.Where("checked_in_at <= ?", filter.EndDate.UTC())
	}
	if err := q.Order("checked_in_at ASC").Scan(&ds.CheckIns).Error; err != nil {
		return nil, fmt.Errorf("failed to load check-ins: %w", err)
	}

	var rows []allocationRow
	err = db.Table("gift_assignments AS a").
		Select("a.event_id, a.guest_id, a.inventory_item_id AS item_id, a.quantity, "+
			"i.category, i.style, i.product, i.size, i.gender, i.color").
		Joins("JOIN inventory_items i ON i.id = a.inventory_item_id").
		Where("a.event_id IN ? AND a.state = ?", scope, domain.AssignmentActive).
		Order("a.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	ds.Allocations = make([]domain.AllocationPoint, len(rows))
	for i, row := range rows {
		ds.Allocations[i] = domain.AllocationPoint{
			EventID:  row.EventID,
			GuestID:  row.GuestID,
			ItemID:   row.ItemID,
			Quantity: row.Quantity,
			Item: domain.ItemIdentity{
				Category: row.Category,
				Style:    row.Style,
				Product:  row.Product,
				Size:     row.Size,
				Gender:   row.Gender,
				Color:    row.Color,
			},
		}
	}
	return ds, nil
}
