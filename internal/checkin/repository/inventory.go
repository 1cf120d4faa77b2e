package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// GormInventoryRepository serves read-only inventory and guest state
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates an inventory repository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) FindItem(ctx context.Context, itemID uint) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrItemNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

func (r *GormInventoryRepository) ListItems(ctx context.Context, eventID uint) ([]domain.InventoryItem, error) {
	db := r.db.WithContext(ctx)
	if err := db.Select("id").First(&domain.Event{}, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrEventNotFound, eventID)
		}
		return nil, err
	}

	var items []domain.InventoryItem
	err := db.Where("event_id = ?", eventID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *GormInventoryRepository) GuestState(ctx context.Context, eventID, guestID uint) (*domain.GuestState, error) {
	db := r.db.WithContext(ctx)

	var guest domain.Guest
	if err := db.First(&guest, guestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrGuestNotFound, guestID)
		}
		return nil, err
	}

	state := &domain.GuestState{
		EventID:     eventID,
		GuestID:     guestID,
		GuestName:   guest.FullName(),
		Assignments: []domain.GiftAssignment{},
	}

	var record domain.CheckInRecord
	err := db.Where("event_id = ? AND guest_id = ?", eventID, guestID).First(&record).Error
	switch {
	case err == nil:
		state.CheckedIn = record.CheckedIn
		state.CheckedInAt = record.CheckedInAt
		state.CheckedInBy = record.CheckedInBy
		state.Notes = record.Notes
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	err = db.Where("event_id = ? AND guest_id = ? AND state = ?", eventID, guestID, domain.AssignmentActive).
		Order("id ASC").
		Find(&state.Assignments).Error
	if err != nil {
		return nil, err
	}
	return state, nil
}
