package domain

import (
	"encoding/json"
	"time"
)

// AssignmentState tags a gift assignment as live or reversed
type AssignmentState string

const (
	AssignmentActive  AssignmentState = "active"
	AssignmentRevoked AssignmentState = "revoked"
)

// GiftAssignment binds units of an inventory item to a guest at an event.
// Revoked rows are kept for audit and never reactivated.
type GiftAssignment struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	EventID         uint            `json:"event_id" gorm:"not null;index:idx_assignment_event_guest"`
	GuestID         uint            `json:"guest_id" gorm:"not null;index:idx_assignment_event_guest"`
	InventoryItemID uint            `json:"inventory_item_id" gorm:"not null;index"`
	Quantity        int             `json:"quantity" gorm:"not null;default:1"`
	IsDefault       bool            `json:"is_default" gorm:"not null;default:false"`
	State           AssignmentState `json:"state" gorm:"type:varchar(16);not null;default:'active';index"`
	RevokedAt       *time.Time      `json:"revoked_at,omitempty"`
	RevokedBy       string          `json:"revoked_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (GiftAssignment) TableName() string {
	return "gift_assignments"
}

// IsActive reports whether the assignment still holds inventory
func (a *GiftAssignment) IsActive() bool {
	return a.State == AssignmentActive
}

// MarshalJSON adds the derived is_active flag
func (a GiftAssignment) MarshalJSON() ([]byte, error) {
	type plain GiftAssignment
	return json.Marshal(struct {
		plain
		IsActive bool `json:"is_active"`
	}{plain: plain(a), IsActive: a.IsActive()})
}

// GiftSelection requests Quantity units of one item
type GiftSelection struct {
	ItemID    uint `json:"item_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"omitempty,min=1"`
	IsDefault bool `json:"is_default"`
}

// MergeSelections folds duplicate item ids together, keeps first-seen order
// and defaults missing quantities to one.
func MergeSelections(selections []GiftSelection) []GiftSelection {
	merged := make([]GiftSelection, 0, len(selections))
	index := make(map[uint]int, len(selections))
	for _, s := range selections {
		if s.Quantity <= 0 {
			s.Quantity = 1
		}
		if i, ok := index[s.ItemID]; ok {
			merged[i].Quantity += s.Quantity
			merged[i].IsDefault = merged[i].IsDefault || s.IsDefault
			continue
		}
		index[s.ItemID] = len(merged)
		merged = append(merged, s)
	}
	return merged
}
