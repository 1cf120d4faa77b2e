package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType classifies an activity log entry
type ActivityType string

const (
	ActivityCheckIn           ActivityType = "checkin"
	ActivityUndoCheckIn       ActivityType = "undo_checkin"
	ActivityUpdateGifts       ActivityType = "update_gifts"
	ActivityInventoryUpdate   ActivityType = "inventory_update"
	ActivityInventoryAdd      ActivityType = "inventory_add"
	ActivityAllocationUpdate  ActivityType = "allocation_update"
	ActivityNote              ActivityType = "note"
	ActivityEventCreate       ActivityType = "event_create"
	ActivityEventUpdate       ActivityType = "event_update"
	ActivityEventStatusChange ActivityType = "event_status_change"
	ActivityEventArchive      ActivityType = "event_archive"
	ActivityEventUnarchive    ActivityType = "event_unarchive"
	ActivityOther             ActivityType = "other"
)

var activityTypes = map[ActivityType]struct{}{
	ActivityCheckIn:           {},
	ActivityUndoCheckIn:       {},
	ActivityUpdateGifts:       {},
	ActivityInventoryUpdate:   {},
	ActivityInventoryAdd:      {},
	ActivityAllocationUpdate:  {},
	ActivityNote:              {},
	ActivityEventCreate:       {},
	ActivityEventUpdate:       {},
	ActivityEventStatusChange: {},
	ActivityEventArchive:      {},
	ActivityEventUnarchive:    {},
	ActivityOther:             {},
}

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	_, ok := activityTypes[t]
	return ok
}

// ActivityLogEntry is an append-only audit row
type ActivityLogEntry struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	Type        ActivityType      `json:"type" gorm:"type:varchar(32);not null;index"`
	PerformedBy string            `json:"performed_by" gorm:"not null"`
	EventID     *uint             `json:"event_id,omitempty" gorm:"index:idx_activity_event_time"`
	GuestID     *uint             `json:"guest_id,omitempty" gorm:"index"`
	Timestamp   time.Time         `json:"timestamp" gorm:"not null;index:idx_activity_event_time"`
	Details     datatypes.JSONMap `json:"details"`
}

// TableName specifies the table name
func (ActivityLogEntry) TableName() string {
	return "activity_log"
}

// ActivityFilter narrows ListActivity
type ActivityFilter struct {
	EventID uint
	Type    ActivityType
	Limit   int
}
