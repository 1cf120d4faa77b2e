package domain

import "time"

// CheckInRecord is the per guest-event check-in flag. Rows are flipped, never deleted.
type CheckInRecord struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	EventID     uint       `json:"event_id" gorm:"not null;uniqueIndex:idx_checkin_event_guest"`
	GuestID     uint       `json:"guest_id" gorm:"not null;uniqueIndex:idx_checkin_event_guest"`
	CheckedIn   bool       `json:"checked_in" gorm:"not null;default:false;index"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty" gorm:"index"`
	CheckedInBy string     `json:"checked_in_by,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Version     int        `json:"version" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (CheckInRecord) TableName() string {
	return "checkin_records"
}

// GuestState is what ledger commands return to callers
type GuestState struct {
	EventID     uint             `json:"event_id"`
	GuestID     uint             `json:"guest_id"`
	GuestName   string           `json:"guest_name"`
	CheckedIn   bool             `json:"checked_in"`
	CheckedInAt *time.Time       `json:"checked_in_at,omitempty"`
	CheckedInBy string           `json:"checked_in_by,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Assignments []GiftAssignment `json:"assignments"`
}

// ShortfallAlert flags an item that ran out as part of a ledger operation
type ShortfallAlert struct {
	ItemID uint   `json:"item_id"`
	Label  string `json:"label"`
}

// CheckInResult is returned by CheckIn and ChangeGifts
type CheckInResult struct {
	GuestState
	Depleted []ShortfallAlert `json:"depleted,omitempty"`
}
