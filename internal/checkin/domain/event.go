package domain

import "time"

// Event statuses
const (
	EventStatusDraft    = "draft"
	EventStatusActive   = "active"
	EventStatusArchived = "archived"
)

// Event is the minimal event row the ledger needs for referential checks.
// Secondary events point at their main event through ParentEventID.
type Event struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	ParentEventID *uint     `json:"parent_event_id,omitempty" gorm:"index"`
	Status        string    `json:"status" gorm:"not null;default:'active'"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Event) TableName() string {
	return "events"
}

// IsSecondary reports whether the event hangs off a main event
func (e *Event) IsSecondary() bool {
	return e.ParentEventID != nil && *e.ParentEventID != 0
}

// Guest is a roster entry. EventID is the event the guest registered for.
type Guest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   uint      `json:"event_id" gorm:"not null;index"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Guest) TableName() string {
	return "guests"
}

// FullName joins first and last name
func (g *Guest) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

// GuestEvent records participation of a guest in a secondary event
type GuestEvent struct {
	GuestID   uint      `json:"guest_id" gorm:"primaryKey"`
	EventID   uint      `json:"event_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (GuestEvent) TableName() string {
	return "guest_events"
}
