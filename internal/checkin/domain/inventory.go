package domain

import (
	"strings"
	"time"
)

// ItemIdentity is the seven-field key that makes an inventory item unique
// within an event.
type ItemIdentity struct {
	Category string `json:"category" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
	Style    string `json:"style" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
	Product  string `json:"product" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
	Size     string `json:"size" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
	Gender   string `json:"gender" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
	Color    string `json:"color" gorm:"not null;default:'';uniqueIndex:idx_inventory_identity"`
}

// Normalize trims whitespace so that identical items do not diverge on spacing
func (id ItemIdentity) Normalize() ItemIdentity {
	return ItemIdentity{
		Category: strings.TrimSpace(id.Category),
		Style:    strings.TrimSpace(id.Style),
		Product:  strings.TrimSpace(id.Product),
		Size:     strings.TrimSpace(id.Size),
		Gender:   strings.TrimSpace(id.Gender),
		Color:    strings.TrimSpace(id.Color),
	}
}

// Label is a human readable description used in activity details
func (id ItemIdentity) Label() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{id.Category, id.Style, id.Product, id.Size, id.Gender, id.Color} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// InventoryItem holds the durable counters for one gift item of an event
type InventoryItem struct {
	ID                  uint `json:"id" gorm:"primaryKey"`
	EventID             uint `json:"event_id" gorm:"not null;uniqueIndex:idx_inventory_identity"`
	ItemIdentity        `gorm:"embedded"`
	QuantityOnHand      int       `json:"quantity_on_hand" gorm:"not null;default:0;check:chk_inventory_on_hand,quantity_on_hand >= 0"`
	QuantityDistributed int       `json:"quantity_distributed" gorm:"not null;default:0;check:chk_inventory_distributed,quantity_distributed >= 0"`
	PostEventCount      *int      `json:"post_event_count,omitempty"`
	MaxPerGuest         int       `json:"max_per_guest" gorm:"not null;default:1"`
	Version             int       `json:"version" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Total is the conserved quantity across allocate/reverse pairs
func (i *InventoryItem) Total() int {
	return i.QuantityOnHand + i.QuantityDistributed
}
