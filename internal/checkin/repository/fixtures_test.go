package repository

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/database/dbtest"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.New(t, Models()...)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("creating %T: %v", value, err)
	}
}

func createEvent(t *testing.T, db *gorm.DB, name string, parent *uint) *domain.Event {
	t.Helper()
	event := &domain.Event{Name: name, ParentEventID: parent, Status: domain.EventStatusActive}
	mustCreate(t, db, event)
	return event
}

func createGuest(t *testing.T, db *gorm.DB, eventID uint, first string) *domain.Guest {
	t.Helper()
	guest := &domain.Guest{EventID: eventID, FirstName: first, LastName: "Guest"}
	mustCreate(t, db, guest)
	return guest
}

func createItem(t *testing.T, db *gorm.DB, eventID uint, category, style string, onHand int) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		EventID:        eventID,
		ItemIdentity:   domain.ItemIdentity{Category: category, Style: style, Product: "Tee", Size: "M"},
		QuantityOnHand: onHand,
		MaxPerGuest:    1,
	}
	mustCreate(t, db, item)
	return item
}

func checkedIn(t *testing.T, db *gorm.DB, eventID, guestID uint, at time.Time) {
	t.Helper()
	at = at.UTC()
	mustCreate(t, db, &domain.CheckInRecord{
		EventID:     eventID,
		GuestID:     guestID,
		CheckedIn:   true,
		CheckedInAt: &at,
		CheckedInBy: "staff",
	})
}

func assign(t *testing.T, db *gorm.DB, eventID, guestID, itemID uint, qty int, state domain.AssignmentState) {
	t.Helper()
	mustCreate(t, db, &domain.GiftAssignment{
		EventID:         eventID,
		GuestID:         guestID,
		InventoryItemID: itemID,
		Quantity:        qty,
		State:           state,
	})
}
