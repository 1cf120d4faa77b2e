package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/repository"
	"github.com/tair/checkin-ledger/pkg/database/dbtest"
)

type recordingNotifier struct {
	mu      sync.Mutex
	signals []domain.ChangeSignal
}

func (n *recordingNotifier) Publish(_ context.Context, signal domain.ChangeSignal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, signal)
	return nil
}

func (n *recordingNotifier) Subscribe(ctx context.Context, _ uint) (<-chan domain.ChangeSignal, error) {
	ch := make(chan domain.ChangeSignal)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (n *recordingNotifier) eventIDs() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]uint, len(n.signals))
	for i, s := range n.signals {
		ids[i] = s.EventID
	}
	return ids
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
}

func (p *recordingPublisher) PublishActivity(_ context.Context, entry domain.ActivityLogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return nil
}

type harness struct {
	db        *gorm.DB
	ledger    *Ledger
	notifier  *recordingNotifier
	publisher *recordingPublisher

	checkIn   *CheckInHandler
	undo      *UndoCheckInHandler
	clear     *ClearCheckInHandler
	change    *ChangeGiftsHandler
	adjust    *AdjustInventoryHandler
	reconcile *ReconcileInventoryHandler
	provision *ProvisionInventoryHandler
	note      *RecordNoteHandler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.New(t, repository.Models()...)
	store := repository.NewGormLedgerStore(db, repository.RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond})
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	ledger := NewLedger(store, notifier, publisher)

	return &harness{
		db:        db,
		ledger:    ledger,
		notifier:  notifier,
		publisher: publisher,
		checkIn:   NewCheckInHandler(ledger),
		undo:      NewUndoCheckInHandler(ledger),
		clear:     NewClearCheckInHandler(ledger),
		change:    NewChangeGiftsHandler(ledger),
		adjust:    NewAdjustInventoryHandler(ledger),
		reconcile: NewReconcileInventoryHandler(ledger),
		provision: NewProvisionInventoryHandler(ledger),
		note:      NewRecordNoteHandler(ledger),
	}
}

func (h *harness) event(t *testing.T, name string, parent *uint) *domain.Event {
	t.Helper()
	event := &domain.Event{Name: name, ParentEventID: parent, Status: domain.EventStatusActive}
	if err := h.db.Create(event).Error; err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event
}

func (h *harness) guest(t *testing.T, eventID uint, name string) *domain.Guest {
	t.Helper()
	guest := &domain.Guest{EventID: eventID, FirstName: name}
	if err := h.db.Create(guest).Error; err != nil {
		t.Fatalf("creating guest: %v", err)
	}
	return guest
}

func (h *harness) item(t *testing.T, eventID uint, product string, onHand, maxPerGuest int) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		EventID:        eventID,
		ItemIdentity:   domain.ItemIdentity{Category: "Swag", Product: product},
		QuantityOnHand: onHand,
		MaxPerGuest:    maxPerGuest,
	}
	if err := h.db.Create(item).Error; err != nil {
		t.Fatalf("creating item: %v", err)
	}
	return item
}

func (h *harness) reload(t *testing.T, id uint) domain.InventoryItem {
	t.Helper()
	var item domain.InventoryItem
	if err := h.db.First(&item, id).Error; err != nil {
		t.Fatalf("reloading item %d: %v", id, err)
	}
	return item
}

// record loads the check-in record of a guest. A guest whose first check-in
// rolled back has no row, which reads as not checked in.
func (h *harness) record(t *testing.T, eventID, guestID uint) domain.CheckInRecord {
	t.Helper()
	var record domain.CheckInRecord
	err := h.db.Where("event_id = ? AND guest_id = ?", eventID, guestID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CheckInRecord{EventID: eventID, GuestID: guestID}
	}
	if err != nil {
		t.Fatalf("loading check-in record: %v", err)
	}
	return record
}

func (h *harness) activityTypes(t *testing.T, eventID uint) []domain.ActivityType {
	t.Helper()
	var entries []domain.ActivityLogEntry
	if err := h.db.Where("event_id = ?", eventID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("loading activity: %v", err)
	}
	types := make([]domain.ActivityType, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}
	return types
}

func (h *harness) activeAssignments(t *testing.T, eventID, guestID uint) []domain.GiftAssignment {
	t.Helper()
	var assignments []domain.GiftAssignment
	err := h.db.Where("event_id = ? AND guest_id = ? AND state = ?", eventID, guestID, domain.AssignmentActive).
		Order("id ASC").Find(&assignments).Error
	if err != nil {
		t.Fatalf("loading assignments: %v", err)
	}
	return assignments
}

// assignmentCount counts assignment rows of a guest in any state
func (h *harness) assignmentCount(t *testing.T, eventID, guestID uint) int64 {
	t.Helper()
	var count int64
	err := h.db.Model(&domain.GiftAssignment{}).
		Where("event_id = ? AND guest_id = ?", eventID, guestID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	return count
}

// flakyNotifier fails the first n publishes, then records signals
type flakyNotifier struct {
	recordingNotifier
	failures int
	attempts int
}

func (n *flakyNotifier) Publish(ctx context.Context, signal domain.ChangeSignal) error {
	n.mu.Lock()
	n.attempts++
	fail := n.attempts <= n.failures
	n.mu.Unlock()
	if fail {
		return errors.New("notifier backend unavailable")
	}
	return n.recordingNotifier.Publish(ctx, signal)
}

func selection(itemID uint, qty int) domain.GiftSelection {
	return domain.GiftSelection{ItemID: itemID, Quantity: qty}
}
