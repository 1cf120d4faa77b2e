package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

func TestLockCheckInCreatesOnce(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	guest := createGuest(t, db, event.ID, "Ada")
	store := NewGormLedgerStore(db, RetryConfig{})

	var firstID uint
	for i := 0; i < 2; i++ {
		err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
			record, err := tx.LockCheckIn(event.ID, guest.ID)
			if err != nil {
				return err
			}
			if firstID == 0 {
				firstID = record.ID
			} else if record.ID != firstID {
				return fmt.Errorf("expected record %d, got %d", firstID, record.ID)
			}
			if record.CheckedIn {
				return errors.New("new record should not be checked in")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	var count int64
	db.Model(&domain.CheckInRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one check-in record, got %d", count)
	}
}

func TestSaveItemBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	item := createItem(t, db, event.ID, "Apparel", "Crew", 5)
	store := NewGormLedgerStore(db, RetryConfig{})

	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		items, err := tx.LockItems([]uint{item.ID})
		if err != nil {
			return err
		}
		locked := items[item.ID]
		locked.QuantityOnHand--
		locked.QuantityDistributed++
		return tx.SaveItem(locked)
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	var got domain.InventoryItem
	db.First(&got, item.ID)
	if got.QuantityOnHand != 4 || got.QuantityDistributed != 1 || got.Version != 1 {
		t.Fatalf("unexpected item after save: %+v", got)
	}
}

func TestWithinTxRetriesStaleVersions(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	item := createItem(t, db, event.ID, "Apparel", "Crew", 5)
	store := NewGormLedgerStore(db, RetryConfig{MaxRetries: 2, BaseBackoff: time.Millisecond})

	attempts := 0
	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		attempts++
		stale := *item
		stale.Version = 99
		stale.QuantityOnHand = 0
		return tx.SaveItem(&stale)
	})

	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	var got domain.InventoryItem
	db.First(&got, item.ID)
	if got.QuantityOnHand != 5 {
		t.Fatalf("stale write must not apply, on hand = %d", got.QuantityOnHand)
	}
}

func TestWithinTxRollsBackDomainErrors(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	item := createItem(t, db, event.ID, "Apparel", "Crew", 5)
	store := NewGormLedgerStore(db, RetryConfig{MaxRetries: 3})

	attempts := 0
	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		attempts++
		items, err := tx.LockItems([]uint{item.ID})
		if err != nil {
			return err
		}
		items[item.ID].QuantityOnHand = 1
		if err := tx.SaveItem(items[item.ID]); err != nil {
			return err
		}
		return domain.ErrAlreadyCheckedIn
	})

	if !errors.Is(err, domain.ErrAlreadyCheckedIn) {
		t.Fatalf("expected the domain error back, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("domain errors must not be retried, got %d attempts", attempts)
	}

	var got domain.InventoryItem
	db.First(&got, item.ID)
	if got.QuantityOnHand != 5 || got.Version != 0 {
		t.Fatalf("transaction was not rolled back: %+v", got)
	}
}

func TestCreateItemDuplicateIdentity(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	createItem(t, db, event.ID, "Apparel", "Crew", 5)
	store := NewGormLedgerStore(db, RetryConfig{})

	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		return tx.CreateItem(&domain.InventoryItem{
			EventID:      event.ID,
			ItemIdentity: domain.ItemIdentity{Category: "Apparel", Style: "Crew", Product: "Tee", Size: "M"},
			MaxPerGuest:  1,
		})
	})
	if !errors.Is(err, domain.ErrDuplicateItem) {
		t.Fatalf("expected duplicate item, got %v", err)
	}
}

func TestRevokeAssignmentsDetectsConcurrentRevoke(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	guest := createGuest(t, db, event.ID, "Ada")
	item := createItem(t, db, event.ID, "Apparel", "Crew", 5)
	assign(t, db, event.ID, guest.ID, item.ID, 1, domain.AssignmentRevoked)
	store := NewGormLedgerStore(db, RetryConfig{})

	var revoked domain.GiftAssignment
	db.First(&revoked)

	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		return tx.RevokeAssignments([]uint{revoked.ID}, "staff")
	})
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict when revoking an inactive assignment, got %v", err)
	}
}

func TestAppendActivityFailureKeepsTransaction(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, "Gala", nil)
	item := createItem(t, db, event.ID, "Apparel", "Crew", 5)
	store := NewGormLedgerStore(db, RetryConfig{})

	if err := db.Migrator().DropTable(&domain.ActivityLogEntry{}); err != nil {
		t.Fatalf("dropping activity table: %v", err)
	}

	var appendErr error
	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		items, err := tx.LockItems([]uint{item.ID})
		if err != nil {
			return err
		}
		items[item.ID].QuantityOnHand = 7
		if err := tx.SaveItem(items[item.ID]); err != nil {
			return err
		}
		appendErr = tx.AppendActivity(&domain.ActivityLogEntry{
			Type:        domain.ActivityInventoryAdd,
			PerformedBy: "staff",
			EventID:     &event.ID,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if appendErr == nil {
		t.Fatal("expected the append to fail without its table")
	}

	var got domain.InventoryItem
	db.First(&got, item.ID)
	if got.QuantityOnHand != 7 {
		t.Fatalf("ledger change should commit despite the failed append, on hand = %d", got.QuantityOnHand)
	}
}

func TestIsEligible(t *testing.T) {
	db := newTestDB(t)
	main := createEvent(t, db, "Main", nil)
	side := createEvent(t, db, "Side", &main.ID)
	other := createEvent(t, db, "Other", nil)
	guest := createGuest(t, db, main.ID, "Ada")
	mustCreate(t, db, &domain.GuestEvent{GuestID: guest.ID, EventID: side.ID})
	store := NewGormLedgerStore(db, RetryConfig{})

	tests := []struct {
		eventID uint
		want    bool
	}{
		{main.ID, true},
		{side.ID, true},
		{other.ID, false},
	}

	err := store.WithinTx(context.Background(), func(tx domain.LedgerTx) error {
		for _, tt := range tests {
			got, err := tx.IsEligible(tt.eventID, guest.ID)
			if err != nil {
				return err
			}
			if got != tt.want {
				t.Errorf("event %d: eligible = %v, want %v", tt.eventID, got, tt.want)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
}
