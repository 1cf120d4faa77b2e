package command

import (
	"context"
	"errors"
	"testing"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

func TestAdjustInventory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	item := h.item(t, event.ID, "Tote", 4, 1)

	updated, err := h.adjust.Handle(ctx, AdjustInventoryCommand{ItemID: item.ID, Actor: "admin", Delta: 3, Reason: "late delivery"})
	if err != nil {
		t.Fatalf("AdjustInventory +3: %v", err)
	}
	if updated.QuantityOnHand != 7 {
		t.Fatalf("expected 7 on hand, got %d", updated.QuantityOnHand)
	}

	if _, err := h.adjust.Handle(ctx, AdjustInventoryCommand{ItemID: item.ID, Actor: "admin", Delta: -2, Reason: "damaged"}); err != nil {
		t.Fatalf("AdjustInventory -2: %v", err)
	}

	_, err = h.adjust.Handle(ctx, AdjustInventoryCommand{ItemID: item.ID, Actor: "admin", Delta: -6})
	var shortErr *domain.InsufficientInventoryError
	if !errors.As(err, &shortErr) || shortErr.Shortages[0].Available != 5 || shortErr.Shortages[0].Requested != 6 {
		t.Fatalf("expected shortage of 6 against 5, got %v", err)
	}

	if _, err := h.adjust.Handle(ctx, AdjustInventoryCommand{ItemID: item.ID, Actor: "admin"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected zero delta to be rejected, got %v", err)
	}
	if _, err := h.adjust.Handle(ctx, AdjustInventoryCommand{ItemID: 999, Actor: "admin", Delta: 1}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}

	if got := h.reload(t, item.ID); got.QuantityOnHand != 5 || got.QuantityDistributed != 0 {
		t.Fatalf("unexpected final counts %+v", got)
	}
	types := h.activityTypes(t, event.ID)
	if len(types) != 2 || types[0] != domain.ActivityInventoryAdd || types[1] != domain.ActivityInventoryUpdate {
		t.Fatalf("expected inventory_add then inventory_update, got %v", types)
	}
}

func TestProvisionInventory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)

	cmd := ProvisionInventoryCommand{
		EventID:  event.ID,
		Actor:    "admin",
		Identity: domain.ItemIdentity{Category: "Apparel", Style: "Crew ", Product: "Tee", Size: "L"},
		Quantity: 25,
	}
	item, err := h.provision.Handle(ctx, cmd)
	if err != nil {
		t.Fatalf("ProvisionInventory: %v", err)
	}
	if item.ID == 0 || item.MaxPerGuest != 1 || item.Style != "Crew" {
		t.Fatalf("unexpected item %+v", item)
	}

	if _, err := h.provision.Handle(ctx, cmd); !errors.Is(err, domain.ErrDuplicateItem) {
		t.Fatalf("expected duplicate item, got %v", err)
	}

	cmd.Identity = domain.ItemIdentity{}
	if _, err := h.provision.Handle(ctx, cmd); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected empty identity to be rejected, got %v", err)
	}

	cmd.EventID = 999
	cmd.Identity.Product = "Mug"
	if _, err := h.provision.Handle(ctx, cmd); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestReconcileInventoryOnlyTouchesPostEventCount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")
	item := h.item(t, event.ID, "Tote", 4, 1)

	if _, err := h.checkIn.Handle(ctx, CheckInCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(item.ID, 1)},
	}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	updated, err := h.reconcile.Handle(ctx, ReconcileInventoryCommand{ItemID: item.ID, Actor: "admin", PostEventCount: 2})
	if err != nil {
		t.Fatalf("ReconcileInventory: %v", err)
	}
	if updated.PostEventCount == nil || *updated.PostEventCount != 2 {
		t.Fatalf("expected post event count 2, got %v", updated.PostEventCount)
	}

	got := h.reload(t, item.ID)
	if got.QuantityOnHand != 3 || got.QuantityDistributed != 1 {
		t.Fatalf("reconcile must not touch allocation counters, got %d/%d", got.QuantityOnHand, got.QuantityDistributed)
	}

	var entry domain.ActivityLogEntry
	if err := h.db.Where("type = ?", domain.ActivityInventoryUpdate).First(&entry).Error; err != nil {
		t.Fatalf("loading reconcile entry: %v", err)
	}
	if entry.Details["field"] != "post_event_count" {
		t.Fatalf("unexpected reconcile details %v", entry.Details)
	}

	if _, err := h.reconcile.Handle(ctx, ReconcileInventoryCommand{ItemID: item.ID, Actor: "admin", PostEventCount: -1}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected negative count to be rejected, got %v", err)
	}
}

func TestRecordNote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")

	entry, err := h.note.Handle(ctx, RecordNoteCommand{EventID: event.ID, GuestID: &guest.ID, Actor: "staff", Message: "Needs wheelchair access"})
	if err != nil {
		t.Fatalf("RecordNote: %v", err)
	}
	if entry.ID == 0 || entry.Type != domain.ActivityNote || entry.Details["guest_name"] != "Ada" {
		t.Fatalf("unexpected note %+v", entry)
	}
	if len(h.notifier.eventIDs()) != 1 || len(h.publisher.entries) != 1 {
		t.Fatal("notes should be signalled and streamed")
	}

	if _, err := h.note.Handle(ctx, RecordNoteCommand{EventID: event.ID, Actor: "staff"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected empty message to be rejected, got %v", err)
	}

	if err := h.db.Migrator().DropTable(&domain.ActivityLogEntry{}); err != nil {
		t.Fatalf("dropping activity table: %v", err)
	}
	if _, err := h.note.Handle(ctx, RecordNoteCommand{EventID: event.ID, Actor: "staff", Message: "lost"}); err == nil {
		t.Fatal("a note that cannot be stored must fail")
	}
}
