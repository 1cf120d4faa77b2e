package command

import (
	"context"
	"errors"
	"testing"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

func TestChangeGiftsSwapsAllocation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")
	tote := h.item(t, event.ID, "Tote", 5, 1)
	mug := h.item(t, event.ID, "Mug", 5, 2)

	if _, err := h.checkIn.Handle(ctx, CheckInCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(tote.ID, 1)},
	}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	result, err := h.change.Handle(ctx, ChangeGiftsCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(mug.ID, 2)},
	})
	if err != nil {
		t.Fatalf("ChangeGifts: %v", err)
	}
	if len(result.Assignments) != 1 || result.Assignments[0].InventoryItemID != mug.ID {
		t.Fatalf("unexpected assignments %+v", result.Assignments)
	}

	if got := h.reload(t, tote.ID); got.QuantityOnHand != 5 || got.QuantityDistributed != 0 {
		t.Fatalf("tote should be fully returned, got %d/%d", got.QuantityOnHand, got.QuantityDistributed)
	}
	if got := h.reload(t, mug.ID); got.QuantityOnHand != 3 || got.QuantityDistributed != 2 {
		t.Fatalf("mug should hand out 2, got %d/%d", got.QuantityOnHand, got.QuantityDistributed)
	}

	var revoked int64
	h.db.Model(&domain.GiftAssignment{}).Where("state = ?", domain.AssignmentRevoked).Count(&revoked)
	if revoked != 1 {
		t.Fatalf("expected the old assignment to be kept as revoked, got %d", revoked)
	}

	types := h.activityTypes(t, event.ID)
	if types[len(types)-1] != domain.ActivityUpdateGifts {
		t.Fatalf("expected update_gifts to be logged, got %v", types)
	}
}

func TestChangeGiftsKeepsSameItemWhenStockIsEmpty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")
	last := h.item(t, event.ID, "Poster", 1, 1)

	if _, err := h.checkIn.Handle(ctx, CheckInCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(last.ID, 1)},
	}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if _, err := h.change.Handle(ctx, ChangeGiftsCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(last.ID, 1)},
	}); err != nil {
		t.Fatalf("re-selecting the held unit should succeed: %v", err)
	}

	if got := h.reload(t, last.ID); got.QuantityOnHand != 0 || got.QuantityDistributed != 1 {
		t.Fatalf("unexpected counts %d/%d", got.QuantityOnHand, got.QuantityDistributed)
	}
}

func TestFailedChangeGiftsLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")
	tote := h.item(t, event.ID, "Tote", 5, 1)
	scarce := h.item(t, event.ID, "Hoodie", 0, 1)

	if _, err := h.checkIn.Handle(ctx, CheckInCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(tote.ID, 1)},
	}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	beforeTote := h.reload(t, tote.ID)
	beforeScarce := h.reload(t, scarce.ID)
	beforeAssignments := h.activeAssignments(t, event.ID, guest.ID)
	beforeActivity := h.activityTypes(t, event.ID)

	_, err := h.change.Handle(ctx, ChangeGiftsCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(scarce.ID, 1)},
	})
	if !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}

	for _, before := range []domain.InventoryItem{beforeTote, beforeScarce} {
		got := h.reload(t, before.ID)
		if got.QuantityOnHand != before.QuantityOnHand ||
			got.QuantityDistributed != before.QuantityDistributed ||
			got.Version != before.Version {
			t.Fatalf("item %d changed: before %+v after %+v", before.ID, before, got)
		}
	}
	after := h.activeAssignments(t, event.ID, guest.ID)
	if len(after) != len(beforeAssignments) || after[0].ID != beforeAssignments[0].ID {
		t.Fatalf("assignments changed: before %+v after %+v", beforeAssignments, after)
	}
	if len(h.activityTypes(t, event.ID)) != len(beforeActivity) {
		t.Fatal("a failed change must not be audited")
	}
}

func TestChangeGiftsRequiresCheckIn(t *testing.T) {
	h := newHarness(t)
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")

	_, err := h.change.Handle(context.Background(), ChangeGiftsCommand{
		EventID: event.ID,
		GuestID: guest.ID,
		Actor:   "staff",
	})
	if !errors.Is(err, domain.ErrNotCheckedIn) {
		t.Fatalf("expected not checked in, got %v", err)
	}
}

func TestClearCheckInIsAuditedAsAllocationUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event := h.event(t, "Gala", nil)
	guest := h.guest(t, event.ID, "Ada")
	tote := h.item(t, event.ID, "Tote", 5, 1)

	if _, err := h.checkIn.Handle(ctx, CheckInCommand{
		EventID:        event.ID,
		GuestID:        guest.ID,
		Actor:          "staff",
		GiftSelections: []domain.GiftSelection{selection(tote.ID, 1)},
	}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	state, err := h.clear.Handle(ctx, ClearCheckInCommand{EventID: event.ID, GuestID: guest.ID, Actor: "admin"})
	if err != nil {
		t.Fatalf("ClearCheckIn: %v", err)
	}
	if state.CheckedIn || len(state.Assignments) != 0 {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := h.reload(t, tote.ID); got.QuantityOnHand != 5 {
		t.Fatalf("clear should return stock, on hand = %d", got.QuantityOnHand)
	}

	var entry domain.ActivityLogEntry
	if err := h.db.Where("type = ?", domain.ActivityAllocationUpdate).First(&entry).Error; err != nil {
		t.Fatalf("loading clear entry: %v", err)
	}
	if entry.Details["action"] != "clear" || entry.PerformedBy != "admin" {
		t.Fatalf("unexpected clear entry %+v", entry)
	}
}
