package query

import (
	"testing"
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func hourly() domain.AnalyticsFilter {
	return domain.AnalyticsFilter{Granularity: domain.GranularityHour, GroupBy: domain.GroupByCategory}
}

func TestAggregateHourBuckets(t *testing.T) {
	tee := domain.ItemIdentity{Category: "Apparel", Style: "Crew", Product: "Tee"}
	mug := domain.ItemIdentity{Category: "Kitchen", Product: "Mug"}
	ds := &domain.AnalyticsDataset{
		ScopeEventIDs: []uint{1},
		TotalGuests:   4,
		CheckIns: []domain.CheckInPoint{
			{EventID: 1, GuestID: 10, CheckedInAt: at(10, 5)},
			{EventID: 1, GuestID: 11, CheckedInAt: at(10, 40)},
			{EventID: 1, GuestID: 12, CheckedInAt: at(11, 2)},
		},
		Allocations: []domain.AllocationPoint{
			{EventID: 1, GuestID: 10, ItemID: 100, Quantity: 1, Item: tee},
			{EventID: 1, GuestID: 10, ItemID: 200, Quantity: 2, Item: mug},
			{EventID: 1, GuestID: 12, ItemID: 100, Quantity: 1, Item: tee},
			{EventID: 1, GuestID: 99, ItemID: 100, Quantity: 5, Item: tee},
		},
	}

	snap := Aggregate(1, ds, hourly(), at(12, 0))

	if len(snap.Timeline) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", snap.Timeline)
	}
	first, second := snap.Timeline[0], snap.Timeline[1]
	if first.Key != "2026-03-14T10" || first.CheckInCount != 2 || first.GiftsDistributedCount != 3 {
		t.Errorf("unexpected first bucket %+v", first)
	}
	if second.Key != "2026-03-14T11" || second.CheckInCount != 1 || second.GiftsDistributedCount != 1 {
		t.Errorf("unexpected second bucket %+v", second)
	}
	if snap.Peak == nil || snap.Peak.Key != "2026-03-14T10" {
		t.Errorf("expected peak at T10, got %+v", snap.Peak)
	}

	if snap.CheckedInGuests != 3 || snap.CheckInPercentage != 75 {
		t.Errorf("expected 3 checked in at 75%%, got %d at %d%%", snap.CheckedInGuests, snap.CheckInPercentage)
	}
	if snap.TotalGiftsDistributed != 4 {
		t.Errorf("assignments of guests outside the window must be skipped, total = %d", snap.TotalGiftsDistributed)
	}
	if snap.AverageGiftsPerGuest < 1.333 || snap.AverageGiftsPerGuest > 1.334 {
		t.Errorf("unexpected average %v", snap.AverageGiftsPerGuest)
	}

	if len(snap.ItemTotals) != 2 || snap.ItemTotals[0].ItemID != 100 || snap.ItemTotals[0].Quantity != 2 {
		t.Errorf("unexpected item totals %+v", snap.ItemTotals)
	}
	wantGroups := []domain.GroupTotal{{Key: "Apparel", Quantity: 2}, {Key: "Kitchen", Quantity: 2}}
	if len(snap.GroupTotals) != 2 || snap.GroupTotals[0] != wantGroups[0] || snap.GroupTotals[1] != wantGroups[1] {
		t.Errorf("expected %+v, got %+v", wantGroups, snap.GroupTotals)
	}
}

func TestAggregateGroupBy(t *testing.T) {
	ds := &domain.AnalyticsDataset{
		TotalGuests: 1,
		CheckIns:    []domain.CheckInPoint{{EventID: 1, GuestID: 1, CheckedInAt: at(9, 0)}},
		Allocations: []domain.AllocationPoint{
			{EventID: 1, GuestID: 1, ItemID: 1, Quantity: 1, Item: domain.ItemIdentity{Category: "Apparel", Style: "Hoodie"}},
			{EventID: 1, GuestID: 1, ItemID: 2, Quantity: 2, Item: domain.ItemIdentity{Category: "Apparel"}},
		},
	}
	filter := hourly()
	filter.GroupBy = domain.GroupByStyle

	snap := Aggregate(1, ds, filter, at(12, 0))

	want := []domain.GroupTotal{{Key: "unspecified", Quantity: 2}, {Key: "Hoodie", Quantity: 1}}
	if len(snap.GroupTotals) != len(want) {
		t.Fatalf("unexpected group totals %+v", snap.GroupTotals)
	}
	for i := range want {
		if snap.GroupTotals[i] != want[i] {
			t.Errorf("group %d: expected %+v, got %+v", i, want[i], snap.GroupTotals[i])
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(1, &domain.AnalyticsDataset{ScopeEventIDs: []uint{1}}, hourly(), at(12, 0))

	if snap.CheckInPercentage != 0 || snap.AverageGiftsPerGuest != 0 {
		t.Errorf("expected zeroes, got %+v", snap)
	}
	if snap.Peak != nil {
		t.Errorf("expected no peak, got %+v", snap.Peak)
	}
	if snap.Timeline == nil || snap.ItemTotals == nil || snap.GroupTotals == nil {
		t.Error("empty slices should be non-nil so they render as []")
	}
}

func TestAggregatePeakTiesGoToEarliest(t *testing.T) {
	ds := &domain.AnalyticsDataset{
		TotalGuests: 4,
		CheckIns: []domain.CheckInPoint{
			{EventID: 1, GuestID: 1, CheckedInAt: at(14, 1)},
			{EventID: 1, GuestID: 2, CheckedInAt: at(14, 2)},
			{EventID: 1, GuestID: 3, CheckedInAt: at(9, 1)},
			{EventID: 1, GuestID: 4, CheckedInAt: at(9, 59)},
		},
	}

	snap := Aggregate(1, ds, hourly(), at(15, 0))

	if snap.Peak == nil || snap.Peak.Key != "2026-03-14T09" {
		t.Fatalf("expected the earliest tied bucket, got %+v", snap.Peak)
	}
}

func TestAggregateMinuteGranularity(t *testing.T) {
	ds := &domain.AnalyticsDataset{
		TotalGuests: 3,
		CheckIns: []domain.CheckInPoint{
			{EventID: 1, GuestID: 1, CheckedInAt: at(10, 5).Add(10 * time.Second)},
			{EventID: 1, GuestID: 2, CheckedInAt: at(10, 5).Add(50 * time.Second)},
			{EventID: 2, GuestID: 1, CheckedInAt: at(10, 6)},
		},
	}
	filter := hourly()
	filter.Granularity = domain.GranularityMinute

	snap := Aggregate(1, ds, filter, at(11, 0))

	if len(snap.Timeline) != 2 || snap.Timeline[0].Key != "2026-03-14T10:05" || snap.Timeline[0].CheckInCount != 2 {
		t.Fatalf("unexpected minute timeline %+v", snap.Timeline)
	}
	if snap.CheckInPercentage != 100 {
		t.Fatalf("expected 100%%, got %d", snap.CheckInPercentage)
	}
}
