package query

import (
	"math"
	"sort"
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

const unspecifiedGroup = "unspecified"

type guestKey struct {
	eventID uint
	guestID uint
}

// Aggregate folds a dataset into a snapshot. Gifts count toward the bucket in
// which their guest checked in; assignments of guests without a check-in in
// the window are ignored.
func Aggregate(eventID uint, ds *domain.AnalyticsDataset, filter domain.AnalyticsFilter, now time.Time) *domain.AnalyticsSnapshot {
	snap := &domain.AnalyticsSnapshot{
		EventID:       eventID,
		ScopeEventIDs: ds.ScopeEventIDs,
		Granularity:   filter.Granularity,
		GroupBy:       filter.GroupBy,
		TotalGuests:   ds.TotalGuests,
		Timeline:      []domain.TimelineBucket{},
		ItemTotals:    []domain.ItemTotal{},
		GroupTotals:   []domain.GroupTotal{},
		GeneratedAt:   now.UTC(),
	}

	buckets := make(map[string]*domain.TimelineBucket)
	guestBucket := make(map[guestKey]*domain.TimelineBucket, len(ds.CheckIns))
	for _, c := range ds.CheckIns {
		key := BucketKey(c.CheckedInAt, filter.Granularity)
		b, ok := buckets[key]
		if !ok {
			b = &domain.TimelineBucket{Key: key, BucketStart: BucketStart(c.CheckedInAt, filter.Granularity)}
			buckets[key] = b
		}
		b.CheckInCount++
		guestBucket[guestKey{c.EventID, c.GuestID}] = b
	}
	snap.CheckedInGuests = len(guestBucket)

	items := make(map[uint]*domain.ItemTotal)
	groups := make(map[string]int)
	for _, a := range ds.Allocations {
		b, ok := guestBucket[guestKey{a.EventID, a.GuestID}]
		if !ok {
			continue
		}
		b.GiftsDistributedCount += a.Quantity
		snap.TotalGiftsDistributed += a.Quantity

		total, ok := items[a.ItemID]
		if !ok {
			total = &domain.ItemTotal{
				ItemID:   a.ItemID,
				EventID:  a.EventID,
				Label:    a.Item.Label(),
				Category: a.Item.Category,
				Style:    a.Item.Style,
				Product:  a.Item.Product,
			}
			items[a.ItemID] = total
		}
		total.Quantity += a.Quantity
		groups[groupKey(a.Item, filter.GroupBy)] += a.Quantity
	}

	for _, b := range buckets {
		snap.Timeline = append(snap.Timeline, *b)
	}
	sort.Slice(snap.Timeline, func(i, j int) bool {
		return snap.Timeline[i].BucketStart.Before(snap.Timeline[j].BucketStart)
	})
	for i := range snap.Timeline {
		if snap.Peak == nil || snap.Timeline[i].CheckInCount > snap.Peak.CheckInCount {
			peak := snap.Timeline[i]
			snap.Peak = &peak
		}
	}

	for _, total := range items {
		snap.ItemTotals = append(snap.ItemTotals, *total)
	}
	sort.Slice(snap.ItemTotals, func(i, j int) bool { return snap.ItemTotals[i].ItemID < snap.ItemTotals[j].ItemID })

	for key, qty := range groups {
		snap.GroupTotals = append(snap.GroupTotals, domain.GroupTotal{Key: key, Quantity: qty})
	}
	sort.Slice(snap.GroupTotals, func(i, j int) bool {
		if snap.GroupTotals[i].Quantity != snap.GroupTotals[j].Quantity {
			return snap.GroupTotals[i].Quantity > snap.GroupTotals[j].Quantity
		}
		return snap.GroupTotals[i].Key < snap.GroupTotals[j].Key
	})

	if snap.TotalGuests > 0 {
		snap.CheckInPercentage = int(math.Round(float64(snap.CheckedInGuests) / float64(snap.TotalGuests) * 100))
	}
	if snap.CheckedInGuests > 0 {
		snap.AverageGiftsPerGuest = float64(snap.TotalGiftsDistributed) / float64(snap.CheckedInGuests)
	}
	return snap
}

func groupKey(item domain.ItemIdentity, by domain.GroupBy) string {
	var key string
	switch by {
	case domain.GroupByStyle:
		key = item.Style
	case domain.GroupByProduct:
		key = item.Product
	default:
		key = item.Category
	}
	if key == "" {
		return unspecifiedGroup
	}
	return key
}
