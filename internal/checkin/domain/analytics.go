package domain

import (
	"context"
	"time"
)

// Granularity is the width of a timeline bucket
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
)

// Valid reports whether g is supported
func (g Granularity) Valid() bool {
	switch g {
	case GranularityMinute, GranularityHour, GranularityDay:
		return true
	}
	return false
}

// GroupBy selects the inventory attribute used for grouped totals
type GroupBy string

const (
	GroupByCategory GroupBy = "category"
	GroupByStyle    GroupBy = "style"
	GroupByProduct  GroupBy = "product"
)

// Valid reports whether g is supported
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByCategory, GroupByStyle, GroupByProduct:
		return true
	}
	return false
}

// AnalyticsFilter bounds an analytics request. Nil bounds are open.
type AnalyticsFilter struct {
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Granularity Granularity `json:"granularity"`
	GroupBy     GroupBy     `json:"group_by"`
}

// TimelineBucket is one slot of the check-in timeline
type TimelineBucket struct {
	Key                   string    `json:"key"`
	BucketStart           time.Time `json:"bucket_start"`
	CheckInCount          int       `json:"checkin_count"`
	GiftsDistributedCount int       `json:"gifts_distributed_count"`
}

// ItemTotal is the active distributed quantity of one item in scope
type ItemTotal struct {
	ItemID   uint   `json:"item_id"`
	EventID  uint   `json:"event_id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Style    string `json:"style"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// GroupTotal sums ItemTotal quantities by the requested attribute
type GroupTotal struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

// AnalyticsSnapshot is the server-side aggregate a dashboard renders
type AnalyticsSnapshot struct {
	EventID               uint             `json:"event_id"`
	ScopeEventIDs         []uint           `json:"scope_event_ids"`
	Granularity           Granularity      `json:"granularity"`
	GroupBy               GroupBy          `json:"group_by"`
	TotalGuests           int              `json:"total_guests"`
	CheckedInGuests       int              `json:"checked_in_guests"`
	CheckInPercentage     int              `json:"checkin_percentage"`
	TotalGiftsDistributed int              `json:"total_gifts_distributed"`
	AverageGiftsPerGuest  float64          `json:"average_gifts_per_guest"`
	Timeline              []TimelineBucket `json:"timeline"`
	Peak                  *TimelineBucket  `json:"peak,omitempty"`
	ItemTotals            []ItemTotal      `json:"item_totals"`
	GroupTotals           []GroupTotal     `json:"group_totals"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// CheckInPoint is one checked-in guest within the analytics window
type CheckInPoint struct {
	EventID     uint
	GuestID     uint
	CheckedInAt time.Time
}

// AllocationPoint is one active assignment joined with its item identity
type AllocationPoint struct {
	EventID  uint
	GuestID  uint
	ItemID   uint
	Quantity int
	Item     ItemIdentity
}

// AnalyticsDataset is the raw material Aggregate folds into a snapshot
type AnalyticsDataset struct {
	ScopeEventIDs []uint
	TotalGuests   int
	CheckIns      []CheckInPoint
	Allocations   []AllocationPoint
}

// AnalyticsRepository loads analytics inputs without taking locks
type AnalyticsRepository interface {
	Scope(ctx context.Context, eventID uint) ([]uint, error)
	Load(ctx context.Context, scope []uint, filter AnalyticsFilter) (*AnalyticsDataset, error)
}

// UnknownGeneration is returned by SnapshotCache.Get when the generation
// could not be read. Set ignores snapshots tagged with it.
const UnknownGeneration int64 = -1

// SnapshotCache fronts GetAnalytics. Implementations must treat failures as misses.
//
// Get reports the generation it looked at. Set stores the snapshot only while
// that generation is still current, so a snapshot computed before an
// Invalidate is never stored after it.
type SnapshotCache interface {
	Get(ctx context.Context, eventID uint, filter AnalyticsFilter) (snapshot *AnalyticsSnapshot, generation int64, ok bool)
	Set(ctx context.Context, eventID uint, filter AnalyticsFilter, generation int64, snapshot *AnalyticsSnapshot)
	Invalidate(ctx context.Context, eventID uint) error
}
