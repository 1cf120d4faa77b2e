package query

import (
	"fmt"
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

var bucketLayouts = map[domain.Granularity]string{
	domain.GranularityMinute: "2006-01-02T15:04",
	domain.GranularityHour:   "2006-01-02T15",
	domain.GranularityDay:    "2006-01-02",
}

// BucketStart truncates t in UTC to the start of its bucket
func BucketStart(t time.Time, g domain.Granularity) time.Time {
	t = t.UTC()
	switch g {
	case domain.GranularityMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	case domain.GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}
}

// BucketKey formats the bucket of t, e.g. 2026-03-14T10 for an hour bucket
func BucketKey(t time.Time, g domain.Granularity) string {
	layout, ok := bucketLayouts[g]
	if !ok {
		layout = bucketLayouts[domain.GranularityHour]
	}
	return BucketStart(t, g).Format(layout)
}

// ParseBucketKey maps a key back to the UTC instant its bucket starts at
func ParseBucketKey(key string, g domain.Granularity) (time.Time, error) {
	layout, ok := bucketLayouts[g]
	if !ok {
		return time.Time{}, domain.Invalid("unknown granularity %q", g)
	}
	t, err := time.ParseInLocation(layout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bucket key %q: %v", domain.ErrInvalidArgument, key, err)
	}
	return t, nil
}
