package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// GetAnalyticsQuery represents the query for an event dashboard snapshot
type GetAnalyticsQuery struct {
	EventID uint
	Filter  domain.AnalyticsFilter
}

// GetAnalyticsHandler handles get analytics query
type GetAnalyticsHandler struct {
	repo  domain.AnalyticsRepository
	cache domain.SnapshotCache
	now   func() time.Time
}

// NewGetAnalyticsHandler creates a new get analytics handler. cache may be nil.
func NewGetAnalyticsHandler(repo domain.AnalyticsRepository, cache domain.SnapshotCache) *GetAnalyticsHandler {
	return &GetAnalyticsHandler{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the get analytics query
func (h *GetAnalyticsHandler) Handle(ctx context.Context, query GetAnalyticsQuery) (*domain.AnalyticsSnapshot, error) {
	start := time.Now()

	if query.EventID == 0 {
		return nil, domain.Invalid("event_id is required")
	}
	filter := query.Filter
	if filter.Granularity == "" {
		filter.Granularity = domain.GranularityHour
	}
	if filter.GroupBy == "" {
		filter.GroupBy = domain.GroupByCategory
	}
	if !filter.Granularity.Valid() {
		return nil, domain.Invalid("granularity must be one of minute, hour, day")
	}
	if !filter.GroupBy.Valid() {
		return nil, domain.Invalid("group_by must be one of category, style, product")
	}

	generation := domain.UnknownGeneration
	if h.cache != nil {
		snap, gen, ok := h.cache.Get(ctx, query.EventID, filter)
		if ok {
			metrics.AnalyticsCacheTotal.WithLabelValues("hit").Inc()
			metrics.RecordAnalytics(string(filter.Granularity), "cache", time.Since(start))
			return snap, nil
		}
		generation = gen
		metrics.AnalyticsCacheTotal.WithLabelValues("miss").Inc()
	}

	scope, err := h.repo.Scope(ctx, query.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	ds, err := h.repo.Load(ctx, scope, filter)
	if err != nil {
		return nil, unavailable(err)
	}

	snap := Aggregate(query.EventID, ds, filter, h.now())
	if h.cache != nil {
		h.cache.Set(ctx, query.EventID, filter, generation, snap)
	}
	metrics.RecordAnalytics(string(filter.Granularity), "compute", time.Since(start))
	return snap, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrAnalyticsUnavailable, err)
}
