package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

type stubAnalyticsRepo struct {
	scope    []uint
	ds       *domain.AnalyticsDataset
	scopeErr error
	loadErr  error
	loads    int
	filter   domain.AnalyticsFilter
	// onLoad runs inside Load, before the dataset is returned
	onLoad func()
}

func (r *stubAnalyticsRepo) Scope(context.Context, uint) ([]uint, error) {
	return r.scope, r.scopeErr
}

func (r *stubAnalyticsRepo) Load(_ context.Context, _ []uint, filter domain.AnalyticsFilter) (*domain.AnalyticsDataset, error) {
	r.loads++
	r.filter = filter
	if r.onLoad != nil {
		r.onLoad()
	}
	return r.ds, r.loadErr
}

type mapCache struct {
	gen   int64
	snaps map[string]*domain.AnalyticsSnapshot
}

func (c *mapCache) key(eventID uint, gen int64, f domain.AnalyticsFilter) string {
	return fmt.Sprintf("%s/%s/%d/%d", f.Granularity, f.GroupBy, eventID, gen)
}

func (c *mapCache) Get(_ context.Context, eventID uint, f domain.AnalyticsFilter) (*domain.AnalyticsSnapshot, int64, bool) {
	s, ok := c.snaps[c.key(eventID, c.gen, f)]
	return s, c.gen, ok
}

func (c *mapCache) Set(_ context.Context, eventID uint, f domain.AnalyticsFilter, gen int64, s *domain.AnalyticsSnapshot) {
	if gen != c.gen {
		return
	}
	c.snaps[c.key(eventID, gen, f)] = s
}

func (c *mapCache) Invalidate(context.Context, uint) error {
	c.gen++
	return nil
}

func TestGetAnalyticsDefaultsAndCache(t *testing.T) {
	repo := &stubAnalyticsRepo{
		scope: []uint{1},
		ds: &domain.AnalyticsDataset{
			ScopeEventIDs: []uint{1},
			TotalGuests:   2,
			CheckIns:      []domain.CheckInPoint{{EventID: 1, GuestID: 1, CheckedInAt: at(10, 5)}},
		},
	}
	cache := &mapCache{snaps: map[string]*domain.AnalyticsSnapshot{}}
	handler := NewGetAnalyticsHandler(repo, cache)

	snap, err := handler.Handle(context.Background(), GetAnalyticsQuery{EventID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if snap.Granularity != domain.GranularityHour || snap.GroupBy != domain.GroupByCategory {
		t.Fatalf("expected hour/category defaults, got %s/%s", snap.Granularity, snap.GroupBy)
	}
	if snap.CheckInPercentage != 50 {
		t.Fatalf("expected 50%%, got %d", snap.CheckInPercentage)
	}

	if _, err := handler.Handle(context.Background(), GetAnalyticsQuery{EventID: 1}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.loads != 1 {
		t.Fatalf("second read should be served from cache, loads = %d", repo.loads)
	}

	_ = cache.Invalidate(context.Background(), 1)
	if _, err := handler.Handle(context.Background(), GetAnalyticsQuery{EventID: 1}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.loads != 2 {
		t.Fatalf("invalidation should force a recompute, loads = %d", repo.loads)
	}
}

func TestGetAnalyticsEmptyRange(t *testing.T) {
	repo := &stubAnalyticsRepo{scope: []uint{1}, ds: &domain.AnalyticsDataset{ScopeEventIDs: []uint{1}}}
	handler := NewGetAnalyticsHandler(repo, nil)

	start, end := at(12, 0), at(10, 0)
	snap, err := handler.Handle(context.Background(), GetAnalyticsQuery{
		EventID: 1,
		Filter:  domain.AnalyticsFilter{StartDate: &start, EndDate: &end},
	})
	if err != nil {
		t.Fatalf("an inverted range should not fail: %v", err)
	}
	if snap.CheckInPercentage != 0 || snap.Peak != nil || len(snap.Timeline) != 0 {
		t.Fatalf("expected an empty snapshot, got %+v", snap)
	}
}

func TestGetAnalyticsErrors(t *testing.T) {
	tests := []struct {
		name  string
		repo  *stubAnalyticsRepo
		query GetAnalyticsQuery
		want  error
	}{
		{
			name:  "bad granularity",
			repo:  &stubAnalyticsRepo{},
			query: GetAnalyticsQuery{EventID: 1, Filter: domain.AnalyticsFilter{Granularity: "week"}},
			want:  domain.ErrInvalidArgument,
		},
		{
			name:  "bad group by",
			repo:  &stubAnalyticsRepo{},
			query: GetAnalyticsQuery{EventID: 1, Filter: domain.AnalyticsFilter{GroupBy: "size"}},
			want:  domain.ErrInvalidArgument,
		},
		{
			name:  "unknown event",
			repo:  &stubAnalyticsRepo{scopeErr: domain.ErrEventNotFound},
			query: GetAnalyticsQuery{EventID: 1},
			want:  domain.ErrEventNotFound,
		},
		{
			name:  "repository down",
			repo:  &stubAnalyticsRepo{scope: []uint{1}, loadErr: errors.New("connection refused")},
			query: GetAnalyticsQuery{EventID: 1},
			want:  domain.ErrAnalyticsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGetAnalyticsHandler(tt.repo, nil).Handle(context.Background(), tt.query)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type stubActivityRepo struct {
	filter domain.ActivityFilter
}

func (r *stubActivityRepo) List(_ context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	r.filter = filter
	return nil, nil
}

func TestListActivityLimits(t *testing.T) {
	repo := &stubActivityRepo{}
	handler := NewListActivityHandler(repo)

	if _, err := handler.Handle(context.Background(), ListActivityQuery{EventID: 1}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.filter.Limit != DefaultActivityLimit {
		t.Fatalf("expected default limit, got %d", repo.filter.Limit)
	}

	if _, err := handler.Handle(context.Background(), ListActivityQuery{EventID: 1, Limit: 10000}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.filter.Limit != MaxActivityLimit {
		t.Fatalf("expected limit capped at %d, got %d", MaxActivityLimit, repo.filter.Limit)
	}

	if _, err := handler.Handle(context.Background(), ListActivityQuery{EventID: 1, Type: "delete"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected unknown type to be rejected, got %v", err)
	}
}

func TestGetAnalyticsDropsSnapshotInvalidatedDuringCompute(t *testing.T) {
	cache := &mapCache{snaps: map[string]*domain.AnalyticsSnapshot{}}
	repo := &stubAnalyticsRepo{
		scope: []uint{1},
		ds:    &domain.AnalyticsDataset{ScopeEventIDs: []uint{1}, TotalGuests: 1},
	}
	// A check-in commits while the first read is still loading rows
	repo.onLoad = func() {
		repo.onLoad = nil
		_ = cache.Invalidate(context.Background(), 1)
	}
	handler := NewGetAnalyticsHandler(repo, cache)

	if _, err := handler.Handle(context.Background(), GetAnalyticsQuery{EventID: 1}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(cache.snaps) != 0 {
		t.Fatalf("snapshot computed before the invalidation must not be cached, got %d entries", len(cache.snaps))
	}

	repo.ds = &domain.AnalyticsDataset{
		ScopeEventIDs: []uint{1},
		TotalGuests:   1,
		CheckIns:      []domain.CheckInPoint{{EventID: 1, GuestID: 1, CheckedInAt: at(10, 5)}},
	}
	snap, err := handler.Handle(context.Background(), GetAnalyticsQuery{EventID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.loads != 2 || snap.CheckedInGuests != 1 {
		t.Fatalf("expected a fresh recompute, loads = %d checked in = %d", repo.loads, snap.CheckedInGuests)
	}
}
