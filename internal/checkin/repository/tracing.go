package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

var tracer = otel.Tracer("checkin-repository")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LedgerStoreWithTracing wraps a ledger store with a span per transaction
type LedgerStoreWithTracing struct {
	next domain.LedgerStore
}

// NewLedgerStoreWithTracing creates a traced ledger store
func NewLedgerStoreWithTracing(next domain.LedgerStore) *LedgerStoreWithTracing {
	return &LedgerStoreWithTracing{next: next}
}

// WithinTx with tracing
func (s *LedgerStoreWithTracing) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) (err error) {
	ctx, span := tracer.Start(ctx, "repository.WithinTx")
	defer func() { endSpan(span, err) }()

	attempts := 0
	err = s.next.WithinTx(ctx, func(tx domain.LedgerTx) error {
		attempts++
		return fn(tx)
	})
	span.SetAttributes(attribute.Int("ledger.attempts", attempts))
	return err
}

// AnalyticsRepositoryWithTracing wraps an analytics repository with spans
type AnalyticsRepositoryWithTracing struct {
	next domain.AnalyticsRepository
}

// NewAnalyticsRepositoryWithTracing creates a traced analytics repository
func NewAnalyticsRepositoryWithTracing(next domain.AnalyticsRepository) *AnalyticsRepositoryWithTracing {
	return &AnalyticsRepositoryWithTracing{next: next}
}

// Scope with tracing
func (r *AnalyticsRepositoryWithTracing) Scope(ctx context.Context, eventID uint) (scope []uint, err error) {
	ctx, span := tracer.Start(ctx, "repository.AnalyticsScope",
		trace.WithAttributes(attribute.Int("event.id", int(eventID))),
	)
	defer func() { endSpan(span, err) }()

	scope, err = r.next.Scope(ctx, eventID)
	span.SetAttributes(attribute.Int("analytics.scope_size", len(scope)))
	return scope, err
}

// Load with tracing
func (r *AnalyticsRepositoryWithTracing) Load(ctx context.Context, scope []uint, filter domain.AnalyticsFilter) (ds *domain.AnalyticsDataset, err error) {
	ctx, span := tracer.Start(ctx, "repository.AnalyticsLoad",
		trace.WithAttributes(
			attribute.Int("analytics.scope_size", len(scope)),
			attribute.String("analytics.granularity", string(filter.Granularity)),
		),
	)
	defer func() { endSpan(span, err) }()

	ds, err = r.next.Load(ctx, scope, filter)
	if err == nil {
		span.SetAttributes(
			attribute.Int("analytics.checkins", len(ds.CheckIns)),
			attribute.Int("analytics.allocations", len(ds.Allocations)),
		)
	}
	return ds, err
}

// ActivityRepositoryWithTracing wraps an activity repository with spans
type ActivityRepositoryWithTracing struct {
	next domain.ActivityRepository
}

// NewActivityRepositoryWithTracing creates a traced activity repository
func NewActivityRepositoryWithTracing(next domain.ActivityRepository) *ActivityRepositoryWithTracing {
	return &ActivityRepositoryWithTracing{next: next}
}

// List with tracing
func (r *ActivityRepositoryWithTracing) List(ctx context.Context, filter domain.ActivityFilter) (entries []domain.ActivityLogEntry, err error) {
	ctx, span := tracer.Start(ctx, "repository.ListActivity",
		trace.WithAttributes(
			attribute.Int("event.id", int(filter.EventID)),
			attribute.String("activity.type", string(filter.Type)),
			attribute.Int("activity.limit", filter.Limit),
		),
	)
	defer func() { endSpan(span, err) }()

	return r.next.List(ctx, filter)
}
