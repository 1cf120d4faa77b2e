package cache

import (
	"context"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// InvalidatingNotifier drops cached snapshots of an event before its change
// signal goes out, so subscribers that re-fetch never see the old snapshot.
type InvalidatingNotifier struct {
	domain.Notifier
	cache domain.SnapshotCache
}

// NewInvalidatingNotifier wraps next. A nil cache returns next unchanged.
func NewInvalidatingNotifier(next domain.Notifier, cache domain.SnapshotCache) domain.Notifier {
	if cache == nil {
		return next
	}
	return &InvalidatingNotifier{Notifier: next, cache: cache}
}

// Publish invalidates the event's snapshots, then forwards the signal
func (n *InvalidatingNotifier) Publish(ctx context.Context, signal domain.ChangeSignal) error {
	if err := n.cache.Invalidate(ctx, signal.EventID); err != nil {
		logger.Warn(ctx).Err(err).Uint("event_id", signal.EventID).Msg("Analytics cache invalidation failed")
	}
	return n.Notifier.Publish(ctx, signal)
}
