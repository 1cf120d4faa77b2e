package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// ChannelName is the Redis pub/sub channel for an event
func ChannelName(eventID uint) string {
	return fmt.Sprintf("checkin:events:%d", eventID)
}

// RedisNotifier publishes change signals over Redis pub/sub so every
// instance behind the load balancer sees them.
type RedisNotifier struct {
	client     *redis.Client
	bufferSize int
}

// NewRedisNotifier creates a Redis-backed notifier
func NewRedisNotifier(client *redis.Client, bufferSize int) *RedisNotifier {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &RedisNotifier{client: client, bufferSize: bufferSize}
}

// Publish sends the signal on the event's channel
func (n *RedisNotifier) Publish(ctx context.Context, signal domain.ChangeSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to encode change signal: %w", err)
	}
	if err := n.client.Publish(ctx, ChannelName(signal.EventID), payload).Err(); err != nil {
		metrics.NotifierSignalsTotal.WithLabelValues(BackendRedis, resultFailed).Inc()
		return fmt.Errorf("failed to publish change signal: %w", err)
	}
	metrics.NotifierSignalsTotal.WithLabelValues(BackendRedis, resultPublished).Inc()
	return nil
}

// Subscribe opens a dedicated Redis subscription for eventID
func (n *RedisNotifier) Subscribe(ctx context.Context, eventID uint) (<-chan domain.ChangeSignal, error) {
	pubsub := n.client.Subscribe(ctx, ChannelName(eventID))
	// Wait for the subscription confirmation so no signal published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to event %d: %w", eventID, err)
	}

	out := make(chan domain.ChangeSignal, n.bufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var signal domain.ChangeSignal
				if err := json.Unmarshal([]byte(msg.Payload), &signal); err != nil {
					logger.Warn(ctx).Err(err).Str("channel", msg.Channel).Msg("Dropping malformed change signal")
					continue
				}
				select {
				case out <- signal:
					metrics.NotifierSignalsTotal.WithLabelValues(BackendRedis, resultDelivered).Inc()
				default:
					metrics.NotifierSignalsTotal.WithLabelValues(BackendRedis, resultCoalesced).Inc()
				}
			}
		}
	}()

	return out, nil
}
