package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

const keyPrefix = "checkin:analytics"

// setIfCurrent writes KEYS[2] only while the generation in KEYS[1] still
// equals ARGV[1]. A missing generation key counts as 0.
var setIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// Config holds snapshot cache settings
type Config struct {
	TTL              time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// RedisSnapshotCache stores analytics snapshots in Redis. Every event has a
// generation counter that is bumped on invalidation, so stale snapshots are
// never read again and simply expire. Redis failures are reported as misses
// and trip a circuit breaker so a dead Redis does not add latency to every
// dashboard request.
type RedisSnapshotCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewRedisSnapshotCache creates a Redis snapshot cache
func NewRedisSnapshotCache(client *redis.Client, cfg Config) *RedisSnapshotCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "analytics-cache",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("circuit", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Analytics cache circuit breaker state changed")
		},
	}

	return &RedisSnapshotCache{
		client:  client,
		ttl:     cfg.TTL,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// GenerationKey holds the invalidation counter of an event. The event id is
// a hash tag so the counter and its snapshots share a cluster slot.
func GenerationKey(eventID uint) string {
	return fmt.Sprintf("%s:{%d}:gen", keyPrefix, eventID)
}

// SnapshotKey addresses one snapshot of an event generation
func SnapshotKey(eventID uint, generation int64, filter domain.AnalyticsFilter) string {
	return fmt.Sprintf("%s:{%d}:%d:%s", keyPrefix, eventID, generation, filterHash(filter))
}

func filterHash(filter domain.AnalyticsFilter) string {
	var start, end int64
	if filter.StartDate != nil {
		start = filter.StartDate.UnixNano()
	}
	if filter.EndDate != nil {
		end = filter.EndDate.UnixNano()
	}
	raw := fmt.Sprintf("%s|%s|%d|%d", filter.Granularity, filter.GroupBy, start, end)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

func (c *RedisSnapshotCache) generation(ctx context.Context, eventID uint) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached snapshot, if any, and the generation it was looked
// up under. The generation is UnknownGeneration when Redis could not be read.
func (c *RedisSnapshotCache) Get(ctx context.Context, eventID uint, filter domain.AnalyticsFilter) (*domain.AnalyticsSnapshot, int64, bool) {
	gen := domain.UnknownGeneration
	payload, err := c.breaker.Execute(func() ([]byte, error) {
		current, err := c.generation(ctx, eventID)
		if err != nil {
			return nil, err
		}
		gen = current
		data, err := c.client.Get(ctx, SnapshotKey(eventID, current, filter)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		logger.Debug(ctx).Err(err).Uint("event_id", eventID).Msg("Analytics cache read failed")
		return nil, domain.UnknownGeneration, false
	}
	if payload == nil {
		return nil, gen, false
	}

	var snap domain.AnalyticsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		logger.Warn(ctx).Err(err).Uint("event_id", eventID).Msg("Discarding undecodable analytics snapshot")
		return nil, gen, false
	}
	return &snap, gen, true
}

// Set stores a snapshot computed after a miss at generation. The write is
// skipped when the event was invalidated in between.
func (c *RedisSnapshotCache) Set(ctx context.Context, eventID uint, filter domain.AnalyticsFilter, generation int64, snap *domain.AnalyticsSnapshot) {
	if generation < 0 {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("event_id", eventID).Msg("Failed to encode analytics snapshot")
		return
	}

	var stored int64
	_, err = c.breaker.Execute(func() ([]byte, error) {
		keys := []string{GenerationKey(eventID), SnapshotKey(eventID, generation, filter)}
		n, err := setIfCurrent.Run(ctx, c.client, keys, generation, payload, c.ttl.Milliseconds()).Int64()
		stored = n
		return nil, err
	})
	if err != nil {
		logger.Debug(ctx).Err(err).Uint("event_id", eventID).Msg("Analytics cache write failed")
		return
	}
	if stored == 0 {
		logger.Debug(ctx).
			Uint("event_id", eventID).
			Int64("generation", generation).
			Msg("Analytics snapshot superseded by invalidation, not cached")
	}
}

// Invalidate bumps the event generation
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, eventID uint) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Incr(ctx, GenerationKey(eventID)).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate analytics cache for event %d: %w", eventID, err)
	}
	return nil
}

// State reports the circuit breaker state
func (c *RedisSnapshotCache) State() gobreaker.State {
	return c.breaker.State()
}
