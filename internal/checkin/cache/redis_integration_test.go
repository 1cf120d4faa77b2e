//go:build integration

package cache

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}

	container, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(context.Background(), "")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisSnapshotCacheRoundTrip(t *testing.T) {
	c := NewRedisSnapshotCache(startRedis(t), Config{TTL: time.Minute})
	ctx := context.Background()
	filter := domain.AnalyticsFilter{Granularity: domain.GranularityHour, GroupBy: domain.GroupByStyle}

	_, gen, ok := c.Get(ctx, 3, filter)
	if ok {
		t.Fatal("expected cold miss")
	}

	c.Set(ctx, 3, filter, gen, &domain.AnalyticsSnapshot{EventID: 3, TotalGuests: 12, CheckInPercentage: 25})
	snap, _, ok := c.Get(ctx, 3, filter)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if snap.TotalGuests != 12 || snap.CheckInPercentage != 25 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := c.Invalidate(ctx, 3); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, _, ok := c.Get(ctx, 3, filter); ok {
		t.Fatal("expected miss after invalidation")
	}
}
