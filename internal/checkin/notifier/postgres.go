package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// PostgresChannel is the LISTEN/NOTIFY channel carrying change signals
const PostgresChannel = "checkin_events"

const (
	listenerMinReconnect = time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PostgresNotifier publishes through pg_notify and fans received
// notifications out to local subscribers. Serve must be running for
// subscribers to receive anything.
type PostgresNotifier struct {
	db  *gorm.DB
	dsn string
	hub *Hub
}

// NewPostgresNotifier creates a LISTEN/NOTIFY notifier
func NewPostgresNotifier(db *gorm.DB, dsn string, bufferSize int) *PostgresNotifier {
	return &PostgresNotifier{
		db:  db,
		dsn: dsn,
		hub: newHub(bufferSize, BackendPostgres),
	}
}

// Publish issues pg_notify for the signal
func (n *PostgresNotifier) Publish(ctx context.Context, signal domain.ChangeSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to encode change signal: %w", err)
	}
	if err := n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", PostgresChannel, string(payload)).Error; err != nil {
		metrics.NotifierSignalsTotal.WithLabelValues(BackendPostgres, resultFailed).Inc()
		return fmt.Errorf("failed to notify change signal: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber
func (n *PostgresNotifier) Subscribe(ctx context.Context, eventID uint) (<-chan domain.ChangeSignal, error) {
	return n.hub.Subscribe(ctx, eventID)
}

// Serve listens on PostgresChannel until ctx is done
func (n *PostgresNotifier) Serve(ctx context.Context) error {
	listener := pq.NewListener(n.dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn(ctx).Err(err).Int("listener_event", int(ev)).Msg("Postgres listener event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(PostgresChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", PostgresChannel, err)
	}
	logger.Info(ctx).Str("channel", PostgresChannel).Msg("Postgres notifier listening")

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case note := <-listener.Notify:
			// nil after a reconnect
			if note == nil {
				continue
			}
			n.dispatch(ctx, note.Extra)
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				logger.Warn(ctx).Err(err).Msg("Postgres listener ping failed")
			}
		}
	}
}

func (n *PostgresNotifier) dispatch(ctx context.Context, payload string) {
	var signal domain.ChangeSignal
	if err := json.Unmarshal([]byte(payload), &signal); err != nil {
		logger.Warn(ctx).Err(err).Msg("Dropping malformed change signal")
		return
	}
	metrics.NotifierSignalsTotal.WithLabelValues(BackendPostgres, resultPublished).Inc()
	n.hub.deliver(signal)
}

func (n *PostgresNotifier) String() string {
	return "postgres-notifier"
}
