package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

// Stream message types
const (
	StreamSubscribed = "subscribed"
	StreamChanged    = "changed"
)

// StreamMessage is written to dashboard clients. A changed message means the
// event's analytics must be re-fetched.
type StreamMessage struct {
	Type    string               `json:"type"`
	EventID uint                 `json:"event_id"`
	Signal  *domain.ChangeSignal `json:"signal,omitempty"`
}

func (o StreamOrigins) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range o {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Stream handles GET /api/events/{eventID}/stream
func (h *CheckInHandler) Stream(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	signals, err := h.notifier.Subscribe(ctx, eventID)
	if err != nil {
		logger.Error(ctx).Err(err).Uint("event_id", eventID).Msg("Failed to subscribe to change signals")
		respondJSON(w, http.StatusServiceUnavailable, Response{
			Success:   false,
			Error:     "Change stream unavailable",
			Retryable: true,
		})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Warn(ctx).Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()
	logger.Info(ctx).Uint("event_id", eventID).Msg("Dashboard stream opened")

	go readStream(conn, cancel)

	if err := writeStream(ctx, conn, StreamMessage{Type: StreamSubscribed, EventID: eventID}); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case signal, ok := <-signals:
			if !ok {
				return
			}
			if err := writeStream(ctx, conn, StreamMessage{Type: StreamChanged, EventID: eventID, Signal: &signal}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeStream(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Debug(ctx).Err(err).Msg("Dashboard stream write failed")
		return err
	}
	return nil
}

// readStream drains client frames so pongs and close frames are processed.
// Any read error ends the stream.
func readStream(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Logger.Debug().Err(err).Msg("Dashboard stream closed unexpectedly")
			}
			return
		}
	}
}
