package notifier

import (
	"context"
	"sync"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// Backend names used in metrics and configuration
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Signal results recorded in metrics
const (
	resultPublished = "published"
	resultDelivered = "delivered"
	resultCoalesced = "coalesced"
	resultFailed    = "failed"
)

const defaultBufferSize = 16

type subscription struct {
	ch chan domain.ChangeSignal
}

// Hub is an in-process Notifier. Each subscriber owns a buffered channel;
// when the buffer is full the new signal is dropped because a pending one
// already tells the subscriber to re-fetch.
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint]map[*subscription]struct{}
	bufferSize int
	backend    string
}

// NewHub creates an in-memory hub
func NewHub(bufferSize int) *Hub {
	return newHub(bufferSize, BackendMemory)
}

func newHub(bufferSize int, backend string) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[uint]map[*subscription]struct{}),
		bufferSize: bufferSize,
		backend:    backend,
	}
}

// Publish delivers the signal to every current subscriber of its event
func (h *Hub) Publish(_ context.Context, signal domain.ChangeSignal) error {
	metrics.NotifierSignalsTotal.WithLabelValues(h.backend, resultPublished).Inc()
	h.deliver(signal)
	return nil
}

func (h *Hub) deliver(signal domain.ChangeSignal) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[signal.EventID] {
		select {
		case sub.ch <- signal:
			metrics.NotifierSignalsTotal.WithLabelValues(h.backend, resultDelivered).Inc()
		default:
			metrics.NotifierSignalsTotal.WithLabelValues(h.backend, resultCoalesced).Inc()
		}
	}
}

// Subscribe registers a subscriber for eventID. The returned channel is
// closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, eventID uint) (<-chan domain.ChangeSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscription{ch: make(chan domain.ChangeSignal, h.bufferSize)}

	h.mu.Lock()
	if h.subs[eventID] == nil {
		h.subs[eventID] = make(map[*subscription]struct{})
	}
	h.subs[eventID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(eventID, sub)
	}()

	return sub.ch, nil
}

func (h *Hub) remove(eventID uint, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[eventID], sub)
	if len(h.subs[eventID]) == 0 {
		delete(h.subs, eventID)
	}
	close(sub.ch)
}

// Subscribers returns the number of live subscriptions for eventID
func (h *Hub) Subscribers(eventID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}
