package query

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// Activity page bounds
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// ListActivityQuery represents the query to read an event's audit trail
type ListActivityQuery struct {
	EventID uint
	Type    domain.ActivityType
	Limit   int
}

// ListActivityHandler handles list activity query
type ListActivityHandler struct {
	repo domain.ActivityRepository
}

// NewListActivityHandler creates a new list activity handler
func NewListActivityHandler(repo domain.ActivityRepository) *ListActivityHandler {
	return &ListActivityHandler{repo: repo}
}

// Handle returns entries newest first
func (h *ListActivityHandler) Handle(ctx context.Context, query ListActivityQuery) ([]domain.ActivityLogEntry, error) {
	if query.EventID == 0 {
		return nil, domain.Invalid("event_id is required")
	}
	if query.Type != "" && !query.Type.Valid() {
		return nil, domain.Invalid("unknown activity type %q", query.Type)
	}
	if query.Limit <= 0 {
		query.Limit = DefaultActivityLimit
	}
	if query.Limit > MaxActivityLimit {
		query.Limit = MaxActivityLimit
	}

	entries, err := h.repo.List(ctx, domain.ActivityFilter{
		EventID: query.EventID,
		Type:    query.Type,
		Limit:   query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
