package domain

import (
	"context"
	"time"
)

// MutationType names the ledger change that caused a signal
type MutationType string

const (
	MutationCheckIn      MutationType = "checkin"
	MutationUndoCheckIn  MutationType = "undo_checkin"
	MutationClearCheckIn MutationType = "clear_checkin"
	MutationChangeGifts  MutationType = "change_gifts"
	MutationInventory    MutationType = "inventory"
	MutationNote         MutationType = "note"
)

// ChangeSignal tells subscribers that analytics for EventID are stale.
// It carries no business data; consumers re-fetch.
type ChangeSignal struct {
	EventID     uint         `json:"event_id"`
	Mutation    MutationType `json:"mutation"`
	PublishedAt time.Time    `json:"published_at"`
}

// Notifier fans change signals out to subscribers
type Notifier interface {
	Publish(ctx context.Context, signal ChangeSignal) error
	// Subscribe returns a channel that is closed when ctx is done
	Subscribe(ctx context.Context, eventID uint) (<-chan ChangeSignal, error)
}
