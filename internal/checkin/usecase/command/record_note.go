package command

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// RecordNoteCommand represents a free-form operator note on an event or guest
type RecordNoteCommand struct {
	EventID uint   `json:"event_id" validate:"required"`
	GuestID *uint  `json:"guest_id,omitempty"`
	Actor   string `json:"actor" validate:"required"`
	Message string `json:"message" validate:"required,max=2000"`
}

// RecordNoteHandler handles record note command
type RecordNoteHandler struct {
	ledger *Ledger
}

// NewRecordNoteHandler creates a new record note handler
func NewRecordNoteHandler(ledger *Ledger) *RecordNoteHandler {
	return &RecordNoteHandler{ledger: ledger}
}

// Handle appends a note entry. Unlike ledger mutations, the entry is the whole
// operation, so an append failure fails the command.
func (h *RecordNoteHandler) Handle(ctx context.Context, cmd RecordNoteCommand) (*domain.ActivityLogEntry, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}

	var recorded domain.ActivityLogEntry
	err := h.ledger.execute(ctx, "record_note", domain.MutationNote, func(tx domain.LedgerTx, run *txRun) error {
		event, err := tx.GetEvent(cmd.EventID)
		if err != nil {
			return err
		}
		run.event = event

		details := map[string]interface{}{"message": cmd.Message}
		if cmd.GuestID != nil {
			guest, err := tx.GetGuest(*cmd.GuestID)
			if err != nil {
				return err
			}
			details["guest_id"] = guest.ID
			details["guest_name"] = guest.FullName()
		}

		entry := domain.ActivityLogEntry{
			Type:        domain.ActivityNote,
			PerformedBy: cmd.Actor,
			EventID:     &cmd.EventID,
			GuestID:     cmd.GuestID,
			Timestamp:   h.ledger.now(),
			Details:     details,
		}
		if err := tx.AppendActivity(&entry); err != nil {
			metrics.ActivityAppendFailuresTotal.Inc()
			return fmt.Errorf("failed to record note: %w", err)
		}
		run.entries = append(run.entries, entry)
		recorded = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("event_id", cmd.EventID).
		Str("actor", cmd.Actor).
		Str("mutation", string(domain.MutationNote)).
		Msg("Note recorded")
	return &recorded, nil
}
