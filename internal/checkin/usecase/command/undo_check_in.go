package command

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// UndoCheckInCommand represents the command to reverse a check-in
type UndoCheckInCommand struct {
	EventID uint   `json:"event_id" validate:"required"`
	GuestID uint   `json:"guest_id" validate:"required"`
	Actor   string `json:"actor" validate:"required"`
	Reason  string `json:"reason" validate:"max=2000"`
}

// UndoCheckInHandler handles undo check-in command
type UndoCheckInHandler struct {
	ledger *Ledger
}

// NewUndoCheckInHandler creates a new undo check-in handler
func NewUndoCheckInHandler(ledger *Ledger) *UndoCheckInHandler {
	return &UndoCheckInHandler{ledger: ledger}
}

// Handle executes the undo check-in command
func (h *UndoCheckInHandler) Handle(ctx context.Context, cmd UndoCheckInCommand) (*domain.GuestState, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}
	return h.ledger.reverseCheckIn(ctx, cmd, reversal{
		operation: "undo_checkin",
		mutation:  domain.MutationUndoCheckIn,
		activity:  domain.ActivityUndoCheckIn,
		message:   "Undid check-in for %s",
	})
}

// ClearCheckInCommand represents the command to clear a check-in and its gifts
type ClearCheckInCommand = UndoCheckInCommand

// ClearCheckInHandler handles clear check-in command. It behaves like undo
// but is audited as an allocation update.
type ClearCheckInHandler struct {
	ledger *Ledger
}

// NewClearCheckInHandler creates a new clear check-in handler
func NewClearCheckInHandler(ledger *Ledger) *ClearCheckInHandler {
	return &ClearCheckInHandler{ledger: ledger}
}

// Handle executes the clear check-in command
func (h *ClearCheckInHandler) Handle(ctx context.Context, cmd ClearCheckInCommand) (*domain.GuestState, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}
	return h.ledger.reverseCheckIn(ctx, cmd, reversal{
		operation: "clear_checkin",
		mutation:  domain.MutationClearCheckIn,
		activity:  domain.ActivityAllocationUpdate,
		action:    "clear",
		message:   "Cleared check-in for %s",
	})
}

type reversal struct {
	operation string
	mutation  domain.MutationType
	activity  domain.ActivityType
	action    string
	message   string
}

func (l *Ledger) reverseCheckIn(ctx context.Context, cmd UndoCheckInCommand, r reversal) (*domain.GuestState, error) {
	var state domain.GuestState
	err := l.execute(ctx, r.operation, r.mutation, func(tx domain.LedgerTx, run *txRun) error {
		event, guest, err := loadGuestForEvent(tx, cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		run.event = event

		record, err := tx.LockCheckIn(cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		if !record.CheckedIn {
			return fmt.Errorf("%w: guest %d, event %d", domain.ErrNotCheckedIn, cmd.GuestID, cmd.EventID)
		}

		active, err := tx.ActiveAssignments(cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		items, err := lockItemsFor(tx, active, nil)
		if err != nil {
			return err
		}
		touched := make(map[uint]struct{}, len(active))
		if err := reverse(tx, run, items, active, cmd.Actor, touched); err != nil {
			return err
		}
		if _, err := saveTouched(tx, items, touched); err != nil {
			return err
		}

		record.CheckedIn = false
		record.CheckedInAt = nil
		record.CheckedInBy = ""
		if err := tx.SaveCheckIn(record); err != nil {
			return err
		}

		details := map[string]interface{}{
			"guest_id":       cmd.GuestID,
			"guest_name":     guest.FullName(),
			"message":        fmt.Sprintf(r.message, guest.FullName()),
			"reason":         cmd.Reason,
			"returned_gifts": giftDetails(items, active),
		}
		if r.action != "" {
			details["action"] = r.action
		}
		l.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        r.activity,
			PerformedBy: cmd.Actor,
			EventID:     &cmd.EventID,
			GuestID:     &cmd.GuestID,
			Details:     details,
		})

		state = guestState(record, guest, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("event_id", cmd.EventID).
		Uint("guest_id", cmd.GuestID).
		Str("actor", cmd.Actor).
		Str("mutation", string(r.mutation)).
		Msg("Check-in reversed")
	return &state, nil
}
