package command

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// CheckInCommand represents the command to check a guest in and hand out gifts
type CheckInCommand struct {
	EventID        uint                   `json:"event_id" validate:"required"`
	GuestID        uint                   `json:"guest_id" validate:"required"`
	Actor          string                 `json:"actor" validate:"required"`
	GiftSelections []domain.GiftSelection `json:"gift_selections" validate:"dive"`
	Notes          string                 `json:"notes" validate:"max=2000"`
}

// CheckInHandler handles check-in command
type CheckInHandler struct {
	ledger *Ledger
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(ledger *Ledger) *CheckInHandler {
	return &CheckInHandler{ledger: ledger}
}

// Handle executes the check-in command
func (h *CheckInHandler) Handle(ctx context.Context, cmd CheckInCommand) (*domain.CheckInResult, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}
	selections := domain.MergeSelections(cmd.GiftSelections)

	var result *domain.CheckInResult
	err := h.ledger.execute(ctx, "checkin", domain.MutationCheckIn, func(tx domain.LedgerTx, run *txRun) error {
		event, guest, err := loadGuestForEvent(tx, cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		run.event = event

		record, err := tx.LockCheckIn(cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		if record.CheckedIn {
			return fmt.Errorf("%w: guest %d, event %d", domain.ErrAlreadyCheckedIn, cmd.GuestID, cmd.EventID)
		}

		items, err := lockItemsFor(tx, nil, selections)
		if err != nil {
			return err
		}
		touched := make(map[uint]struct{}, len(selections))
		assignments, err := allocate(run, items, cmd.EventID, cmd.GuestID, selections, touched)
		if err != nil {
			return err
		}
		depleted, err := saveTouched(tx, items, touched)
		if err != nil {
			return err
		}
		if err := tx.CreateAssignments(assignments); err != nil {
			return err
		}

		now := h.ledger.now()
		record.CheckedIn = true
		record.CheckedInAt = &now
		record.CheckedInBy = cmd.Actor
		record.Notes = cmd.Notes
		if err := tx.SaveCheckIn(record); err != nil {
			return err
		}

		h.ledger.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        domain.ActivityCheckIn,
			PerformedBy: cmd.Actor,
			EventID:     &cmd.EventID,
			GuestID:     &cmd.GuestID,
			Details: map[string]interface{}{
				"guest_id":   cmd.GuestID,
				"guest_name": guest.FullName(),
				"message":    fmt.Sprintf("Checked in %s", guest.FullName()),
				"notes":      cmd.Notes,
				"gifts":      giftDetails(items, assignments),
			},
		})

		result = &domain.CheckInResult{
			GuestState: guestState(record, guest, assignments),
			Depleted:   depleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("event_id", cmd.EventID).
		Uint("guest_id", cmd.GuestID).
		Str("actor", cmd.Actor).
		Str("mutation", string(domain.MutationCheckIn)).
		Int("gifts", len(result.Assignments)).
		Msg("Guest checked in")
	return result, nil
}
