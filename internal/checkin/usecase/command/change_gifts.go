package command

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// ChangeGiftsCommand represents the command to replace a checked-in guest's gifts
type ChangeGiftsCommand struct {
	EventID        uint                   `json:"event_id" validate:"required"`
	GuestID        uint                   `json:"guest_id" validate:"required"`
	Actor          string                 `json:"actor" validate:"required"`
	GiftSelections []domain.GiftSelection `json:"gift_selections" validate:"dive"`
}

// ChangeGiftsHandler handles change gifts command
type ChangeGiftsHandler struct {
	ledger *Ledger
}

// NewChangeGiftsHandler creates a new change gifts handler
func NewChangeGiftsHandler(ledger *Ledger) *ChangeGiftsHandler {
	return &ChangeGiftsHandler{ledger: ledger}
}

// Handle reverses the current assignments and allocates the new selections
// in one transaction. On failure the original assignments stay in place.
func (h *ChangeGiftsHandler) Handle(ctx context.Context, cmd ChangeGiftsCommand) (*domain.CheckInResult, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}
	selections := domain.MergeSelections(cmd.GiftSelections)

	var result *domain.CheckInResult
	err := h.ledger.execute(ctx, "change_gifts", domain.MutationChangeGifts, func(tx domain.LedgerTx, run *txRun) error {
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

		current, err := tx.ActiveAssignments(cmd.EventID, cmd.GuestID)
		if err != nil {
			return err
		}
		items, err := lockItemsFor(tx, current, selections)
		if err != nil {
			return err
		}

		touched := make(map[uint]struct{}, len(current)+len(selections))
		if err := reverse(tx, run, items, current, cmd.Actor, touched); err != nil {
			return err
		}
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

		h.ledger.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        domain.ActivityUpdateGifts,
			PerformedBy: cmd.Actor,
			EventID:     &cmd.EventID,
			GuestID:     &cmd.GuestID,
			Details: map[string]interface{}{
				"guest_id":   cmd.GuestID,
				"guest_name": guest.FullName(),
				"message":    fmt.Sprintf("Updated gifts for %s", guest.FullName()),
				"old":        giftDetails(items, current),
				"new":        giftDetails(items, assignments),
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
		Str("mutation", string(domain.MutationChangeGifts)).
		Int("gifts", len(result.Assignments)).
		Msg("Guest gifts changed")
	return result, nil
}
