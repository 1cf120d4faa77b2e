package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/usecase/command"
	"github.com/tair/checkin-ledger/kafka"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// DefaultKioskActor is recorded when a request names no actor
const DefaultKioskActor = "kiosk"

// NewCheckInRequestedHandler runs CheckIn for each kiosk request. Rejections
// the kiosk cannot fix by retrying (already checked in, out of stock, unknown
// guest) are logged and swallowed.
func NewCheckInRequestedHandler(checkIn *command.CheckInHandler) kafka.EventHandler {
	return func(ctx context.Context, payload []byte) error {
		var event kafka.CheckInRequestedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to unmarshal check-in request: %w", err)
		}

		actor := event.Actor
		if actor == "" {
			actor = DefaultKioskActor
		}

		result, err := checkIn.Handle(ctx, command.CheckInCommand{
			EventID:        event.EventID,
			GuestID:        event.GuestID,
			Actor:          actor,
			GiftSelections: event.GiftSelections,
			Notes:          event.Notes,
		})
		switch {
		case err == nil:
			logger.Info(ctx).
				Str("message_id", event.MessageID).
				Uint("event_id", event.EventID).
				Uint("guest_id", event.GuestID).
				Int("assignments", len(result.Assignments)).
				Msg("Kiosk check-in applied")
			return nil
		case rejected(err):
			logger.Warn(ctx).
				Err(err).
				Str("message_id", event.MessageID).
				Uint("event_id", event.EventID).
				Uint("guest_id", event.GuestID).
				Msg("Kiosk check-in rejected")
			return nil
		default:
			return err
		}
	}
}

func rejected(err error) bool {
	return errors.Is(err, domain.ErrAlreadyCheckedIn) ||
		errors.Is(err, domain.ErrInsufficientInventory) ||
		errors.Is(err, domain.ErrMaxPerGuestExceeded) ||
		errors.Is(err, domain.ErrGuestNotFound) ||
		errors.Is(err, domain.ErrEventNotFound) ||
		errors.Is(err, domain.ErrItemNotFound) ||
		errors.Is(err, domain.ErrInvalidArgument)
}
