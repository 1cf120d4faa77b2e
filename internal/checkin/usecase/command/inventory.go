package command

import (
	"context"
	"fmt"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// AdjustInventoryCommand represents a manual stock correction
type AdjustInventoryCommand struct {
	ItemID uint   `json:"item_id" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
	Delta  int    `json:"delta" validate:"ne=0"`
	Reason string `json:"reason" validate:"max=2000"`
}

// AdjustInventoryHandler handles adjust inventory command
type AdjustInventoryHandler struct {
	ledger *Ledger
}

// NewAdjustInventoryHandler creates a new adjust inventory handler
func NewAdjustInventoryHandler(ledger *Ledger) *AdjustInventoryHandler {
	return &AdjustInventoryHandler{ledger: ledger}
}

// Handle executes the adjust inventory command. On-hand never goes negative.
func (h *AdjustInventoryHandler) Handle(ctx context.Context, cmd AdjustInventoryCommand) (*domain.InventoryItem, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}

	var updated domain.InventoryItem
	err := h.ledger.execute(ctx, "adjust_inventory", domain.MutationInventory, func(tx domain.LedgerTx, run *txRun) error {
		item, err := lockItem(tx, cmd.ItemID)
		if err != nil {
			return err
		}
		if run.event, err = tx.GetEvent(item.EventID); err != nil {
			return err
		}

		before := item.QuantityOnHand
		if before+cmd.Delta < 0 {
			return &domain.InsufficientInventoryError{Shortages: []domain.Shortage{{
				ItemID:    item.ID,
				Requested: -cmd.Delta,
				Available: before,
			}}}
		}
		item.QuantityOnHand += cmd.Delta
		if err := tx.SaveItem(item); err != nil {
			return err
		}

		activity := domain.ActivityInventoryAdd
		if cmd.Delta < 0 {
			activity = domain.ActivityInventoryUpdate
		}
		h.ledger.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        activity,
			PerformedBy: cmd.Actor,
			EventID:     &item.EventID,
			Details: map[string]interface{}{
				"item_id":         item.ID,
				"label":           item.Label(),
				"delta":           cmd.Delta,
				"quantity_before": before,
				"quantity_after":  item.QuantityOnHand,
				"reason":          cmd.Reason,
				"message":         fmt.Sprintf("Adjusted %s by %+d", item.Label(), cmd.Delta),
			},
		})

		updated = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("item_id", cmd.ItemID).
		Int("delta", cmd.Delta).
		Str("actor", cmd.Actor).
		Str("mutation", string(domain.MutationInventory)).
		Msg("Inventory adjusted")
	return &updated, nil
}

// ReconcileInventoryCommand records the post-event physical count of an item
type ReconcileInventoryCommand struct {
	ItemID         uint   `json:"item_id" validate:"required"`
	Actor          string `json:"actor" validate:"required"`
	PostEventCount int    `json:"post_event_count" validate:"gte=0"`
}

// ReconcileInventoryHandler handles reconcile inventory command
type ReconcileInventoryHandler struct {
	ledger *Ledger
}

// NewReconcileInventoryHandler creates a new reconcile inventory handler
func NewReconcileInventoryHandler(ledger *Ledger) *ReconcileInventoryHandler {
	return &ReconcileInventoryHandler{ledger: ledger}
}

// Handle sets PostEventCount. Allocation counters are left untouched.
func (h *ReconcileInventoryHandler) Handle(ctx context.Context, cmd ReconcileInventoryCommand) (*domain.InventoryItem, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}

	var updated domain.InventoryItem
	err := h.ledger.execute(ctx, "reconcile_inventory", domain.MutationInventory, func(tx domain.LedgerTx, run *txRun) error {
		item, err := lockItem(tx, cmd.ItemID)
		if err != nil {
			return err
		}
		if run.event, err = tx.GetEvent(item.EventID); err != nil {
			return err
		}

		var previous interface{}
		if item.PostEventCount != nil {
			previous = *item.PostEventCount
		}
		count := cmd.PostEventCount
		item.PostEventCount = &count
		if err := tx.SaveItem(item); err != nil {
			return err
		}

		h.ledger.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        domain.ActivityInventoryUpdate,
			PerformedBy: cmd.Actor,
			EventID:     &item.EventID,
			Details: map[string]interface{}{
				"item_id":  item.ID,
				"label":    item.Label(),
				"field":    "post_event_count",
				"previous": previous,
				"value":    count,
				"message":  fmt.Sprintf("Recorded post-event count %d for %s", count, item.Label()),
			},
		})

		updated = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("item_id", cmd.ItemID).
		Int("post_event_count", cmd.PostEventCount).
		Str("actor", cmd.Actor).
		Msg("Inventory reconciled")
	return &updated, nil
}

// ProvisionInventoryCommand represents the command to create an inventory item
type ProvisionInventoryCommand struct {
	EventID     uint                `json:"event_id" validate:"required"`
	Actor       string              `json:"actor" validate:"required"`
	Identity    domain.ItemIdentity `json:"identity"`
	Quantity    int                 `json:"quantity" validate:"gte=0"`
	MaxPerGuest int                 `json:"max_per_guest" validate:"gte=0"`
}

// ProvisionInventoryHandler handles provision inventory command
type ProvisionInventoryHandler struct {
	ledger *Ledger
}

// NewProvisionInventoryHandler creates a new provision inventory handler
func NewProvisionInventoryHandler(ledger *Ledger) *ProvisionInventoryHandler {
	return &ProvisionInventoryHandler{ledger: ledger}
}

// Handle executes the provision inventory command
func (h *ProvisionInventoryHandler) Handle(ctx context.Context, cmd ProvisionInventoryCommand) (*domain.InventoryItem, error) {
	if err := validate(&cmd); err != nil {
		return nil, err
	}
	identity := cmd.Identity.Normalize()
	if identity.Category == "" && identity.Product == "" {
		return nil, domain.Invalid("category or product is required")
	}
	if cmd.MaxPerGuest == 0 {
		cmd.MaxPerGuest = 1
	}

	var created domain.InventoryItem
	err := h.ledger.execute(ctx, "provision_inventory", domain.MutationInventory, func(tx domain.LedgerTx, run *txRun) error {
		event, err := tx.GetEvent(cmd.EventID)
		if err != nil {
			return err
		}
		run.event = event

		item := &domain.InventoryItem{
			EventID:        cmd.EventID,
			ItemIdentity:   identity,
			QuantityOnHand: cmd.Quantity,
			MaxPerGuest:    cmd.MaxPerGuest,
		}
		if err := tx.CreateItem(item); err != nil {
			return err
		}

		h.ledger.appendActivity(ctx, tx, run, domain.ActivityLogEntry{
			Type:        domain.ActivityInventoryAdd,
			PerformedBy: cmd.Actor,
			EventID:     &item.EventID,
			Details: map[string]interface{}{
				"item_id":       item.ID,
				"label":         item.Label(),
				"quantity":      item.QuantityOnHand,
				"max_per_guest": item.MaxPerGuest,
				"message":       fmt.Sprintf("Added %d x %s", item.QuantityOnHand, item.Label()),
			},
		})

		created = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("event_id", cmd.EventID).
		Uint("item_id", created.ID).
		Str("actor", cmd.Actor).
		Msg("Inventory provisioned")
	return &created, nil
}

func lockItem(tx domain.LedgerTx, itemID uint) (*domain.InventoryItem, error) {
	items, err := tx.LockItems([]uint{itemID})
	if err != nil {
		return nil, err
	}
	item, ok := items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrItemNotFound, itemID)
	}
	return item, nil
}
