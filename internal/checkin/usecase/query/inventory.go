package query

import (
	"context"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// GetItemHandler handles get inventory item query
type GetItemHandler struct {
	repo domain.InventoryRepository
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(repo domain.InventoryRepository) *GetItemHandler {
	return &GetItemHandler{repo: repo}
}

// Handle executes the get item query
func (h *GetItemHandler) Handle(ctx context.Context, itemID uint) (*domain.InventoryItem, error) {
	if itemID == 0 {
		return nil, domain.Invalid("item_id is required")
	}
	return h.repo.FindItem(ctx, itemID)
}

// ListItemsHandler handles list event inventory query
type ListItemsHandler struct {
	repo domain.InventoryRepository
}

// NewListItemsHandler creates a new list items handler
func NewListItemsHandler(repo domain.InventoryRepository) *ListItemsHandler {
	return &ListItemsHandler{repo: repo}
}

// Handle executes the list items query
func (h *ListItemsHandler) Handle(ctx context.Context, eventID uint) ([]domain.InventoryItem, error) {
	if eventID == 0 {
		return nil, domain.Invalid("event_id is required")
	}
	return h.repo.ListItems(ctx, eventID)
}

// GetGuestStateHandler handles get guest check-in state query
type GetGuestStateHandler struct {
	repo domain.InventoryRepository
}

// NewGetGuestStateHandler creates a new guest state handler
func NewGetGuestStateHandler(repo domain.InventoryRepository) *GetGuestStateHandler {
	return &GetGuestStateHandler{repo: repo}
}

// Handle executes the guest state query
func (h *GetGuestStateHandler) Handle(ctx context.Context, eventID, guestID uint) (*domain.GuestState, error) {
	if eventID == 0 || guestID == 0 {
		return nil, domain.Invalid("event_id and guest_id are required")
	}
	return h.repo.GuestState(ctx, eventID, guestID)
}
