package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/usecase/command"
	"github.com/tair/checkin-ledger/internal/checkin/usecase/query"
	"github.com/tair/checkin-ledger/pkg/logger"
)

// Commands groups the ledger command handlers
type Commands struct {
	CheckIn   *command.CheckInHandler
	Undo      *command.UndoCheckInHandler
	Clear     *command.ClearCheckInHandler
	Gifts     *command.ChangeGiftsHandler
	Note      *command.RecordNoteHandler
	Adjust    *command.AdjustInventoryHandler
	Reconcile *command.ReconcileInventoryHandler
	Provision *command.ProvisionInventoryHandler
}

// Queries groups the read side handlers
type Queries struct {
	Analytics  *query.GetAnalyticsHandler
	Activity   *query.ListActivityHandler
	Item       *query.GetItemHandler
	Items      *query.ListItemsHandler
	GuestState *query.GetGuestStateHandler
}

// StreamOrigins lists browser origins allowed to open dashboard streams.
// Empty means same-origin only; "*" allows any origin.
type StreamOrigins []string

// CheckInHandler handles HTTP requests for the check-in ledger
type CheckInHandler struct {
	commands Commands
	queries  Queries
	notifier domain.Notifier
	upgrader websocket.Upgrader
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(commands Commands, queries Queries, notifier domain.Notifier, origins StreamOrigins) *CheckInHandler {
	return &CheckInHandler{
		commands: commands,
		queries:  queries,
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      origins.check,
		},
	}
}

type giftsRequest struct {
	GiftSelections []domain.GiftSelection `json:"gift_selections"`
	Notes          string                 `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// CheckIn handles POST /api/events/{eventID}/guests/{guestID}/checkin
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, guestID, ok := guestPath(w, r)
	if !ok {
		return
	}
	var req giftsRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.CheckIn.Handle(r.Context(), command.CheckInCommand{
		EventID:        eventID,
		GuestID:        guestID,
		Actor:          ActorFromContext(r.Context()),
		GiftSelections: req.GiftSelections,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Guest checked in successfully",
		Data:    result,
	})
}

// UndoCheckIn handles POST /api/events/{eventID}/guests/{guestID}/undo
func (h *CheckInHandler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, guestID, ok := guestPath(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	state, err := h.commands.Undo.Handle(r.Context(), command.UndoCheckInCommand{
		EventID: eventID,
		GuestID: guestID,
		Actor:   ActorFromContext(r.Context()),
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Check-in undone",
		Data:    state,
	})
}

// ClearCheckIn handles POST /api/events/{eventID}/guests/{guestID}/clear
func (h *CheckInHandler) ClearCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, guestID, ok := guestPath(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	state, err := h.commands.Clear.Handle(r.Context(), command.ClearCheckInCommand{
		EventID: eventID,
		GuestID: guestID,
		Actor:   ActorFromContext(r.Context()),
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Check-in cleared",
		Data:    state,
	})
}

// ChangeGifts handles PUT /api/events/{eventID}/guests/{guestID}/gifts
func (h *CheckInHandler) ChangeGifts(w http.ResponseWriter, r *http.Request) {
	eventID, guestID, ok := guestPath(w, r)
	if !ok {
		return
	}
	var req giftsRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.Gifts.Handle(r.Context(), command.ChangeGiftsCommand{
		EventID:        eventID,
		GuestID:        guestID,
		Actor:          ActorFromContext(r.Context()),
		GiftSelections: req.GiftSelections,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Gifts updated",
		Data:    result,
	})
}

// GetGuestState handles GET /api/events/{eventID}/guests/{guestID}
func (h *CheckInHandler) GetGuestState(w http.ResponseWriter, r *http.Request) {
	eventID, guestID, ok := guestPath(w, r)
	if !ok {
		return
	}

	state, err := h.queries.GuestState.Handle(r.Context(), eventID, guestID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: state})
}

// RecordNote handles POST /api/events/{eventID}/notes
func (h *CheckInHandler) RecordNote(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}
	var req struct {
		GuestID *uint  `json:"guest_id"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.commands.Note.Handle(r.Context(), command.RecordNoteCommand{
		EventID: eventID,
		GuestID: req.GuestID,
		Actor:   ActorFromContext(r.Context()),
		Message: req.Message,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Note recorded",
		Data:    entry,
	})
}

// ListItems handles GET /api/events/{eventID}/inventory
func (h *CheckInHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}

	items, err := h.queries.Items.Handle(r.Context(), eventID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: items})
}

// ProvisionInventory handles POST /api/events/{eventID}/inventory
func (h *CheckInHandler) ProvisionInventory(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}
	var req struct {
		domain.ItemIdentity
		Quantity    int `json:"quantity"`
		MaxPerGuest int `json:"max_per_guest"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	item, err := h.commands.Provision.Handle(r.Context(), command.ProvisionInventoryCommand{
		EventID:     eventID,
		Actor:       ActorFromContext(r.Context()),
		Identity:    req.ItemIdentity,
		Quantity:    req.Quantity,
		MaxPerGuest: req.MaxPerGuest,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Inventory item created",
		Data:    item,
	})
}

// GetItem handles GET /api/inventory/{itemID}
func (h *CheckInHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		respondBadRequest(w, "Invalid item ID")
		return
	}

	item, err := h.queries.Item.Handle(r.Context(), itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: item})
}

// AdjustInventory handles PATCH /api/inventory/{itemID}/adjust
func (h *CheckInHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		respondBadRequest(w, "Invalid item ID")
		return
	}
	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	item, err := h.commands.Adjust.Handle(r.Context(), command.AdjustInventoryCommand{
		ItemID: itemID,
		Actor:  ActorFromContext(r.Context()),
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Quantity updated successfully",
		Data:    item,
	})
}

// ReconcileInventory handles PATCH /api/inventory/{itemID}/reconcile
func (h *CheckInHandler) ReconcileInventory(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		respondBadRequest(w, "Invalid item ID")
		return
	}
	var req struct {
		PostEventCount *int `json:"post_event_count"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	if req.PostEventCount == nil {
		respondBadRequest(w, "post_event_count is required")
		return
	}

	item, err := h.commands.Reconcile.Handle(r.Context(), command.ReconcileInventoryCommand{
		ItemID:         itemID,
		Actor:          ActorFromContext(r.Context()),
		PostEventCount: *req.PostEventCount,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Post-event count recorded",
		Data:    item,
	})
}

// GetAnalytics handles GET /api/events/{eventID}/analytics
func (h *CheckInHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}

	params := r.URL.Query()
	filter := domain.AnalyticsFilter{
		Granularity: domain.Granularity(params.Get("granularity")),
		GroupBy:     domain.GroupBy(params.Get("group_by")),
	}
	var err error
	if filter.StartDate, err = parseTimeParam(params.Get("start")); err != nil {
		respondBadRequest(w, "start must be an RFC3339 timestamp")
		return
	}
	if filter.EndDate, err = parseTimeParam(params.Get("end")); err != nil {
		respondBadRequest(w, "end must be an RFC3339 timestamp")
		return
	}

	snap, err := h.queries.Analytics.Handle(r.Context(), query.GetAnalyticsQuery{EventID: eventID, Filter: filter})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: snap})
}

// ListActivity handles GET /api/events/{eventID}/activity
func (h *CheckInHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.queries.Activity.Handle(r.Context(), query.ListActivityQuery{
		EventID: eventID,
		Type:    domain.ActivityType(r.URL.Query().Get("type")),
		Limit:   limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Debug(r.Context()).Uint("event_id", eventID).Int("count", len(entries)).Msg("Activity listed")
	respondJSON(w, http.StatusOK, Response{Success: true, Data: entries})
}

func guestPath(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondBadRequest(w, "Invalid event ID")
		return 0, 0, false
	}
	guestID, ok := pathID(r, "guestID")
	if !ok {
		respondBadRequest(w, "Invalid guest ID")
		return 0, 0, false
	}
	return eventID, guestID, true
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
