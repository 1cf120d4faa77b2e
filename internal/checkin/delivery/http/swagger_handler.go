package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the Check-in Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CheckIn godoc
// @Summary Check in a guest
// @Description Marks the guest present and allocates the selected gifts atomically
// @Tags Check-in
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param guestID path int true "Guest ID"
// @Param request body object{gift_selections=[]object{item_id=int,quantity=int,is_default=bool},notes=string} false "Gift selections"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,details=object,retryable=bool}
// @Router /api/events/{eventID}/guests/{guestID}/checkin [post]
func (h *CheckInHandler) CheckInDoc() {}

// UndoCheckIn godoc
// @Summary Undo a check-in
// @Description Returns every active gift to stock and marks the guest not checked in
// @Tags Check-in
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param guestID path int true "Guest ID"
// @Param request body object{reason=string} false "Reason"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/guests/{guestID}/undo [post]
func (h *CheckInHandler) UndoCheckInDoc() {}

// ClearCheckIn godoc
// @Summary Clear a check-in
// @Description Administrative reset with the same effect as undo, audited as a correction
// @Tags Check-in
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param guestID path int true "Guest ID"
// @Param request body object{reason=string} false "Reason"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/guests/{guestID}/clear [post]
func (h *CheckInHandler) ClearCheckInDoc() {}

// ChangeGifts godoc
// @Summary Replace a guest's gifts
// @Description Revokes the current assignments and allocates the new selection in one transaction
// @Tags Check-in
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param guestID path int true "Guest ID"
// @Param request body object{gift_selections=[]object{item_id=int,quantity=int,is_default=bool}} true "Gift selections"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,details=object}
// @Router /api/events/{eventID}/guests/{guestID}/gifts [put]
func (h *CheckInHandler) ChangeGiftsDoc() {}

// GetGuestState godoc
// @Summary Get guest check-in state
// @Tags Check-in
// @Security BearerAuth
// @Produce json
// @Param eventID path int true "Event ID"
// @Param guestID path int true "Guest ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/guests/{guestID} [get]
func (h *CheckInHandler) GetGuestStateDoc() {}

// RecordNote godoc
// @Summary Record an operator note
// @Tags Activity
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param request body object{guest_id=int,message=string} true "Note"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/notes [post]
func (h *CheckInHandler) RecordNoteDoc() {}

// ListItems godoc
// @Summary List event inventory
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/inventory [get]
func (h *CheckInHandler) ListItemsDoc() {}

// ProvisionInventory godoc
// @Summary Create an inventory item
// @Description Create a new inventory item for an event (Admin only)
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param request body object{category=string,style=string,product=string,size=string,gender=string,color=string,quantity=int,max_per_guest=int} true "Item"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/inventory [post]
func (h *CheckInHandler) ProvisionInventoryDoc() {}

// GetItem godoc
// @Summary Get inventory item by ID
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param itemID path int true "Item ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/inventory/{itemID} [get]
func (h *CheckInHandler) GetItemDoc() {}

// AdjustInventory godoc
// @Summary Adjust on-hand quantity
// @Description Add or remove stock (Admin only). On-hand never goes below zero.
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param itemID path int true "Item ID"
// @Param request body object{delta=int,reason=string} true "Adjustment"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,details=object}
// @Router /api/inventory/{itemID}/adjust [patch]
func (h *CheckInHandler) AdjustInventoryDoc() {}

// ReconcileInventory godoc
// @Summary Record post-event count
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param itemID path int true "Item ID"
// @Param request body object{post_event_count=int} true "Physical count"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/inventory/{itemID}/reconcile [patch]
func (h *CheckInHandler) ReconcileInventoryDoc() {}

// GetAnalytics godoc
// @Summary Event dashboard analytics
// @Description Check-in rate, gift distribution and timeline for an event and its secondary events
// @Tags Analytics
// @Security BearerAuth
// @Produce json
// @Param eventID path int true "Event ID"
// @Param start query string false "RFC3339 window start"
// @Param end query string false "RFC3339 window end"
// @Param granularity query string false "minute, hour or day" default(hour)
// @Param group_by query string false "category, style or product" default(category)
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 503 {object} object{success=bool,error=string,retryable=bool}
// @Router /api/events/{eventID}/analytics [get]
func (h *CheckInHandler) GetAnalyticsDoc() {}

// ListActivity godoc
// @Summary Event activity log
// @Tags Activity
// @Security BearerAuth
// @Produce json
// @Param eventID path int true "Event ID"
// @Param type query string false "Activity type"
// @Param limit query int false "Maximum entries (default 50, max 500)"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/events/{eventID}/activity [get]
func (h *CheckInHandler) ListActivityDoc() {}

// Stream godoc
// @Summary Dashboard change stream
// @Description WebSocket that pushes a message whenever the event's analytics change
// @Tags Analytics
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param access_token query string false "Bearer token for browser clients"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/events/{eventID}/stream [get]
func (h *CheckInHandler) StreamDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *CheckInHandler) HealthCheckDoc() {}
