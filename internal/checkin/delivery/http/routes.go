package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/pkg/auth"
)

// RegisterRoutes registers all ledger routes under /api behind auth.
// Extra middlewares run after auth and may be nil.
func (h *CheckInHandler) RegisterRoutes(router *mux.Router, authMiddleware func(http.Handler) http.Handler, extra ...func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)
	for _, mw := range extra {
		if mw != nil {
			api.Use(mw)
		}
	}

	api.HandleFunc("/events/{eventID}/guests/{guestID}/checkin", h.CheckIn).Methods("POST")
	api.HandleFunc("/events/{eventID}/guests/{guestID}/undo", h.UndoCheckIn).Methods("POST")
	api.HandleFunc("/events/{eventID}/guests/{guestID}/clear", h.ClearCheckIn).Methods("POST")
	api.HandleFunc("/events/{eventID}/guests/{guestID}/gifts", h.ChangeGifts).Methods("PUT")
	api.HandleFunc("/events/{eventID}/guests/{guestID}", h.GetGuestState).Methods("GET")
	api.HandleFunc("/events/{eventID}/notes", h.RecordNote).Methods("POST")

	api.HandleFunc("/events/{eventID}/inventory", h.ListItems).Methods("GET")
	api.HandleFunc("/events/{eventID}/inventory", RequireRole(h.ProvisionInventory, auth.RoleAdmin)).Methods("POST")
	api.HandleFunc("/inventory/{itemID}", h.GetItem).Methods("GET")
	api.HandleFunc("/inventory/{itemID}/adjust", RequireRole(h.AdjustInventory, auth.RoleAdmin)).Methods("PATCH")
	api.HandleFunc("/inventory/{itemID}/reconcile", RequireRole(h.ReconcileInventory, auth.RoleAdmin)).Methods("PATCH")

	api.HandleFunc("/events/{eventID}/analytics", h.GetAnalytics).Methods("GET")
	api.HandleFunc("/events/{eventID}/activity", h.ListActivity).Methods("GET")
	api.HandleFunc("/events/{eventID}/stream", h.Stream).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *CheckInHandler) RegisterHealthCheck(router *mux.Router, db *gorm.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Check-in service is healthy",
		})
	}).Methods("GET")
}

// RouterConfig collects what NewRouter needs besides the handler
type RouterConfig struct {
	Middleware *MiddlewareConfig
	Auth       func(http.Handler) http.Handler
	// RateLimit, Swagger and Metrics are optional
	RateLimit func(http.Handler) http.Handler
	Swagger   http.Handler
	Metrics   http.Handler
}

// NewRouter assembles the service's HTTP handler
func NewRouter(h *CheckInHandler, db *gorm.DB, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	RegisterMiddlewares(router, cfg.Middleware)

	h.RegisterHealthCheck(router, db)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	if cfg.Swagger != nil {
		RegisterSwaggerDocs(router, cfg.Swagger)
	}
	h.RegisterRoutes(router, cfg.Auth, cfg.RateLimit)

	return SetupCORS(cfg.Middleware)(router)
}
