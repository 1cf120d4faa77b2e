package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/validation"
)

// Response is the envelope of every API response
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: message})
}

// respondError maps ledger errors onto HTTP statuses
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondJSON(w, status, resp)
}

func errorResponse(err error) (int, Response) {
	resp := Response{Success: false, Error: err.Error()}

	var shortage *domain.InsufficientInventoryError
	var maxErr *domain.MaxPerGuestError
	var invalid *validation.Error

	switch {
	case errors.As(err, &shortage):
		resp.Details = shortage.Shortages
		return http.StatusConflict, resp
	case errors.As(err, &maxErr):
		resp.Details = maxErr
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrConcurrencyConflict):
		resp.Retryable = true
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrNotCheckedIn),
		errors.Is(err, domain.ErrDuplicateItem),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrMaxPerGuestExceeded):
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrGuestNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, resp
	case errors.As(err, &invalid):
		resp.Details = invalid.Fields
		return http.StatusBadRequest, resp
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, resp
	case errors.Is(err, domain.ErrAnalyticsUnavailable):
		resp.Retryable = true
		return http.StatusServiceUnavailable, resp
	default:
		resp.Error = "Internal server error"
		return http.StatusInternalServerError, resp
	}
}

// pathID reads a positive numeric route variable
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
