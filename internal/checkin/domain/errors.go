package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Ledger errors
var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrAlreadyCheckedIn      = errors.New("guest already checked in")
	ErrNotCheckedIn          = errors.New("guest not checked in")
	ErrMaxPerGuestExceeded   = errors.New("max per guest exceeded")
	ErrItemNotFound          = errors.New("inventory item not found")
	ErrGuestNotFound         = errors.New("guest not found")
	ErrGuestNotEligible      = fmt.Errorf("%w: not registered for event", ErrGuestNotFound)
	ErrEventNotFound         = errors.New("event not found")
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
	ErrDuplicateItem         = errors.New("inventory item already exists")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrAnalyticsUnavailable  = errors.New("analytics unavailable")
)

// Shortage describes one item that cannot cover a request
type Shortage struct {
	ItemID    uint `json:"item_id"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

// InsufficientInventoryError lists every short item of a request
type InsufficientInventoryError struct {
	Shortages []Shortage
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("item %d: requested %d, available %d", s.ItemID, s.Requested, s.Available))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientInventory, strings.Join(parts, "; "))
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// MaxPerGuestError reports a selection above the per-guest cap
type MaxPerGuestError struct {
	ItemID    uint
	Requested int
	Max       int
}

func (e *MaxPerGuestError) Error() string {
	return fmt.Sprintf("%s: item %d requested %d, max %d", ErrMaxPerGuestExceeded, e.ItemID, e.Requested, e.Max)
}

func (e *MaxPerGuestError) Unwrap() error {
	return ErrMaxPerGuestExceeded
}

// Invalid wraps ErrInvalidArgument with a message
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
