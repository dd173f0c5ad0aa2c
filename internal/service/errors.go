package service

import (
	"errors"

	"github.com/tableside-pos/api/internal/conflict"
)

// Not found.
var (
	ErrShopNotFound        = errors.New("shop not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTicketNotFound      = errors.New("kitchen ticket not found")
	ErrProductNotFound     = errors.New("product not found in shop")
)

// Validation.
var (
	ErrEmptyItems             = errors.New("items are required")
	ErrInvalidQuantity        = errors.New("quantity must be > 0")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidGuestCount      = errors.New("guest_count must be >= 0")
	ErrCustomerNameRequired   = errors.New("customer_name is required")
	ErrInvalidPartySize       = errors.New("party_size must be between 1 and 100")
	ErrReservationInPast      = errors.New("reservation_time must be in the future")
	ErrTableRequired          = errors.New("a table is required to seat a reservation")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidTableStatus     = errors.New("invalid table status")
	ErrInvalidTicketStatus    = errors.New("invalid ticket status")
	ErrInvalidCapacity        = errors.New("capacity must be > 0")
	ErrInvalidTableNumber     = errors.New("table number must be > 0")
	ErrShopNameRequired       = errors.New("shop name is required")
	ErrInvalidBusinessMode    = errors.New("invalid business mode")
	ErrInvalidTimezone        = errors.New("invalid timezone")
	ErrRestaurantModeRequired = errors.New("shop is not in restaurant mode")
	ErrPaymentFailed          = errors.New("payment gateway request failed")
	ErrInvalidCurrency        = errors.New("invalid currency")
)

// Conflict.
var (
	ErrReservationConflict  = errors.New("reservation conflicts with current bookings")
	ErrTableNotAvailable    = errors.New("table is not available")
	ErrTableClaimed         = errors.New("table still has an open order")
	ErrConcurrentUpdate     = errors.New("record was modified concurrently")
	ErrConfirmationRequired = errors.New("shop has data; cascade delete requires confirmation by name")
)

// State.
var (
	ErrOrderAlreadyCompleted   = errors.New("order already completed")
	ErrOrderNotOpen            = errors.New("order is not open")
	ErrReservationNotConfirmed = errors.New("reservation is not confirmed")
	ErrReservationSeated       = errors.New("reservation is already seated")
	ErrInvalidTicketTransition = errors.New("kitchen tickets only move forward")
	ErrTicketClosed            = errors.New("kitchen ticket already served")
	ErrInvalidTableTransition  = errors.New("illegal table status transition")
	ErrTableNotClaimed         = errors.New("table has no open order or seated party")
)

// ValidationError is malformed or out-of-range input.
type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ConflictError is a blocking conflict or a lost compare-and-swap. Conflicts
// is set when the reservation conflict detector rejected the write; Details
// carries any other machine-readable context.
type ConflictError struct {
	Err       error
	Conflicts []conflict.Conflict
	Details   any
}

func (e *ConflictError) Error() string { return e.Err.Error() }
func (e *ConflictError) Unwrap() error { return e.Err }

// NotFoundError is an unknown id within the shop.
type NotFoundError struct{ Err error }

func (e *NotFoundError) Error() string { return e.Err.Error() }
func (e *NotFoundError) Unwrap() error { return e.Err }

// StateError is a transition attempted from an illegal state, typically a
// double submit.
type StateError struct{ Err error }

func (e *StateError) Error() string { return e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }

func invalid(err error) error  { return &ValidationError{Err: err} }
func notFound(err error) error { return &NotFoundError{Err: err} }
func badState(err error) error { return &StateError{Err: err} }
func conflicted(err error) error {
	return &ConflictError{Err: err}
}
