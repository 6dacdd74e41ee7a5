package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Booking validation errors: malformed or inconsistent caller input.
	ErrInvalidTeacher   = New("INVALID_TEACHER", http.StatusBadRequest, "teacher is not eligible for this slot")
	ErrInvalidPlacement = New("INVALID_PLACEMENT", http.StatusBadRequest, "slot can only be placed in its own day column")

	// Capacity errors: expected outcomes of normal use.
	ErrQuota             = New("QUOTA_ERROR", http.StatusConflict, "slot quota out of range")
	ErrInsufficientQuota = New("INSUFFICIENT_QUOTA", http.StatusConflict, "slot has insufficient remaining quota")
	ErrSessionLimit      = New("SESSION_LIMIT_REACHED", http.StatusConflict, "student has reached the course session limit")

	// Conflict errors: idempotency guards, safe to retry with other parameters.
	ErrDuplicateBooking = New("DUPLICATE_BOOKING", http.StatusConflict, "student already booked this slot")

	// ErrInvariantViolation indicates the engine's internal bookkeeping
	// disagrees with itself. Fatal: the engine refuses further mutation.
	ErrInvariantViolation = New("INVARIANT_VIOLATION", http.StatusInternalServerError, "booking state invariant violated")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
