package deposit

import (
	"errors"
	"fmt"

	"github.com/xraph/deposit/backend"
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/store"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("deposit: invalid input")

	// Metering errors
	ErrLimitExceeded     = meter.ErrLimitExceeded
	ErrInsufficientFunds = meter.ErrInsufficientFunds

	// Settlement errors
	ErrWouldReap           = backend.ErrWouldReap
	ErrBelowMinimum        = backend.ErrBelowMinimum
	ErrInsufficientReserve = backend.ErrInsufficientReserve

	// Store errors
	ErrAccountNotFound    = store.ErrAccountNotFound
	ErrRecordNotFound     = store.ErrRecordNotFound
	ErrSettlementNotFound = store.ErrSettlementNotFound
	ErrAlreadyExists      = store.ErrAlreadyExists
	ErrStoreClosed        = store.ErrClosed
	ErrStoreNotReady      = errors.New("deposit: store not ready")
	ErrMigrationFailed    = errors.New("deposit: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("deposit: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "deposit: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("deposit: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return store.IsNotFound(err)
}

// IsDepositError returns true if the error means a call cannot pay for its
// storage: the limit was exhausted or the origin cannot fund it.
func IsDepositError(err error) bool {
	return errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInsufficientFunds)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrStoreClosed)
}
