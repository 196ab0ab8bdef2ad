package fundme

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("fundme: not found")
	ErrAlreadyExists = errors.New("fundme: already exists")
	ErrInvalidInput  = errors.New("fundme: invalid input")

	// Contribution errors
	ErrInsufficientContribution = errors.New("fundme: you need to spend more ETH!")
	ErrOracleUnavailable        = errors.New("fundme: price oracle unavailable")
	ErrOraclePriceInvalid       = errors.New("fundme: price oracle returned an invalid price")
	ErrConversionOverflow       = errors.New("fundme: contribution value overflows")

	// Withdrawal errors
	ErrUnauthorized   = errors.New("fundme: caller is not the owner")
	ErrTransferFailed = errors.New("fundme: transfer to owner failed")

	// ErrWithdrawalInProgress is returned by a withdrawal started while
	// another is paying out, whether nested in the payout or concurrent.
	ErrWithdrawalInProgress = errors.New("fundme: withdrawal already in progress")

	// Read errors
	ErrIndexOutOfRange   = errors.New("fundme: funder index out of range")
	ErrInvariantViolated = errors.New("fundme: ledger invariant violated")

	// Store errors
	ErrStoreNotReady   = errors.New("fundme: store not ready")
	ErrStoreClosed     = errors.New("fundme: store is closed")
	ErrMigrationFailed = errors.New("fundme: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("fundme: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "fundme: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("fundme: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

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
	return errors.Is(err, ErrNotFound)
}

// IsRejection returns true if a contribution was refused on its merits
// rather than because a dependency failed.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientContribution) ||
		errors.Is(err, ErrConversionOverflow) ||
		errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable) ||
		errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrWithdrawalInProgress) ||
		errors.Is(err, ErrStoreNotReady)
}
