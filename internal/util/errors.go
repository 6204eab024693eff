// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrCardNotUsable     = errors.New("card not usable")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCipher            = errors.New("card number could not be decrypted")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrDuplicateEntry    = errors.New("duplicate entry") // e.g. creating a user with an existing email
)

// Reasons carried by InvalidOperationError.
const (
	ReasonSameCard       = "same card"
	ReasonAlreadyInState = "already in state"
	ReasonExpired        = "expired"
	ReasonSelfDelete     = "self delete"
	ReasonInvalidTarget  = "invalid target"
)

// InvalidOperationError reports a rejected operation together with the reason.
// It matches ErrInvalidOperation with errors.Is.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Reason)
}

func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// InvalidOperation builds an InvalidOperationError for reason.
func InvalidOperation(reason string) error {
	return &InvalidOperationError{Reason: reason}
}

// CardSide names which card of a transfer failed a check.
type CardSide string

const (
	SideSource      CardSide = "source"
	SideDestination CardSide = "destination"
)

// UnusableReason explains why a card cannot move money.
type UnusableReason string

const (
	UnusableBlocked UnusableReason = "blocked"
	UnusableExpired UnusableReason = "expired"
)

// CardNotUsableError matches ErrCardNotUsable with errors.Is.
type CardNotUsableError struct {
	Which  CardSide
	Reason UnusableReason
}

func (e *CardNotUsableError) Error() string {
	return fmt.Sprintf("%s card is %s", e.Which, e.Reason)
}

func (e *CardNotUsableError) Is(target error) bool {
	return target == ErrCardNotUsable
}

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
