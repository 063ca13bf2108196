package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront client
var (
	// Authentication errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoSession      = errors.New("no session")
	ErrNoPendingLogin = errors.New("no pending login")
	ErrInvalidState   = errors.New("invalid state")

	// Resource errors
	ErrUnavailable = errors.New("service unavailable")
	ErrNotFound    = errors.New("not found")

	// Checkout errors
	ErrCheckoutInFlight = errors.New("checkout already in flight")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidRequest   = errors.New("invalid request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
