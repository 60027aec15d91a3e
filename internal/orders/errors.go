package orders

import (
	"errors"
	"fmt"
)

// Business-rule conflicts. These are caller errors, not server faults, and
// map to 4xx responses at the HTTP boundary.
var (
	ErrNotFound           = errors.New("order not found")
	ErrAlreadyVerified    = errors.New("order already verified")
	ErrIllegalTransition  = errors.New("illegal state transition")
	ErrDuplicateReference = errors.New("transaction reference already used")
)

// ErrConflict is returned by Store.Transition when the conditional update
// matched no document, meaning another request won the transition. The
// engine re-reads and classifies it as ErrAlreadyVerified or
// ErrIllegalTransition before it reaches a caller.
var ErrConflict = errors.New("transition conflict")

// ValidationError rejects bad input before any store write.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// ExternalServiceError wraps a gateway or notification failure. Retryable
// from the caller's point of view; the raw upstream text is preserved for
// support review.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

// OutOfStockError reports a reservation failure for one product line.
type OutOfStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e OutOfStockError) Error() string { return "product out of stock" }

// ProductNotFoundError reports an order line referencing a missing or
// deleted product.
type ProductNotFoundError struct {
	ProductID string
}

func (e ProductNotFoundError) Error() string { return "product not found" }
