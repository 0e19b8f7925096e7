package domain

import "errors"

var (
	ErrPaymentFailed         = errors.New("payment failed")
	ErrTierNotFound          = errors.New("tier not found")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrTransactionConflict   = errors.New("transaction conflict")
	ErrInvalidQuantity       = errors.New("quantity must be a positive integer")
	ErrTierRequired          = errors.New("tier is required")
	ErrInvalidPrice          = errors.New("price must not be negative")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrNoTransaction         = errors.New("operation requires a transaction")
	ErrInventoryNotLocked    = errors.New("inventory row is not locked by this transaction")
)

// IsRetryable reports whether the caller may repeat the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPaymentFailed) ||
		errors.Is(err, ErrTransactionConflict) ||
		errors.Is(err, ErrStoreUnavailable)
}

// IsClientError reports input errors detected before any transaction begins.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) || errors.Is(err, ErrTierRequired)
}
