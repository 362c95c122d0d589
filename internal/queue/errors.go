package queue

import "errors"

var (
	// ErrNotFound means the referenced order, restaurant, or the owner's
	// restaurant does not exist. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an optimistic status check failed because another
	// call transitioned the order first. Callers may retry.
	ErrConflict = errors.New("order status changed concurrently")

	// ErrInvalidState means an advancement was requested for an order that
	// is already ready or completed. Rejected rather than silently ignored.
	ErrInvalidState = errors.New("order cannot advance from its current status")
)
