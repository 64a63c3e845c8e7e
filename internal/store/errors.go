package store

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	// ErrUnavailable marks transient failures: lock timeouts, serialization
	// failures, deadlocks and lost connections. It is the only retried class.
	ErrUnavailable = errors.New("store unavailable")
)
