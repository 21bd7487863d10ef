// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across replication/transport/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoClient indicates that no connected transport client could be acquired.
	ErrNoClient = errors.New("no connected client")

	// ErrQueueFull indicates the outbound replication queue has no free slot.
	ErrQueueFull = errors.New("replication queue full")

	// ErrDispatcherClosed indicates a submission after the dispatcher was closed.
	ErrDispatcherClosed = errors.New("dispatcher closed")

	// ErrInvalidAction indicates a wire action that cannot be mapped to exactly one payload.
	ErrInvalidAction = errors.New("invalid action")

	// ErrEmptyBatch indicates a paint event without actions.
	ErrEmptyBatch = errors.New("empty batch")
)

// ErrDuplicateID indicates an append of an action whose id is already in the log.
var ErrDuplicateID = errors.New("duplicate action id")

// ErrValidation indicates a request rejected before reaching storage.
var ErrValidation = errors.New("validation failed")
