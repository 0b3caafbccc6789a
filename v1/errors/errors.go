package errors

import "errors"

var (
	// ErrAlreadyQueued is returned when a visitor tries to join the waiting
	// list twice.
	ErrAlreadyQueued = errors.New("visitor already in queue")
	// ErrProviderBusy is returned when a provider with an in-progress
	// examination attempts a pickup.
	ErrProviderBusy = errors.New("provider busy")
	// ErrNotFound is returned when a waiting entry, examination, visitor or
	// provider cannot be located.
	ErrNotFound = errors.New("not found")
	// ErrEmptyQueue is returned by a pickup against an empty waiting list.
	ErrEmptyQueue = errors.New("waiting queue is empty")
	// ErrNotInProgress is returned when a status transition misses because the
	// examination is no longer in progress.
	ErrNotInProgress = errors.New("examination not in progress")
	// ErrInconsistent reports a violated storage invariant, e.g. a waiting
	// list whose positions are not a dense 1..N range. It is never repaired
	// silently.
	ErrInconsistent = errors.New("storage state inconsistent")
	// ErrTimeout is returned when a storage operation exceeds its configured
	// deadline.
	ErrTimeout = errors.New("timeout")
)
