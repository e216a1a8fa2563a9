package physics

import "errors"

var (
	// ErrNotFound is returned for an id that was never issued or whose body has been removed.
	ErrNotFound = errors.New("body not found")
	// ErrInvalidTimeStep is returned by Update for a negative, NaN or infinite delta.
	ErrInvalidTimeStep = errors.New("invalid time step")
	// ErrCapacityExceeded is returned by Create when the configured body cap is reached.
	ErrCapacityExceeded = errors.New("body capacity exceeded")
	// ErrInvalidBody is returned for non-positive radius or mass, or non-finite vectors.
	ErrInvalidBody = errors.New("invalid body")
	// ErrReentrant is returned by Update when called from a contact listener.
	ErrReentrant = errors.New("update already in progress")
)
