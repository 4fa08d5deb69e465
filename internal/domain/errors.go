package domain

import "errors"

// Sentinel errors for the core. All three are local, recoverable
// conditions the caller surfaces to the user; none is fatal.
// Check with errors.Is: errors.Is(err, domain.ErrNotFound).
var (
	// ErrValidation marks empty or invalid user-supplied input, such as
	// a blank deck name or a path with no segments.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks an operation referencing a deck, card, source or
	// session id absent from the store. A card whose scheduling row is
	// missing also reports ErrNotFound: that signals an inconsistent
	// store, not a normal business condition.
	ErrNotFound = errors.New("not found")
	// ErrCycle marks a deck move that would make a deck its own
	// ancestor, including the no-op self-move.
	ErrCycle = errors.New("deck cycle")
)
