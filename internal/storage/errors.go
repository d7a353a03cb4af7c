package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrAlreadyResolved is returned when a terminal-state transition is
// attempted a second time (e.g. approving an already-resolved decision).
var ErrAlreadyResolved = errors.New("storage: already resolved")

// ErrInsufficientCredits is returned when a ticket submission would
// overdraw the user's credit balance.
var ErrInsufficientCredits = errors.New("storage: insufficient ticket credits")

// ErrDuplicate is returned when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("storage: duplicate entity")
