package review

import "errors"

// ErrNotFound is returned when a queue entry does not exist.
var ErrNotFound = errors.New("review queue entry not found")

// ErrAlreadyDecided is returned when approving or rejecting an entry that
// has already left the pending state.
var ErrAlreadyDecided = errors.New("review queue entry already decided")
