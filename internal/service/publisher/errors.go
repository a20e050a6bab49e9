package publisher

import "errors"

// ErrNotFound is returned when no publisher matches a lookup.
var ErrNotFound = errors.New("publisher not found")
