package reconcile

import "errors"

// ErrNotFound is returned by repository lookups that miss.
var ErrNotFound = errors.New("record not found")
