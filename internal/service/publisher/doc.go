// Package publisher resolves the sender of an inbound email to an existing
// publisher record or creates a new shadow publisher. Identity matching is
// exact email only: a false merge corrupts another user's data, so fuzzy or
// domain-based matching is never attempted.
package publisher
