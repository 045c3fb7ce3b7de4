// Package store defines the persistence contracts for cards and their
// audit history. Implementations live in the sqlite (production) and
// memory (tests) subpackages.
package store

import "errors"

var (
	// ErrNotFound means the referenced card id does not exist.
	ErrNotFound = errors.New("card not found")

	// ErrDuplicateIdentity means an explicitly supplied card id or short
	// code collides with an existing card.
	ErrDuplicateIdentity = errors.New("card identity already exists")

	// ErrInvalidTransition means the requested operation is not legal
	// from the card's current status. Nothing was written.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCardSignedOut means a card that is currently Out cannot be
	// deleted; it must be returned (or marked lost) first.
	ErrCardSignedOut = errors.New("card is signed out")
)
