package store

import (
	"context"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// CardFields is a partial update of a card's descriptive fields. Nil
// pointers leave the column untouched. Status, holder, and sign-out time
// are deliberately absent: only the transition writer may change them.
type CardFields struct {
	Label    *string
	Code     *string
	Location *string
	Notes    *string
}

type CardStore interface {
	// Create inserts a new card. The caller supplies a complete Card
	// (including id); fails with ErrDuplicateIdentity if the id or short
	// code is already taken.
	Create(ctx context.Context, card types.Card) (types.Card, error)

	Get(ctx context.Context, id string) (types.Card, error)

	// Update applies a partial field update. Fails with ErrNotFound.
	Update(ctx context.Context, id string, fields CardFields) (types.Card, error)

	// Delete removes the card row. History events survive. Fails with
	// ErrNotFound, or ErrCardSignedOut when the card is currently Out.
	Delete(ctx context.Context, id string) error

	// List returns cards matching the filter, natural-sorted by label.
	// Every call re-queries current state.
	List(ctx context.Context, filter types.CardFilter) ([]types.Card, error)

	// Count reports the total number of cards (first-run detection).
	Count(ctx context.Context) (int64, error)
}
