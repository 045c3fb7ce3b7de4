package store

import (
	"context"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// TransitionStore applies one state transition atomically: the
// precondition check against the stored status, the card row update, and
// the history append all happen inside a single transaction, sharing one
// engine-assigned timestamp. Illegal operations fail with
// ErrInvalidTransition and write nothing.
type TransitionStore interface {
	Apply(ctx context.Context, cardID string, event types.EventType, holder, notes string) (types.Card, error)
}

// HistoryStore is read-only access to the append-only audit log.
type HistoryStore interface {
	// Query returns events ordered by (timestamp, id). Labels are
	// resolved from the current card table; events whose card has been
	// deleted carry the label "(deleted)".
	Query(ctx context.Context, filter types.HistoryFilter, page types.Page) ([]types.HistoryEvent, error)
}
