package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/cetilab/cardkeeper/internal/db"
	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// TransitionStore applies card state transitions. Every Apply call is a
// single transaction holding three guarantees together: the precondition
// is checked against the status another process may have just committed,
// the card row and the history append use one shared timestamp, and a
// crash at any point leaves either both writes or neither.
type TransitionStore struct {
	conn   *sql.DB
	writer *dbpkg.Transactor
}

func NewTransitionStore(conn *sql.DB, writer *dbpkg.Transactor) *TransitionStore {
	return &TransitionStore{conn: conn, writer: writer}
}

func (s *TransitionStore) Apply(ctx context.Context, cardID string, event types.EventType, holder, notes string) (types.Card, error) {
	var updated types.Card

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+cardColumns+` FROM cards WHERE id = ?;`, cardID)
		card, err := scanCard(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", store.ErrNotFound, cardID)
		}
		if err != nil {
			return fmt.Errorf("Apply read: %w", err)
		}

		next, ok := types.Transition(card.Status, event)
		if !ok {
			return fmt.Errorf("%w: %s is %s, cannot record %s",
				store.ErrInvalidTransition, cardID, card.Status, event)
		}

		// One timestamp for both writes, clamped so a card's history
		// never runs backwards even if the wall clock does.
		nowMs := time.Now().UTC().UnixMilli()
		var lastMs sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(timestamp_ms) FROM history WHERE card_id = ?;`, cardID,
		).Scan(&lastMs); err != nil {
			return fmt.Errorf("Apply last timestamp: %w", err)
		}
		if lastMs.Valid && lastMs.Int64 > nowMs {
			nowMs = lastMs.Int64
		}
		ts := time.UnixMilli(nowMs).UTC()

		// Event fields are captured at transition time. A card going
		// Lost while Out records who had it.
		eventHolder := holder
		if event != types.EventSignedOut && eventHolder == "" {
			eventHolder = card.CurrentHolder
		}

		card.Status = next
		card.UpdatedAt = ts
		switch event {
		case types.EventSignedOut:
			card.CurrentHolder = holder
			card.SignedOutAt = &ts
			card.Notes = notes
		default:
			card.CurrentHolder = ""
			card.SignedOutAt = nil
			if event == types.EventReturned {
				card.Notes = ""
			}
		}

		var signedOutMs any
		if card.SignedOutAt != nil {
			signedOutMs = card.SignedOutAt.UnixMilli()
		}
		var curHolder any
		if card.CurrentHolder != "" {
			curHolder = card.CurrentHolder
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE cards
SET status = ?, current_holder = ?, signed_out_at_ms = ?, notes = ?, updated_at_ms = ?
WHERE id = ?;
`, string(card.Status), curHolder, signedOutMs, card.Notes, nowMs, cardID); err != nil {
			return fmt.Errorf("Apply update card: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO history(card_id, event_type, holder, notes, timestamp_ms)
VALUES (?, ?, ?, ?, ?);
`, cardID, string(event), eventHolder, notes, nowMs); err != nil {
			return fmt.Errorf("Apply insert history: %w", err)
		}

		updated = card
		return nil
	})
	if err != nil {
		return types.Card{}, err
	}
	return updated, nil
}
