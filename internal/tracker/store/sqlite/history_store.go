package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// DeletedCardLabel is rendered for events whose card row no longer
// exists. History references cards weakly, so this is expected.
const DeletedCardLabel = "(deleted)"

type HistoryStore struct {
	conn *sql.DB
}

func NewHistoryStore(conn *sql.DB) *HistoryStore {
	return &HistoryStore{conn: conn}
}

func (s *HistoryStore) Query(ctx context.Context, filter types.HistoryFilter, page types.Page) ([]types.HistoryEvent, error) {
	q := `
SELECT h.id, h.card_id, COALESCE(c.label, ?), h.event_type, h.holder, h.notes, h.timestamp_ms
FROM history h
LEFT JOIN cards c ON c.id = h.card_id`
	args := []any{DeletedCardLabel}

	var conds []string
	if filter.CardID != "" {
		conds = append(conds, `h.card_id = ?`)
		args = append(args, filter.CardID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		conds = append(conds, `(IFNULL(c.label,'') LIKE ? OR h.holder LIKE ?
    OR h.notes LIKE ? OR h.card_id LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if filter.Since != nil {
		conds = append(conds, `h.timestamp_ms >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if filter.Until != nil {
		conds = append(conds, `h.timestamp_ms <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}

	q += "\nORDER BY h.timestamp_ms, h.id"
	if page.Limit > 0 {
		q += "\nLIMIT ? OFFSET ?"
		args = append(args, page.Limit, page.Offset)
	} else if page.Offset > 0 {
		q += "\nLIMIT -1 OFFSET ?"
		args = append(args, page.Offset)
	}

	rows, err := s.conn.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("Query history: %w", err)
	}
	defer rows.Close()

	var events []types.HistoryEvent
	for rows.Next() {
		var (
			ev     types.HistoryEvent
			evType string
			tsMs   int64
		)
		if err := rows.Scan(&ev.ID, &ev.CardID, &ev.CardLabel, &evType,
			&ev.Holder, &ev.Notes, &tsMs); err != nil {
			return nil, fmt.Errorf("Query scan: %w", err)
		}
		ev.Type = types.EventType(evType)
		ev.Timestamp = time.UnixMilli(tsMs).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query rows: %w", err)
	}
	return events, nil
}
