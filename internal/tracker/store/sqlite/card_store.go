package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	dbpkg "github.com/cetilab/cardkeeper/internal/db"
	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

const cardColumns = `id, label, IFNULL(code,''), location, notes, status,
       IFNULL(current_holder,''), signed_out_at_ms, created_at_ms, updated_at_ms`

type CardStore struct {
	conn   *sql.DB
	writer *dbpkg.Transactor
}

func NewCardStore(conn *sql.DB, writer *dbpkg.Transactor) *CardStore {
	return &CardStore{conn: conn, writer: writer}
}

func (s *CardStore) Create(ctx context.Context, card types.Card) (types.Card, error) {
	now := time.Now().UTC()
	card.Status = types.StatusAvailable
	card.CurrentHolder = ""
	card.SignedOutAt = nil
	card.CreatedAt = now
	card.UpdatedAt = now

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO cards(id, label, code, location, notes, status, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, card.ID, card.Label, nullIfEmpty(card.Code), card.Location, card.Notes,
			string(card.Status), now.UnixMilli(), now.UnixMilli())
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("%w: id=%s code=%s", store.ErrDuplicateIdentity, card.ID, card.Code)
			}
			return fmt.Errorf("Create insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Card{}, err
	}
	return card, nil
}

func (s *CardStore) Get(ctx context.Context, id string) (types.Card, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?;`, id)
	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return types.Card{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return types.Card{}, fmt.Errorf("Get %s: %w", id, err)
	}
	return card, nil
}

func (s *CardStore) Update(ctx context.Context, id string, fields store.CardFields) (types.Card, error) {
	var updated types.Card
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+cardColumns+` FROM cards WHERE id = ?;`, id)
		card, err := scanCard(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("Update read: %w", err)
		}

		if fields.Label != nil {
			card.Label = strings.TrimSpace(*fields.Label)
		}
		if fields.Code != nil {
			card.Code = strings.TrimSpace(*fields.Code)
		}
		if fields.Location != nil {
			card.Location = strings.TrimSpace(*fields.Location)
		}
		if fields.Notes != nil {
			card.Notes = *fields.Notes
		}
		card.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
UPDATE cards SET label = ?, code = ?, location = ?, notes = ?, updated_at_ms = ?
WHERE id = ?;
`, card.Label, nullIfEmpty(card.Code), card.Location, card.Notes,
			card.UpdatedAt.UnixMilli(), id); err != nil {
			if isConstraint(err) {
				return fmt.Errorf("%w: code=%s", store.ErrDuplicateIdentity, card.Code)
			}
			return fmt.Errorf("Update write: %w", err)
		}

		updated = card
		return nil
	})
	if err != nil {
		return types.Card{}, err
	}
	return updated, nil
}

func (s *CardStore) Delete(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM cards WHERE id = ?;`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("Delete read: %w", err)
		}
		if types.Status(status) == types.StatusOut {
			return fmt.Errorf("%w: %s", store.ErrCardSignedOut, id)
		}

		// History rows are left untouched: the audit trail outlives the card.
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?;`, id); err != nil {
			return fmt.Errorf("Delete: %w", err)
		}
		return nil
	})
}

func (s *CardStore) List(ctx context.Context, filter types.CardFilter) ([]types.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards`
	var conds []string
	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		conds = append(conds, `(label LIKE ? OR IFNULL(current_holder,'') LIKE ?
    OR notes LIKE ? OR IFNULL(code,'') LIKE ? OR location LIKE ?)`)
		args = append(args, like, like, like, like, like)
	}
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.conn.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("List query: %w", err)
	}
	defer rows.Close()

	var cards []types.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}

	store.SortCards(cards)
	return cards, nil
}

func (s *CardStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(sc scanner) (types.Card, error) {
	var (
		card        types.Card
		status      string
		signedOutMs sql.NullInt64
		createdMs   int64
		updatedMs   int64
	)
	err := sc.Scan(&card.ID, &card.Label, &card.Code, &card.Location, &card.Notes,
		&status, &card.CurrentHolder, &signedOutMs, &createdMs, &updatedMs)
	if err != nil {
		return types.Card{}, err
	}
	card.Status = types.Status(status)
	if signedOutMs.Valid {
		t := time.UnixMilli(signedOutMs.Int64).UTC()
		card.SignedOutAt = &t
	}
	card.CreatedAt = time.UnixMilli(createdMs).UTC()
	card.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return card, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isConstraint(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
