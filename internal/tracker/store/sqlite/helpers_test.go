package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/cetilab/cardkeeper/internal/db"
	sqlitestore "github.com/cetilab/cardkeeper/internal/tracker/store/sqlite"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed automatically when
// the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database. The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(1000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection per process.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Transactor backed by conn. The transactor is
// closed automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Transactor {
	t.Helper()

	w := db.NewTransactor(conn, 0)
	t.Cleanup(func() { w.Close() })
	return w
}

// newStores builds the full store set against one test database.
func newStores(t *testing.T) (*sqlitestore.CardStore, *sqlitestore.TransitionStore, *sqlitestore.HistoryStore, *sql.DB) {
	t.Helper()

	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	return sqlitestore.NewCardStore(conn, w),
		sqlitestore.NewTransitionStore(conn, w),
		sqlitestore.NewHistoryStore(conn),
		conn
}

// seedCard creates one Available card with the given id and label.
func seedCard(t *testing.T, cards *sqlitestore.CardStore, id, label string) types.Card {
	t.Helper()

	card, err := cards.Create(context.Background(), types.Card{ID: id, Label: label})
	if err != nil {
		t.Fatalf("seedCard(%s): %v", id, err)
	}
	return card
}
