package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStorageUnavailable reports that the database file could not be
// opened, created, or validated. It is fatal: callers should surface it
// immediately rather than retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

type Config struct {
	Path string // e.g. "./cards.db"
}

// Open opens or creates the shared card database at cfg.Path and applies
// any pending migrations.
//
// The file is the coordination point between independently launched
// processes on a shared folder, so the pragmas matter:
//   - journal_mode(WAL): readers are never blocked by a writer, and an
//     aborted writer cannot corrupt the main file
//   - busy_timeout: the driver waits briefly for another process's write
//     lock before reporting SQLITE_BUSY (the Transactor retries on top)
//   - synchronous(NORMAL): durable-enough fsync discipline for WAL
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./cards.db"
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %v", ErrStorageUnavailable, dir, err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(1000)",
		cfg.Path,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: sql.Open: %v", ErrStorageUnavailable, err)
	}

	// One connection per process. Cross-process concurrency is SQLite's
	// job; inside the process every statement shares this connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrStorageUnavailable, err)
	}

	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return conn, nil
}
