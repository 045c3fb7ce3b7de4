package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrBusy reports that another process held the write lock for the whole
// retry budget. Nothing was written; the operation is safe to retry.
var ErrBusy = errors.New("database busy")

// DefaultBusyBudget is the total time a transaction is allowed to spend
// retrying SQLITE_BUSY before giving up with ErrBusy.
const DefaultBusyBudget = 5 * time.Second

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Transactor runs write transactions against the shared database file.
//
// Within one process all writes are funneled through a single goroutine,
// so they apply in the order issued. Across processes SQLite's file lock
// serializes writers; when another process holds it past the driver's
// busy_timeout, the failed attempt is rolled back and retried with
// backoff until the budget is spent. Two users clicking the same action
// on different machines therefore resolve to one winner and one clean
// domain error, never a half-applied mix.
type Transactor struct {
	conn   *sql.DB
	budget time.Duration
	jobs   chan job
	done   chan struct{}
}

// NewTransactor starts the write loop. budget <= 0 selects
// DefaultBusyBudget.
func NewTransactor(conn *sql.DB, budget time.Duration) *Transactor {
	if budget <= 0 {
		budget = DefaultBusyBudget
	}
	t := &Transactor{
		conn:   conn,
		budget: budget,
		jobs:   make(chan job, 64),
		done:   make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Transactor) Close() {
	close(t.jobs)
	<-t.done
}

// Do runs fn inside an atomic transaction. On return either every write
// fn made is durably committed or none are. Returns ErrBusy if the file
// stayed locked for the whole budget.
func (t *Transactor) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	select {
	case t.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	// The loop always completes the transaction even if the caller gives
	// up; the result lands in the buffered ch and is discarded.
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transactor) loop() {
	defer close(t.done)
	for j := range t.jobs {
		j.ch <- t.run(j.ctx, j.fn)
	}
}

func (t *Transactor) run(ctx context.Context, fn TxFn) error {
	deadline := time.Now().Add(t.budget)
	backoff := 25 * time.Millisecond

	for {
		err := t.attempt(ctx, fn)
		if err == nil || !isBusy(err) {
			return err
		}
		if time.Now().Add(backoff).After(deadline) {
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 400*time.Millisecond {
			backoff *= 2
		}
	}
}

func (t *Transactor) attempt(ctx context.Context, fn TxFn) error {
	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// isBusy classifies driver errors as transient lock contention.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	// Fallback for wrapped or stringified driver errors.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
