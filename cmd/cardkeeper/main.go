package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cetilab/cardkeeper/internal/config"
	"github.com/cetilab/cardkeeper/internal/db"
	"github.com/cetilab/cardkeeper/internal/logging"
	"github.com/cetilab/cardkeeper/internal/tracker/app"
	"github.com/cetilab/cardkeeper/internal/tracker/service"
	"github.com/cetilab/cardkeeper/internal/tracker/store"
	sqlitestore "github.com/cetilab/cardkeeper/internal/tracker/store/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:           "cardkeeper",
		Short:         "Track shared access cards over a shared-folder database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		listCommand(),
		addCommand(),
		editCommand(),
		removeCommand(),
		signoutCommand(),
		returnCommand(),
		lostCommand(),
		foundCommand(),
		historyCommand(),
		exportCommand(),
		seedCommand(),
		auditCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", friendly(err))
		os.Exit(1)
	}
}

// runtime bundles everything a subcommand needs against one open database.
type runtime struct {
	app     *app.App
	auditor *service.StatusAuditor
}

// withApp opens the shared database, runs fn, and tears everything down.
// Each CLI invocation is one independent engine process; concurrent
// invocations from different machines coordinate only through the file.
func withApp(fn func(ctx context.Context, rt runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return err
	}
	defer conn.Close()

	writer := db.NewTransactor(conn, cfg.BusyBudget)
	defer writer.Close()

	cards := sqlitestore.NewCardStore(conn, writer)
	transitions := sqlitestore.NewTransitionStore(conn, writer)
	history := sqlitestore.NewHistoryStore(conn)

	rt := runtime{
		app:     app.New(cards, transitions, history, log),
		auditor: service.NewStatusAuditor(cards, history, cfg.AuditInterval, log),
	}
	return fn(ctx, rt)
}

// friendly translates engine errors into the messages a user should see.
func friendly(err error) string {
	switch {
	case errors.Is(err, db.ErrBusy):
		return "someone else is saving right now — try again shortly"
	case errors.Is(err, db.ErrStorageUnavailable):
		return fmt.Sprintf("cannot open the card database: %v", err)
	case errors.Is(err, store.ErrNotFound):
		return "no card with that id"
	case errors.Is(err, store.ErrInvalidTransition):
		return fmt.Sprintf("that action is not allowed from the card's current status (%v)", err)
	case errors.Is(err, store.ErrDuplicateIdentity):
		return "a card with that id or code already exists"
	case errors.Is(err, store.ErrCardSignedOut):
		return "card is currently signed out — return it first"
	}
	return err.Error()
}
