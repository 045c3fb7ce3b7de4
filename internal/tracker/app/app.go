// Package app composes the stores and services into the single surface a
// presentation layer calls. The facade holds no state of its own; every
// call re-queries the shared database so concurrent processes always see
// each other's committed writes.
package app

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/cetilab/cardkeeper/internal/tracker/service"
	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

type App struct {
	cards    *service.CardService
	signout  *service.SignoutService
	history  *service.HistoryService
	cardRows store.CardStore
}

func New(cards store.CardStore, transitions store.TransitionStore, history store.HistoryStore, log zerolog.Logger) *App {
	return &App{
		cards:    service.NewCardService(cards),
		signout:  service.NewSignoutService(transitions, log),
		history:  service.NewHistoryService(history),
		cardRows: cards,
	}
}

// ── Card repository ─────────────────────────────────────────────────────────

func (a *App) CreateCard(ctx context.Context, p service.CreateParams) (types.Card, error) {
	return a.cards.Create(ctx, p)
}

func (a *App) GetCard(ctx context.Context, id string) (types.Card, error) {
	return a.cards.Get(ctx, id)
}

func (a *App) UpdateCard(ctx context.Context, id string, fields store.CardFields) (types.Card, error) {
	return a.cards.Update(ctx, id, fields)
}

func (a *App) DeleteCard(ctx context.Context, id string) error {
	return a.cards.Delete(ctx, id)
}

func (a *App) ListCards(ctx context.Context, filter types.CardFilter) ([]types.Card, error) {
	return a.cards.List(ctx, filter)
}

// ── Sign-out state machine ──────────────────────────────────────────────────

func (a *App) SignOut(ctx context.Context, cardID, holder, notes string) (types.Card, error) {
	return a.signout.SignOut(ctx, cardID, holder, notes)
}

func (a *App) ReturnCard(ctx context.Context, cardID string) (types.Card, error) {
	return a.signout.Return(ctx, cardID)
}

func (a *App) MarkLost(ctx context.Context, cardID, notes string) (types.Card, error) {
	return a.signout.MarkLost(ctx, cardID, notes)
}

func (a *App) MarkFound(ctx context.Context, cardID, notes string) (types.Card, error) {
	return a.signout.MarkFound(ctx, cardID, notes)
}

// ── History ─────────────────────────────────────────────────────────────────

func (a *App) QueryHistory(ctx context.Context, filter types.HistoryFilter, page types.Page) ([]types.HistoryEvent, error) {
	return a.history.Query(ctx, filter, page)
}

func (a *App) ExportHistoryCSV(ctx context.Context, w io.Writer, filter types.HistoryFilter) (int, error) {
	return a.history.ExportCSV(ctx, w, filter)
}

// ── Bootstrap ───────────────────────────────────────────────────────────────

// FirstRun reports whether the database holds no cards yet. Once any
// card exists it never reports true again.
func (a *App) FirstRun(ctx context.Context) (bool, error) {
	n, err := a.cardRows.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// SeedPresets creates the given cards on a fresh database and returns
// how many it created. On a database that already has cards it does
// nothing. The emptiness check and the inserts run in separate
// transactions, so two processes can both see an empty table and start
// seeding; the unique code index then decides each card, and the loser
// skips it instead of failing.
func (a *App) SeedPresets(ctx context.Context, presets []Preset) (int, error) {
	first, err := a.FirstRun(ctx)
	if err != nil {
		return 0, err
	}
	if !first {
		return 0, nil
	}

	created := 0
	for _, p := range presets {
		_, err := a.cards.Create(ctx, service.CreateParams{
			Label:    p.Label,
			Code:     p.Code,
			Location: p.Location,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrDuplicateIdentity):
			// Another seeder got this card first.
		default:
			return created, err
		}
	}
	return created, nil
}
