package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// StatusAuditor periodically recomputes every card's status from its
// history log and compares it to the cached status column. The two are
// written in one transaction, so any disagreement means the file was
// tampered with or a foreign writer broke the discipline; the auditor
// detects drift and logs it, it never repairs.
//
// An interval of 0 disables the background loop; CheckOnce can still be
// called directly.
type StatusAuditor struct {
	cards    store.CardStore
	history  store.HistoryStore
	interval time.Duration
	log      zerolog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewStatusAuditor(cards store.CardStore, history store.HistoryStore, interval time.Duration, log zerolog.Logger) *StatusAuditor {
	return &StatusAuditor{
		cards:    cards,
		history:  history,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Drift describes one card whose cached status disagrees with its log.
type Drift struct {
	CardID   string
	Stored   types.Status
	Computed types.Status
}

// CheckOnce scans all cards and returns those whose status column does
// not match the status implied by their most recent history event. Cards
// with no events must be Available.
func (a *StatusAuditor) CheckOnce(ctx context.Context) ([]Drift, error) {
	cards, err := a.cards.List(ctx, types.CardFilter{})
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, card := range cards {
		events, err := a.history.Query(ctx, types.HistoryFilter{CardID: card.ID}, types.Page{})
		if err != nil {
			return nil, err
		}

		computed := types.StatusAvailable
		if len(events) > 0 {
			computed = types.StatusAfter(events[len(events)-1].Type)
		}

		if card.Status != computed {
			drifts = append(drifts, Drift{CardID: card.ID, Stored: card.Status, Computed: computed})
			a.log.Warn().
				Str("card_id", card.ID).
				Str("stored", string(card.Status)).
				Str("computed", string(computed)).
				Msg("status drift detected")
		}
	}
	return drifts, nil
}

// Start begins the background audit loop. It runs one check immediately,
// then repeats on the configured interval until ctx is cancelled or Stop
// is called.
func (a *StatusAuditor) Start(ctx context.Context) {
	if a.interval <= 0 {
		a.log.Debug().Msg("status auditor disabled (interval=0)")
		close(a.done)
		return
	}

	ctx, a.cancel = context.WithCancel(ctx)
	go a.loop(ctx)
	a.log.Info().Dur("interval", a.interval).Msg("status auditor started")
}

// Stop signals the auditor to exit and waits for it to finish.
func (a *StatusAuditor) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	<-a.done
}

func (a *StatusAuditor) loop(ctx context.Context) {
	defer close(a.done)

	a.check(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.check(ctx)
		}
	}
}

func (a *StatusAuditor) check(ctx context.Context) {
	drifts, err := a.CheckOnce(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("status audit failed")
		return
	}
	if len(drifts) == 0 {
		a.log.Debug().Msg("status audit clean")
	}
}
