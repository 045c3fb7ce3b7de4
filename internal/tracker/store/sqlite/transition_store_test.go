package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// Legal transitions
// ═══════════════════════════════════════════════════════════════════════════

func TestTransitionStore_SignOut(t *testing.T) {
	cards, transitions, _, conn := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	card, err := transitions.Apply(ctx, "C1", types.EventSignedOut, "Alice", "visiting")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if card.Status != types.StatusOut {
		t.Errorf("expected Out, got %s", card.Status)
	}
	if card.CurrentHolder != "Alice" {
		t.Errorf("expected holder Alice, got %q", card.CurrentHolder)
	}
	if card.SignedOutAt == nil {
		t.Error("expected signed_out_at to be set")
	}

	var evType, holder string
	var tsMs int64
	err = conn.QueryRowContext(ctx,
		`SELECT event_type, holder, timestamp_ms FROM history WHERE card_id = ?`, "C1",
	).Scan(&evType, &holder, &tsMs)
	if err != nil {
		t.Fatalf("query history: %v", err)
	}
	if evType != "SignedOut" || holder != "Alice" {
		t.Errorf("unexpected event row: %s/%s", evType, holder)
	}

	// Same timestamp on the card row and the event — written atomically.
	var signedOutMs int64
	if err := conn.QueryRowContext(ctx,
		`SELECT signed_out_at_ms FROM cards WHERE id = ?`, "C1").Scan(&signedOutMs); err != nil {
		t.Fatalf("query card: %v", err)
	}
	if signedOutMs != tsMs {
		t.Errorf("card timestamp %d != event timestamp %d", signedOutMs, tsMs)
	}
}

func TestTransitionStore_ReturnClearsHolder(t *testing.T) {
	cards, transitions, _, _ := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	if _, err := transitions.Apply(ctx, "C1", types.EventSignedOut, "Alice", "note"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	card, err := transitions.Apply(ctx, "C1", types.EventReturned, "", "")
	if err != nil {
		t.Fatalf("Return: %v", err)
	}

	if card.Status != types.StatusAvailable {
		t.Errorf("expected Available, got %s", card.Status)
	}
	if card.CurrentHolder != "" || card.SignedOutAt != nil {
		t.Errorf("expected holder cleared, got %q / %v", card.CurrentHolder, card.SignedOutAt)
	}
	if card.Notes != "" {
		t.Errorf("expected sign-out notes cleared on return, got %q", card.Notes)
	}
}

func TestTransitionStore_LostFromOutCapturesHolder(t *testing.T) {
	cards, transitions, _, conn := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	if _, err := transitions.Apply(ctx, "C1", types.EventSignedOut, "Alice", ""); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	card, err := transitions.Apply(ctx, "C1", types.EventMarkedLost, "", "never came back")
	if err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	if card.Status != types.StatusLost {
		t.Errorf("expected Lost, got %s", card.Status)
	}
	if card.CurrentHolder != "" || card.SignedOutAt != nil {
		t.Error("Lost card must not keep holder fields on the card row")
	}

	// The event remembers who had it.
	var holder string
	err = conn.QueryRowContext(ctx,
		`SELECT holder FROM history WHERE card_id = ? AND event_type = 'MarkedLost'`, "C1",
	).Scan(&holder)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if holder != "Alice" {
		t.Errorf("expected lost event to capture holder Alice, got %q", holder)
	}
}

func TestTransitionStore_LostFromAvailableAndFound(t *testing.T) {
	cards, transitions, _, _ := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	card, err := transitions.Apply(ctx, "C1", types.EventMarkedLost, "", "")
	if err != nil {
		t.Fatalf("MarkLost from Available: %v", err)
	}
	if card.Status != types.StatusLost {
		t.Errorf("expected Lost, got %s", card.Status)
	}

	card, err = transitions.Apply(ctx, "C1", types.EventMarkedFound, "", "under a desk")
	if err != nil {
		t.Fatalf("MarkFound: %v", err)
	}
	if card.Status != types.StatusAvailable {
		t.Errorf("expected Available after found, got %s", card.Status)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Illegal transitions write nothing
// ═══════════════════════════════════════════════════════════════════════════

func TestTransitionStore_IllegalTransitionsWriteNothing(t *testing.T) {
	cards, transitions, _, conn := newStores(t)
	ctx := context.Background()

	seedCard(t, cards, "AV", "Available card")
	seedCard(t, cards, "OUT", "Out card")
	seedCard(t, cards, "LOST", "Lost card")
	if _, err := transitions.Apply(ctx, "OUT", types.EventSignedOut, "Bob", ""); err != nil {
		t.Fatalf("setup OUT: %v", err)
	}
	if _, err := transitions.Apply(ctx, "LOST", types.EventMarkedLost, "", ""); err != nil {
		t.Fatalf("setup LOST: %v", err)
	}

	var before int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&before); err != nil {
		t.Fatalf("count: %v", err)
	}

	illegal := []struct {
		cardID string
		event  types.EventType
	}{
		{"AV", types.EventReturned},     // return an available card
		{"AV", types.EventMarkedFound},  // find a card that isn't lost
		{"OUT", types.EventSignedOut},   // double sign-out
		{"OUT", types.EventMarkedFound}, // find an out card
		{"LOST", types.EventSignedOut},  // sign out a lost card
		{"LOST", types.EventReturned},   // return a lost card
		{"LOST", types.EventMarkedLost}, // lose it twice
	}

	for _, tc := range illegal {
		_, err := transitions.Apply(ctx, tc.cardID, tc.event, "Eve", "x")
		if !errors.Is(err, store.ErrInvalidTransition) {
			t.Errorf("%s on %s: expected ErrInvalidTransition, got %v", tc.event, tc.cardID, err)
		}
	}

	var after int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&after); err != nil {
		t.Fatalf("count: %v", err)
	}
	if after != before {
		t.Errorf("illegal transitions appended %d events", after-before)
	}

	// Card rows untouched.
	for id, want := range map[string]types.Status{
		"AV":   types.StatusAvailable,
		"OUT":  types.StatusOut,
		"LOST": types.StatusLost,
	} {
		card, err := cards.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if card.Status != want {
			t.Errorf("%s: expected %s, got %s", id, want, card.Status)
		}
	}
}

func TestTransitionStore_UnknownCard(t *testing.T) {
	_, transitions, _, _ := newStores(t)

	_, err := transitions.Apply(context.Background(), "nope", types.EventSignedOut, "Alice", "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Concurrent sign-out race
// ═══════════════════════════════════════════════════════════════════════════

// Two sign-out attempts on the same Available card must resolve to
// exactly one winner; the loser sees ErrInvalidTransition because the
// precondition is re-checked inside the transaction.
func TestTransitionStore_ConcurrentSignOut_OneWinner(t *testing.T) {
	cards, transitions, _, conn := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, holder := range []string{"Alice", "Bob"} {
		wg.Add(1)
		go func(i int, holder string) {
			defer wg.Done()
			_, errs[i] = transitions.Apply(ctx, "C1", types.EventSignedOut, holder, "")
		}(i, holder)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected 1 winner and 1 loser, got %d/%d", wins, losses)
	}

	var events int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE card_id = ? AND event_type = 'SignedOut'`, "C1",
	).Scan(&events); err != nil {
		t.Fatalf("count: %v", err)
	}
	if events != 1 {
		t.Errorf("expected exactly one SignedOut event, got %d", events)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Status always matches the last event (I1)
// ═══════════════════════════════════════════════════════════════════════════

func TestTransitionStore_StatusMatchesLastEvent(t *testing.T) {
	cards, transitions, history, _ := newStores(t)
	seedCard(t, cards, "C1", "Lab Card 3")
	ctx := context.Background()

	steps := []struct {
		event  types.EventType
		holder string
	}{
		{types.EventSignedOut, "Alice"},
		{types.EventReturned, ""},
		{types.EventSignedOut, "Bob"},
		{types.EventMarkedLost, ""},
		{types.EventMarkedFound, ""},
	}

	for _, step := range steps {
		if _, err := transitions.Apply(ctx, "C1", step.event, step.holder, ""); err != nil {
			t.Fatalf("Apply %s: %v", step.event, err)
		}

		card, err := cards.Get(ctx, "C1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		events, err := history.Query(ctx, types.HistoryFilter{CardID: "C1"}, types.Page{})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		last := events[len(events)-1]
		if want := types.StatusAfter(last.Type); card.Status != want {
			t.Fatalf("after %s: status %s disagrees with last event %s (implies %s)",
				step.event, card.Status, last.Type, want)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// End-to-end scenario
// ═══════════════════════════════════════════════════════════════════════════

func TestTransitionStore_LifecycleScenario(t *testing.T) {
	cards, transitions, history, _ := newStores(t)
	ctx := context.Background()

	if _, err := cards.Create(ctx, types.Card{ID: "C1", Label: "Lab Card 3"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	card, err := transitions.Apply(ctx, "C1", types.EventSignedOut, "Alice", "")
	if err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if card.Status != types.StatusOut || card.CurrentHolder != "Alice" {
		t.Fatalf("after sign-out: %+v", card)
	}

	if _, err := transitions.Apply(ctx, "C1", types.EventMarkedLost, "", ""); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}
	card, err = transitions.Apply(ctx, "C1", types.EventMarkedFound, "", "")
	if err != nil {
		t.Fatalf("MarkFound: %v", err)
	}
	if card.Status != types.StatusAvailable {
		t.Fatalf("expected Available at end, got %s", card.Status)
	}

	events, err := history.Query(ctx, types.HistoryFilter{CardID: "C1"}, types.Page{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []types.EventType{types.EventSignedOut, types.EventMarkedLost, types.EventMarkedFound}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, w := range want {
		if events[i].Type != w {
			t.Errorf("event %d: expected %s, got %s", i, w, events[i].Type)
		}
	}
	// Total order within the card's history (I3).
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("event %d timestamp runs backwards", i)
		}
		if events[i].ID <= events[i-1].ID {
			t.Errorf("event %d id not increasing", i)
		}
	}
}
