// Package memory holds a mutex-guarded in-memory implementation of the
// card and history stores. It exists for service and facade tests; the
// mutex stands in for the transaction that serializes the real store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

type Store struct {
	mu     sync.Mutex
	cards  map[string]types.Card
	events []types.HistoryEvent
	nextID int64
}

func New() *Store {
	return &Store{cards: make(map[string]types.Card), nextID: 1}
}

func (s *Store) Create(_ context.Context, card types.Card) (types.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[card.ID]; ok {
		return types.Card{}, fmt.Errorf("%w: id=%s", store.ErrDuplicateIdentity, card.ID)
	}
	if card.Code != "" {
		for _, c := range s.cards {
			if c.Code == card.Code {
				return types.Card{}, fmt.Errorf("%w: code=%s", store.ErrDuplicateIdentity, card.Code)
			}
		}
	}

	now := time.Now().UTC()
	card.Status = types.StatusAvailable
	card.CurrentHolder = ""
	card.SignedOutAt = nil
	card.CreatedAt = now
	card.UpdatedAt = now
	s.cards[card.ID] = card
	return card, nil
}

func (s *Store) Get(_ context.Context, id string) (types.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return types.Card{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return card, nil
}

func (s *Store) Update(_ context.Context, id string, fields store.CardFields) (types.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok {
		return types.Card{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
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
	s.cards[id] = card
	return card, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if card.Status == types.StatusOut {
		return fmt.Errorf("%w: %s", store.ErrCardSignedOut, id)
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) List(_ context.Context, filter types.CardFilter) ([]types.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Card
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, card := range s.cards {
		if filter.Status != "" && card.Status != filter.Status {
			continue
		}
		if search != "" && !matches(card, search) {
			continue
		}
		out = append(out, card)
	}
	store.SortCards(out)
	return out, nil
}

func matches(card types.Card, search string) bool {
	for _, field := range []string{card.Label, card.CurrentHolder, card.Notes, card.Code, card.Location} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.cards)), nil
}

func (s *Store) Apply(_ context.Context, cardID string, event types.EventType, holder, notes string) (types.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok {
		return types.Card{}, fmt.Errorf("%w: %s", store.ErrNotFound, cardID)
	}

	next, legal := types.Transition(card.Status, event)
	if !legal {
		return types.Card{}, fmt.Errorf("%w: %s is %s, cannot record %s",
			store.ErrInvalidTransition, cardID, card.Status, event)
	}

	ts := time.Now().UTC()
	if n := len(s.events); n > 0 {
		// Same per-card monotonic clamp as the real store.
		for i := n - 1; i >= 0; i-- {
			if s.events[i].CardID == cardID {
				if s.events[i].Timestamp.After(ts) {
					ts = s.events[i].Timestamp
				}
				break
			}
		}
	}

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

	s.cards[cardID] = card
	s.events = append(s.events, types.HistoryEvent{
		ID:        s.nextID,
		CardID:    cardID,
		CardLabel: card.Label,
		Type:      event,
		Holder:    eventHolder,
		Notes:     notes,
		Timestamp: ts,
	})
	s.nextID++
	return card, nil
}

func (s *Store) Query(_ context.Context, filter types.HistoryFilter, page types.Page) ([]types.HistoryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []types.HistoryEvent
	for _, ev := range s.events {
		if filter.CardID != "" && ev.CardID != filter.CardID {
			continue
		}
		if filter.Since != nil && ev.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && ev.Timestamp.After(*filter.Until) {
			continue
		}
		// Labels resolve against the current card table, as in SQL.
		label := "(deleted)"
		if card, ok := s.cards[ev.CardID]; ok {
			label = card.Label
		}
		if search != "" {
			hit := false
			for _, field := range []string{label, ev.Holder, ev.Notes, ev.CardID} {
				if strings.Contains(strings.ToLower(field), search) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		ev.CardLabel = label
		out = append(out, ev)
	}

	if page.Offset > 0 {
		if page.Offset >= len(out) {
			return nil, nil
		}
		out = out[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

// Events returns a copy of the full log. Test-only helper.
func (s *Store) Events() []types.HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.HistoryEvent, len(s.events))
	copy(out, s.events)
	return out
}
