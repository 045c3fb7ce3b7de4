package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

var ErrHolderRequired = errors.New("holder name is required")

// SignoutService is the only path that changes a card's status. Each
// operation validates its input, then hands the transition to the store,
// which re-checks the precondition and writes the card row plus exactly
// one history event in a single transaction. Validation failures never
// start a transaction.
type SignoutService struct {
	transitions store.TransitionStore
	log         zerolog.Logger
}

func NewSignoutService(transitions store.TransitionStore, log zerolog.Logger) *SignoutService {
	return &SignoutService{transitions: transitions, log: log}
}

// SignOut puts an Available card into a holder's hands.
func (s *SignoutService) SignOut(ctx context.Context, cardID, holder, notes string) (types.Card, error) {
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return types.Card{}, ErrHolderRequired
	}

	card, err := s.transitions.Apply(ctx, cardID, types.EventSignedOut, holder, strings.TrimSpace(notes))
	if err != nil {
		return types.Card{}, err
	}
	s.log.Info().Str("card_id", cardID).Str("holder", holder).Msg("card signed out")
	return card, nil
}

// Return brings an Out card back to Available.
func (s *SignoutService) Return(ctx context.Context, cardID string) (types.Card, error) {
	card, err := s.transitions.Apply(ctx, cardID, types.EventReturned, "", "")
	if err != nil {
		return types.Card{}, err
	}
	s.log.Info().Str("card_id", cardID).Msg("card returned")
	return card, nil
}

// MarkLost records a card as missing. Legal from Available or Out; a
// card lost while Out keeps its holder on the event for accountability.
func (s *SignoutService) MarkLost(ctx context.Context, cardID, notes string) (types.Card, error) {
	card, err := s.transitions.Apply(ctx, cardID, types.EventMarkedLost, "", strings.TrimSpace(notes))
	if err != nil {
		return types.Card{}, err
	}
	s.log.Warn().Str("card_id", cardID).Msg("card marked lost")
	return card, nil
}

// MarkFound brings a Lost card back to Available.
func (s *SignoutService) MarkFound(ctx context.Context, cardID, notes string) (types.Card, error) {
	card, err := s.transitions.Apply(ctx, cardID, types.EventMarkedFound, "", strings.TrimSpace(notes))
	if err != nil {
		return types.Card{}, err
	}
	s.log.Info().Str("card_id", cardID).Msg("card marked found")
	return card, nil
}
