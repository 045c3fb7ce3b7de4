package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

var (
	ErrLabelRequired = errors.New("card label is required")
	ErrInvalidCode   = errors.New("card code must be exactly 4 digits")
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

// CardService manages card definitions. Status changes are not its
// business; those go through the SignoutService.
type CardService struct {
	cards store.CardStore
}

func NewCardService(cards store.CardStore) *CardService {
	return &CardService{cards: cards}
}

// CreateParams describes a new card. ID is optional: when empty a fresh
// uuid is assigned, so auto-assigned ids never collide.
type CreateParams struct {
	ID       string
	Label    string
	Code     string
	Location string
	Notes    string
}

func (s *CardService) Create(ctx context.Context, p CreateParams) (types.Card, error) {
	label := strings.TrimSpace(p.Label)
	if label == "" {
		return types.Card{}, ErrLabelRequired
	}
	code := strings.TrimSpace(p.Code)
	if code != "" && !codePattern.MatchString(code) {
		return types.Card{}, ErrInvalidCode
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return s.cards.Create(ctx, types.Card{
		ID:       id,
		Label:    label,
		Code:     code,
		Location: strings.TrimSpace(p.Location),
		Notes:    p.Notes,
	})
}

func (s *CardService) Get(ctx context.Context, id string) (types.Card, error) {
	return s.cards.Get(ctx, id)
}

func (s *CardService) Update(ctx context.Context, id string, fields store.CardFields) (types.Card, error) {
	if fields.Label != nil && strings.TrimSpace(*fields.Label) == "" {
		return types.Card{}, ErrLabelRequired
	}
	if fields.Code != nil {
		if code := strings.TrimSpace(*fields.Code); code != "" && !codePattern.MatchString(code) {
			return types.Card{}, ErrInvalidCode
		}
	}
	return s.cards.Update(ctx, id, fields)
}

func (s *CardService) Delete(ctx context.Context, id string) error {
	return s.cards.Delete(ctx, id)
}

func (s *CardService) List(ctx context.Context, filter types.CardFilter) ([]types.Card, error) {
	return s.cards.List(ctx, filter)
}
