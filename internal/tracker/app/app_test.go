package app_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetilab/cardkeeper/internal/tracker/app"
	"github.com/cetilab/cardkeeper/internal/tracker/service"
	"github.com/cetilab/cardkeeper/internal/tracker/store/memory"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	mem := memory.New()
	return app.New(mem, mem, mem, zerolog.Nop())
}

func TestApp_Lifecycle(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	card, err := a.CreateCard(ctx, service.CreateParams{ID: "C1", Label: "Lab Card 3"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusAvailable, card.Status)

	card, err = a.SignOut(ctx, "C1", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusOut, card.Status)
	assert.Equal(t, "Alice", card.CurrentHolder)

	card, err = a.MarkLost(ctx, "C1", "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusLost, card.Status)

	card, err = a.MarkFound(ctx, "C1", "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusAvailable, card.Status)

	events, err := a.QueryHistory(ctx, types.HistoryFilter{CardID: "C1"}, types.Page{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, types.EventSignedOut, events[0].Type)
	assert.Equal(t, types.EventMarkedLost, events[1].Type)
	assert.Equal(t, types.EventMarkedFound, events[2].Type)
}

func TestApp_ExportSurvivesCardDeletion(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.CreateCard(ctx, service.CreateParams{ID: "C1", Label: "Lab Card 3"})
	require.NoError(t, err)
	_, err = a.SignOut(ctx, "C1", "Alice", "")
	require.NoError(t, err)
	_, err = a.ReturnCard(ctx, "C1")
	require.NoError(t, err)
	require.NoError(t, a.DeleteCard(ctx, "C1"))

	var buf bytes.Buffer
	n, err := a.ExportHistoryCSV(ctx, &buf, types.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "deletion must not shrink the audit trail")

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "(deleted)", records[1][1])
}

func TestApp_FirstRunAndSeeding(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	first, err := a.FirstRun(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	n, err := a.SeedPresets(ctx, app.DefaultPresets())
	require.NoError(t, err)
	assert.Equal(t, 33, n)

	first, err = a.FirstRun(ctx)
	require.NoError(t, err)
	assert.False(t, first, "first run never re-triggers once cards exist")

	// Seeding again is a no-op, not a duplicate set.
	n, err = a.SeedPresets(ctx, app.DefaultPresets())
	require.NoError(t, err)
	assert.Zero(t, n)

	cards, err := a.ListCards(ctx, types.CardFilter{})
	require.NoError(t, err)
	assert.Len(t, cards, 33)
}

func TestApp_SeedPresets_SkipsCardsAnotherSeederWon(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	// A code collision mid-seed is what a racing seeder leaves behind:
	// both passed the emptiness check, the index decides each card.
	presets := []app.Preset{
		{Label: "Visitor 1", Code: "2001"},
		{Label: "Visitor 1 (twin)", Code: "2001"},
		{Label: "Visitor 2", Code: "2002"},
	}

	n, err := a.SeedPresets(ctx, presets)
	require.NoError(t, err, "losing a card to the index must not fail the seed")
	assert.Equal(t, 2, n)

	cards, err := a.ListCards(ctx, types.CardFilter{})
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestApp_SeedPresetsSkippedWhenCardsExist(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.CreateCard(ctx, service.CreateParams{Label: "Existing"})
	require.NoError(t, err)

	n, err := a.SeedPresets(ctx, app.DefaultPresets())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefaultPresets_Shape(t *testing.T) {
	presets := app.DefaultPresets()
	require.Len(t, presets, 33)

	assert.Equal(t, "Lab Visitor 1", presets[0].Label)
	assert.Equal(t, "1001", presets[0].Code)
	assert.Equal(t, "119-1 Cabinet", presets[0].Location)
	assert.Equal(t, "Lab Manager Card", presets[32].Label)

	seen := map[string]bool{}
	for _, p := range presets {
		assert.NotEmpty(t, p.Code)
		assert.False(t, seen[p.Code], "duplicate preset code %s", p.Code)
		seen[p.Code] = true
	}
}
