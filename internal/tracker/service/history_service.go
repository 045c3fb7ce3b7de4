package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{"timestamp", "card_label", "card_id", "event_type", "holder", "notes"}

// HistoryService is read-only access to the audit log. It performs no
// writes.
type HistoryService struct {
	history store.HistoryStore
}

func NewHistoryService(history store.HistoryStore) *HistoryService {
	return &HistoryService{history: history}
}

func (s *HistoryService) Query(ctx context.Context, filter types.HistoryFilter, page types.Page) ([]types.HistoryEvent, error) {
	return s.history.Query(ctx, filter, page)
}

// ExportCSV streams the filtered history to w as UTF-8 CSV with a header
// row. encoding/csv quotes any field containing commas, quotes, or
// newlines, so a round-trip through a standard parser recovers the exact
// field values. Returns the number of event rows written.
func (s *HistoryService) ExportCSV(ctx context.Context, w io.Writer, filter types.HistoryFilter) (int, error) {
	events, err := s.history.Query(ctx, filter, types.Page{})
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		rec := []string{
			ev.Timestamp.UTC().Format(time.RFC3339),
			ev.CardLabel,
			ev.CardID,
			string(ev.Type),
			ev.Holder,
			ev.Notes,
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(events), nil
}
