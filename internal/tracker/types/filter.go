package types

import "time"

// CardFilter narrows a card listing. Search is matched as a substring
// against label, holder, notes, code, and location. Status, when set,
// must match exactly.
type CardFilter struct {
	Search string
	Status Status // empty = any
}

// HistoryFilter narrows a history query. Search matches card label,
// holder, notes, and card id substrings.
type HistoryFilter struct {
	CardID string // exact card id, empty = any
	Search string
	Since  *time.Time
	Until  *time.Time
}

// Page bounds a history query. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}
