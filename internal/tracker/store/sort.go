package store

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

// SortCards orders cards by label with a natural trailing-number sort,
// so "Visitor 2" lists before "Visitor 10".
func SortCards(cards []types.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		pi, ni := naturalKey(cards[i].Label)
		pj, nj := naturalKey(cards[j].Label)
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
}

func naturalKey(label string) (string, int64) {
	s := strings.TrimSpace(label)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		// No trailing number: sort after numbered siblings of same prefix.
		return strings.ToLower(s), int64(^uint64(0) >> 1)
	}
	n, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil {
		return strings.ToLower(s), int64(^uint64(0) >> 1)
	}
	return strings.ToLower(strings.TrimSpace(s[:i])), n
}
