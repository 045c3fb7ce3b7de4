package types_test

import (
	"testing"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

func TestTransition_Table(t *testing.T) {
	cases := []struct {
		current types.Status
		event   types.EventType
		next    types.Status
		legal   bool
	}{
		{types.StatusAvailable, types.EventSignedOut, types.StatusOut, true},
		{types.StatusOut, types.EventReturned, types.StatusAvailable, true},
		{types.StatusAvailable, types.EventMarkedLost, types.StatusLost, true},
		{types.StatusOut, types.EventMarkedLost, types.StatusLost, true},
		{types.StatusLost, types.EventMarkedFound, types.StatusAvailable, true},

		{types.StatusOut, types.EventSignedOut, types.StatusOut, false},
		{types.StatusLost, types.EventSignedOut, types.StatusLost, false},
		{types.StatusAvailable, types.EventReturned, types.StatusAvailable, false},
		{types.StatusLost, types.EventReturned, types.StatusLost, false},
		{types.StatusLost, types.EventMarkedLost, types.StatusLost, false},
		{types.StatusAvailable, types.EventMarkedFound, types.StatusAvailable, false},
		{types.StatusOut, types.EventMarkedFound, types.StatusOut, false},
	}

	for _, tc := range cases {
		next, legal := types.Transition(tc.current, tc.event)
		if legal != tc.legal {
			t.Errorf("%s + %s: legal=%v, want %v", tc.current, tc.event, legal, tc.legal)
		}
		if next != tc.next {
			t.Errorf("%s + %s: next=%s, want %s", tc.current, tc.event, next, tc.next)
		}
	}
}

func TestStatusAfter_CoversAllEvents(t *testing.T) {
	want := map[types.EventType]types.Status{
		types.EventSignedOut:   types.StatusOut,
		types.EventReturned:    types.StatusAvailable,
		types.EventMarkedLost:  types.StatusLost,
		types.EventMarkedFound: types.StatusAvailable,
	}
	for ev, status := range want {
		if got := types.StatusAfter(ev); got != status {
			t.Errorf("StatusAfter(%s)=%s, want %s", ev, got, status)
		}
	}
}

// Every legal transition must land on the status StatusAfter implies, or
// the cached column and the log could drift by construction.
func TestTransition_AgreesWithStatusAfter(t *testing.T) {
	statuses := []types.Status{types.StatusAvailable, types.StatusOut, types.StatusLost}
	events := []types.EventType{
		types.EventSignedOut, types.EventReturned,
		types.EventMarkedLost, types.EventMarkedFound,
	}
	for _, cur := range statuses {
		for _, ev := range events {
			next, legal := types.Transition(cur, ev)
			if legal && next != types.StatusAfter(ev) {
				t.Errorf("%s + %s: transition says %s, StatusAfter says %s",
					cur, ev, next, types.StatusAfter(ev))
			}
		}
	}
}
