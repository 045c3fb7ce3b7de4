package types

import "time"

// EventType identifies one kind of state transition in the audit log.
type EventType string

const (
	EventSignedOut   EventType = "SignedOut"
	EventReturned    EventType = "Returned"
	EventMarkedLost  EventType = "MarkedLost"
	EventMarkedFound EventType = "MarkedFound"
)

func (e EventType) Valid() bool {
	switch e {
	case EventSignedOut, EventReturned, EventMarkedLost, EventMarkedFound:
		return true
	}
	return false
}

// HistoryEvent is an immutable audit record of one transition. Events
// reference cards by id only (weak reference); deleting a card never
// touches its events.
type HistoryEvent struct {
	ID        int64
	CardID    string
	CardLabel string // resolved at query time; "(deleted)" if the card is gone
	Type      EventType
	Holder    string
	Notes     string
	Timestamp time.Time
}
