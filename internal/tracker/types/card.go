package types

import "time"

// Status is the current lifecycle state of a card. It is a cached
// projection of the card's most recent history event; transitions keep
// the two in sync by writing both in one transaction.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusOut       Status = "Out"
	StatusLost      Status = "Lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOut, StatusLost:
		return true
	}
	return false
}

// Card is a physical access card tracked by the engine.
type Card struct {
	ID       string
	Label    string
	Code     string // optional 4-digit short code, unique when present
	Location string // where the card lives when not signed out
	Notes    string
	Status   Status

	// Populated only while Status == StatusOut.
	CurrentHolder string
	SignedOutAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
