package types

// Transition is the legal-state table for the sign-out machine:
//
//	Available --SignedOut--> Out
//	Out       --Returned--> Available
//	Available --MarkedLost--> Lost
//	Out       --MarkedLost--> Lost
//	Lost      --MarkedFound--> Available
//
// It returns the next status and whether the event is legal from the
// current status. Callers must evaluate it against the stored status
// inside the same transaction that writes the result.
func Transition(current Status, event EventType) (Status, bool) {
	switch event {
	case EventSignedOut:
		if current == StatusAvailable {
			return StatusOut, true
		}
	case EventReturned:
		if current == StatusOut {
			return StatusAvailable, true
		}
	case EventMarkedLost:
		if current == StatusAvailable || current == StatusOut {
			return StatusLost, true
		}
	case EventMarkedFound:
		if current == StatusLost {
			return StatusAvailable, true
		}
	}
	return current, false
}

// StatusAfter maps an event type to the status it leaves the card in.
// Used by the consistency auditor to recompute status from the log.
func StatusAfter(event EventType) Status {
	switch event {
	case EventSignedOut:
		return StatusOut
	case EventMarkedLost:
		return StatusLost
	default: // Returned, MarkedFound
		return StatusAvailable
	}
}
