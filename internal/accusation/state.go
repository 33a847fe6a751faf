package accusation

import (
	"time"
)

// MaxFailedAccusations is the number of failed accusations that closes the playthrough. Reaching
// it is terminal: the only transition left is into the bad ending, after which the state is
// cleared for a new game.
const MaxFailedAccusations = 2

// State is the accusation record persisted across sessions. The transient progress of a running
// confrontation deliberately lives outside of it; a session restart discards the attempt but
// keeps the failure history.
type State struct {
	FailedAccusations int       `json:"failedAccusations"`
	AccusedSuspects   []string  `json:"accusedSuspects,omitempty"`
	Solved            bool      `json:"solved,omitempty"`
	LastAttemptAt     time.Time `json:"lastAttemptAt"`
}

// Closed reports whether the playthrough has run out of accusation attempts.
func (s State) Closed() bool {
	return s.FailedAccusations >= MaxFailedAccusations
}

// AttemptsRemaining is how many failed accusations the playthrough still survives.
func (s State) AttemptsRemaining() int {
	remaining := MaxFailedAccusations - s.FailedAccusations
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasAccused reports whether the suspect has ever been accused in this playthrough.
func (s State) HasAccused(suspectID string) bool {
	for _, id := range s.AccusedSuspects {
		if id == suspectID {
			return true
		}
	}
	return false
}

// recordAccused adds the suspect to the accused set and reports whether the entry is new.
func (s *State) recordAccused(suspectID string) bool {
	if s.HasAccused(suspectID) {
		return false
	}
	s.AccusedSuspects = append(s.AccusedSuspects, suspectID)
	return true
}

// removeAccused drops the suspect from the accused set.
func (s *State) removeAccused(suspectID string) {
	for i, id := range s.AccusedSuspects {
		if id == suspectID {
			s.AccusedSuspects = append(s.AccusedSuspects[:i], s.AccusedSuspects[i+1:]...)
			return
		}
	}
}
