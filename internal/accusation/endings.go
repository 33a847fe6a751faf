package accusation

import (
	"fmt"

	"github.com/myrjola/culprit/internal/casefile"
)

// EvidenceRef names a clue inside an ending payload so the presentation layer does not need a
// catalogue lookup of its own.
type EvidenceRef struct {
	ID   string
	Name string
}

// VictoryPayload carries everything the victory finale shows: the culprit's confession and
// motive, the closing reaction, and the evidence that actually broke the case.
type VictoryPayload struct {
	CulpritID   string
	CulpritName string
	Motive      string
	Confession  string
	Reaction    string
	// KeyEvidence lists the core evidence presented during the winning run, in presentation
	// order and without duplicates. Bonus pieces embellish responses but do not appear here.
	KeyEvidence []EvidenceRef
	// BonusAcknowledgment is empty unless the player had discovered every clue in the game.
	BonusAcknowledgment string
}

// WrongAccusationPayload is shown when an innocent suspect's sequence is completed. The player
// argued the whole case and still picked the wrong person; the rebuttal is the innocent's
// answer to the accusation.
type WrongAccusationPayload struct {
	SuspectID         string
	SuspectName       string
	Rebuttal          string
	FailedAccusations int
	AttemptsRemaining int
}

// DefeatPayload is shown when a confrontation collapses under too many wrong presentations.
type DefeatPayload struct {
	SuspectID         string
	SuspectName       string
	Dismissal         string
	FailedAccusations int
	AttemptsRemaining int
}

// BadEndingPayload is shown when the playthrough runs out of accusation attempts. CulpritID
// stays empty when the case keeps the culprit hidden.
type BadEndingPayload struct {
	DespairSpeech      string
	FailureExplanation string
	CulpritID          string
	CulpritName        string
}

// Resolution is the outcome of a finished confrontation. Exactly one of Victory,
// WrongAccusation and Defeat is set. BadEnding accompanies a wrong accusation or defeat that
// exhausted the playthrough's attempts.
type Resolution struct {
	Victory         *VictoryPayload
	WrongAccusation *WrongAccusationPayload
	Defeat          *DefeatPayload
	BadEnding       *BadEndingPayload
}

// resolveVictory assembles the victory finale from the case configuration and the winning
// attempt. foundEverything is decided by the caller, which knows the player's discoveries.
func resolveVictory(game *casefile.Case, progress Progress, foundEverything bool) VictoryPayload {
	guiltyID := game.Accusation.Guilty
	sequence, _ := game.Accusation.Confrontation(guiltyID)
	payload := VictoryPayload{
		CulpritID:   guiltyID,
		CulpritName: suspectName(game, guiltyID),
		Motive:      sequence.Motive,
		Confession:  sequence.Confession,
		Reaction:    game.Accusation.Endings.Victory.Reactions[guiltyID],
		KeyEvidence: keyEvidence(game, sequence, progress),
	}
	if foundEverything {
		payload.BonusAcknowledgment = game.Accusation.Endings.Victory.BonusAcknowledgment
	}
	return payload
}

// keyEvidence pairs the presented evidence back up with the statements it advanced and keeps
// the pieces that met a core requirement. The pairing holds because the machine records one
// entry per advanced presentation-requiring statement.
func keyEvidence(game *casefile.Case, sequence casefile.Confrontation, progress Progress) []EvidenceRef {
	var refs []EvidenceRef
	seen := make(map[string]bool)
	next := 0
	for _, statement := range sequence.Statements {
		if !statement.RequiresPresentation {
			continue
		}
		if next >= len(progress.PresentedEvidence) {
			break
		}
		evidenceID := progress.PresentedEvidence[next]
		next++
		if statement.Requirement().IsBonus(evidenceID) || seen[evidenceID] {
			continue
		}
		seen[evidenceID] = true
		name := evidenceID
		if clue, ok := game.Clue(evidenceID); ok {
			name = clue.Name
		}
		refs = append(refs, EvidenceRef{ID: evidenceID, Name: name})
	}
	return refs
}

func resolveWrongAccusation(game *casefile.Case, suspectID string, state State) WrongAccusationPayload {
	sequence, _ := game.Accusation.Confrontation(suspectID)
	return WrongAccusationPayload{
		SuspectID:         suspectID,
		SuspectName:       suspectName(game, suspectID),
		Rebuttal:          sequence.Confession,
		FailedAccusations: state.FailedAccusations,
		AttemptsRemaining: state.AttemptsRemaining(),
	}
}

func resolveDefeat(game *casefile.Case, suspectID string, state State) DefeatPayload {
	name := suspectName(game, suspectID)
	return DefeatPayload{
		SuspectID:         suspectID,
		SuspectName:       name,
		Dismissal:         fmt.Sprintf("%s waves you off. Your accusation has fallen apart.", name),
		FailedAccusations: state.FailedAccusations,
		AttemptsRemaining: state.AttemptsRemaining(),
	}
}

func resolveBadEnding(game *casefile.Case) BadEndingPayload {
	bad := game.Accusation.Endings.Bad
	payload := BadEndingPayload{
		DespairSpeech:      bad.DespairSpeech,
		FailureExplanation: bad.FailureExplanation,
	}
	if bad.RevealCulprit {
		payload.CulpritID = game.Accusation.Guilty
		payload.CulpritName = suspectName(game, payload.CulpritID)
	}
	return payload
}

func suspectName(game *casefile.Case, suspectID string) string {
	if suspect, ok := game.Suspect(suspectID); ok {
		return suspect.Name
	}
	return suspectID
}
