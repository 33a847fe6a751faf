package accusation

import (
	"fmt"
	"log/slog"

	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/errors"
)

// MaxMistakes is the number of wrong presentations that ends a confrontation attempt.
const MaxMistakes = 3

// ErrUndiscoveredEvidence signals a caller bug: the interface must only offer evidence the
// player has actually found, so presenting anything else is a contract violation rather than
// a gameplay mistake.
var ErrUndiscoveredEvidence = errors.NewSentinel("evidence has not been discovered")

// EvidenceResult is the verdict for a single evidence presentation.
//
// Correct and ConfrontationFailed are mutually exclusive. TooEarly marks evidence that belongs
// to a later statement in the sequence: the guess is wrong here but genuine, so it costs
// nothing and the player keeps the hint.
type EvidenceResult struct {
	Correct             bool
	IsBonus             bool
	TooEarly            bool
	ResponseText        string
	ShouldAdvance       bool
	ConfrontationFailed bool
	UpdatedMistakeCount int
}

const tooEarlyResponse = "There is something to that, but not yet. Hold on to it."

// Validate judges presenting evidenceID against the statement at currentIndex. It is a pure
// function of its inputs and never mutates the attempt; the caller applies the returned
// mistake count and advancement.
func Validate(
	statements []casefile.Statement,
	currentIndex int,
	evidenceID string,
	mistakeCount int,
	discovered map[string]bool,
	presentedHistory []string,
) (EvidenceResult, error) {
	if !discovered[evidenceID] {
		return EvidenceResult{}, errors.Wrap(ErrUndiscoveredEvidence, "validate evidence",
			slog.String("evidence_id", evidenceID))
	}
	if currentIndex < 0 || currentIndex >= len(statements) {
		return EvidenceResult{}, errors.New("statement index out of range",
			slog.Int("index", currentIndex), slog.Int("statements", len(statements)))
	}

	statement := statements[currentIndex]
	requirement := statement.Requirement()

	// A statement that expects no presentation accepts anything.
	if _, informational := requirement.(casefile.RequireNone); informational {
		return EvidenceResult{
			Correct:             true,
			ResponseText:        statement.CorrectResponse,
			ShouldAdvance:       true,
			UpdatedMistakeCount: mistakeCount,
		}, nil
	}

	if requirement.Satisfies(evidenceID) {
		isBonus := requirement.IsBonus(evidenceID)
		response := statement.CorrectResponse
		if isBonus && statement.BonusResponse != "" {
			response = statement.BonusResponse
		}
		return EvidenceResult{
			Correct:             true,
			IsBonus:             isBonus,
			ResponseText:        response,
			ShouldAdvance:       true,
			UpdatedMistakeCount: mistakeCount,
		}, nil
	}

	if acceptedLater(statements, currentIndex, evidenceID, presentedHistory) {
		return EvidenceResult{
			TooEarly:            true,
			ResponseText:        tooEarlyResponse,
			UpdatedMistakeCount: mistakeCount,
		}, nil
	}

	updated := mistakeCount + 1
	return EvidenceResult{
		ResponseText:        fmt.Sprintf("%s %s", statement.IncorrectResponse, escalation(updated)),
		ConfrontationFailed: updated >= MaxMistakes,
		UpdatedMistakeCount: updated,
	}, nil
}

// acceptedLater reports whether the evidence would be accepted by a statement strictly after
// currentIndex. Bonus slots count: holding back a bonus piece is as legitimate a plan as
// holding back a required one. Evidence already spent on an earlier statement does not count,
// so replaying it cannot be used to probe the rest of the sequence for free.
func acceptedLater(statements []casefile.Statement, currentIndex int, evidenceID string, presentedHistory []string) bool {
	for _, presented := range presentedHistory {
		if presented == evidenceID {
			return false
		}
	}
	for _, statement := range statements[currentIndex+1:] {
		if !statement.RequiresPresentation {
			continue
		}
		if statement.Requirement().Satisfies(evidenceID) {
			return true
		}
	}
	return false
}

// escalation returns the narrator warning appended to a wrong-presentation response. The text
// carries the running mistake count so the player always knows how close the attempt is to
// collapsing.
func escalation(mistakes int) string {
	switch mistakes {
	case 1:
		return "Careful, detective. That is mistake 1 of 3."
	case 2:
		return "The room turns against you. Mistake 2 of 3."
	default:
		return fmt.Sprintf("Mistake %d of 3. The accusation falls apart.", mistakes)
	}
}
