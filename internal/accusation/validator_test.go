package accusation_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emmaStatements is a three-statement sequence requiring napkin, papers and crumbs in order.
func emmaStatements() []casefile.Statement {
	return []casefile.Statement{
		{
			ID:                   "alibi",
			Speaker:              casefile.SpeakerSuspect,
			Text:                 "I never set foot in the pantry that night.",
			RequiresPresentation: true,
			RequiredEvidence:     "napkin",
			CorrectResponse:      "The napkin says otherwise.",
			IncorrectResponse:    "That proves nothing.",
		},
		{
			ID:                   "letters",
			Speaker:              casefile.SpeakerSuspect,
			Text:                 "I had no business with the victim.",
			RequiresPresentation: true,
			RequiredEvidence:     "papers",
			CorrectResponse:      "Your own hand betrays you.",
			IncorrectResponse:    "Is that all you have?",
		},
		{
			ID:                   "appetite",
			Speaker:              casefile.SpeakerSuspect,
			Text:                 "And I certainly touched none of the food.",
			RequiresPresentation: true,
			RequiredEvidence:     "crumbs",
			CorrectResponse:      "Crumbs in the seam of your sleeve.",
			IncorrectResponse:    "You are grasping.",
		},
	}
}

func discoveredClues(ids ...string) map[string]bool {
	discovered := make(map[string]bool, len(ids))
	for _, id := range ids {
		discovered[id] = true
	}
	return discovered
}

func TestValidate(t *testing.T) {
	t.Parallel()

	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")
	tests := []struct {
		name       string
		statements []casefile.Statement
		index      int
		evidence   string
		mistakes   int
		history    []string
		want       accusation.EvidenceResult
	}{
		{
			name:       "required evidence advances",
			statements: emmaStatements(),
			index:      0,
			evidence:   "napkin",
			want: accusation.EvidenceResult{
				Correct:       true,
				ResponseText:  "The napkin says otherwise.",
				ShouldAdvance: true,
			},
		},
		{
			name:       "correct presentation keeps earlier mistakes",
			statements: emmaStatements(),
			index:      1,
			evidence:   "papers",
			mistakes:   2,
			history:    []string{"napkin"},
			want: accusation.EvidenceResult{
				Correct:             true,
				ResponseText:        "Your own hand betrays you.",
				ShouldAdvance:       true,
				UpdatedMistakeCount: 2,
			},
		},
		{
			name:       "evidence for a later statement is too early",
			statements: emmaStatements(),
			index:      0,
			evidence:   "crumbs",
			want: accusation.EvidenceResult{
				TooEarly:     true,
				ResponseText: "There is something to that, but not yet. Hold on to it.",
			},
		},
		{
			name:       "future bonus evidence is too early",
			statements: withBonus(emmaStatements(), 2, "ribbon", "You even kept the ribbon it was tied with."),
			index:      0,
			evidence:   "ribbon",
			want: accusation.EvidenceResult{
				TooEarly:     true,
				ResponseText: "There is something to that, but not yet. Hold on to it.",
			},
		},
		{
			name:       "spent evidence no longer counts as too early",
			statements: overlappingStatements(),
			index:      1,
			evidence:   "napkin",
			history:    []string{"napkin"},
			want: accusation.EvidenceResult{
				ResponseText:        "Is that all you have? Careful, detective. That is mistake 1 of 3.",
				UpdatedMistakeCount: 1,
			},
		},
		{
			name:       "first mistake warns mildly",
			statements: emmaStatements(),
			index:      0,
			evidence:   "ribbon",
			want: accusation.EvidenceResult{
				ResponseText:        "That proves nothing. Careful, detective. That is mistake 1 of 3.",
				UpdatedMistakeCount: 1,
			},
		},
		{
			name:       "second mistake warns urgently",
			statements: emmaStatements(),
			index:      0,
			evidence:   "ribbon",
			mistakes:   1,
			want: accusation.EvidenceResult{
				ResponseText:        "That proves nothing. The room turns against you. Mistake 2 of 3.",
				UpdatedMistakeCount: 2,
			},
		},
		{
			name:       "third mistake fails the confrontation",
			statements: emmaStatements(),
			index:      0,
			evidence:   "ribbon",
			mistakes:   2,
			want: accusation.EvidenceResult{
				ResponseText:        "That proves nothing. Mistake 3 of 3. The accusation falls apart.",
				ConfrontationFailed: true,
				UpdatedMistakeCount: 3,
			},
		},
		{
			name:       "acceptable alternative advances",
			statements: withAcceptable(emmaStatements(), 0, "napkin", "papers"),
			index:      0,
			evidence:   "papers",
			want: accusation.EvidenceResult{
				Correct:       true,
				ResponseText:  "The napkin says otherwise.",
				ShouldAdvance: true,
			},
		},
		{
			name:       "bonus evidence upgrades the response",
			statements: withBonus(emmaStatements(), 0, "ribbon", "You even kept the ribbon it was tied with."),
			index:      0,
			evidence:   "ribbon",
			want: accusation.EvidenceResult{
				Correct:       true,
				IsBonus:       true,
				ResponseText:  "You even kept the ribbon it was tied with.",
				ShouldAdvance: true,
			},
		},
		{
			name:       "bonus without bonus response falls back to correct response",
			statements: withBonus(emmaStatements(), 0, "ribbon", ""),
			index:      0,
			evidence:   "ribbon",
			want: accusation.EvidenceResult{
				Correct:       true,
				IsBonus:       true,
				ResponseText:  "The napkin says otherwise.",
				ShouldAdvance: true,
			},
		},
		{
			name: "informational statement accepts anything",
			statements: []casefile.Statement{
				{ID: "aside", Speaker: casefile.SpeakerAccuser, Text: "Let me lay this out."},
			},
			index:    0,
			evidence: "ribbon",
			want: accusation.EvidenceResult{
				Correct:       true,
				ShouldAdvance: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := accusation.Validate(tt.statements, tt.index, tt.evidence, tt.mistakes, discovered, tt.history)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("verdict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_undiscoveredEvidence(t *testing.T) {
	t.Parallel()

	_, err := accusation.Validate(emmaStatements(), 0, "napkin", 0, discoveredClues("papers"), nil)
	require.ErrorIs(t, err, accusation.ErrUndiscoveredEvidence)
}

// Three wrong presentations of the same id escalate through mistakes 1, 2 and 3, failing the
// confrontation only on the third.
func TestValidate_escalation(t *testing.T) {
	t.Parallel()

	statements := emmaStatements()
	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")
	mistakes := 0
	for _, want := range []struct {
		count  int
		failed bool
	}{
		{count: 1, failed: false},
		{count: 2, failed: false},
		{count: 3, failed: true},
	} {
		result, err := accusation.Validate(statements, 0, "ribbon", mistakes, discovered, nil)
		require.NoError(t, err)
		assert.Equal(t, want.count, result.UpdatedMistakeCount)
		assert.Equal(t, want.failed, result.ConfrontationFailed)
		assert.Contains(t, result.ResponseText, fmt.Sprintf("%d of 3", want.count))
		assert.Contains(t, result.ResponseText, "That proves nothing.")
		mistakes = result.UpdatedMistakeCount
	}
}

func TestValidate_referentiallyTransparent(t *testing.T) {
	t.Parallel()

	statements := emmaStatements()
	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")
	first, err := accusation.Validate(statements, 0, "ribbon", 1, discovered, []string{"napkin"})
	require.NoError(t, err)
	second, err := accusation.Validate(statements, 0, "ribbon", 1, discovered, []string{"napkin"})
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(first, second))
}

func withAcceptable(statements []casefile.Statement, index int, acceptable ...string) []casefile.Statement {
	statements[index].AcceptableEvidence = acceptable
	return statements
}

func withBonus(statements []casefile.Statement, index int, bonus, response string) []casefile.Statement {
	statements[index].BonusEvidence = bonus
	statements[index].BonusResponse = response
	return statements
}

// overlappingStatements accepts the napkin for the first and the last statement, so a napkin
// spent on the first is a plain mistake when replayed in between.
func overlappingStatements() []casefile.Statement {
	statements := emmaStatements()
	statements[2].AcceptableEvidence = []string{"crumbs", "napkin"}
	return statements
}
