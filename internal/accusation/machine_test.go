package accusation_test

import (
	"testing"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emmaSequence() casefile.Confrontation {
	return casefile.Confrontation{
		Motive:     "The pantry hid her debts.",
		Confession: "Fine. It was me.",
		Statements: emmaStatements(),
	}
}

// framedStatements wraps one presentation-requiring statement in informational narration.
func framedStatements() []casefile.Statement {
	return []casefile.Statement{
		{ID: "opening", Speaker: casefile.SpeakerAccuser, Text: "You were seen by the pantry door."},
		{
			ID:                   "denial",
			Speaker:              casefile.SpeakerSuspect,
			Text:                 "Whoever says so is lying.",
			RequiresPresentation: true,
			RequiredEvidence:     "napkin",
			CorrectResponse:      "The napkin was in your pocket.",
			IncorrectResponse:    "Lying, like I said.",
		},
		{ID: "closing", Speaker: casefile.SpeakerSuspect, Text: "Fine. I was there."},
	}
}

func startedMachine(t *testing.T, sequence casefile.Confrontation) *accusation.Machine {
	t.Helper()
	machine, err := accusation.NewMachine("emma", sequence)
	require.NoError(t, err)
	require.NoError(t, machine.Start())
	return machine
}

func TestNewMachine_emptySequence(t *testing.T) {
	t.Parallel()

	_, err := accusation.NewMachine("emma", casefile.Confrontation{})
	require.ErrorIs(t, err, accusation.ErrEmptySequence)
}

func TestMachine_successfulWalkthrough(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")

	for _, evidence := range []string{"napkin", "papers", "crumbs"} {
		result, err := machine.PresentEvidence(evidence, discovered)
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.True(t, result.ShouldAdvance)
	}

	assert.Equal(t, accusation.PhaseSucceeded, machine.Phase())
	progress := machine.Progress()
	assert.Equal(t, 3, progress.CurrentStatementIndex)
	assert.Equal(t, []string{"napkin", "papers", "crumbs"}, progress.PresentedEvidence)
	assert.Less(t, progress.MistakeCount, accusation.MaxMistakes)

	_, ok := machine.CurrentStatement()
	assert.False(t, ok)

	_, err := machine.PresentEvidence("napkin", discovered)
	require.ErrorIs(t, err, accusation.ErrNoActiveConfrontation)
}

func TestMachine_mistakesFailTheAttempt(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")

	for i, wantPhase := range []accusation.Phase{
		accusation.PhaseInProgress,
		accusation.PhaseInProgress,
		accusation.PhaseFailed,
	} {
		result, err := machine.PresentEvidence("ribbon", discovered)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.UpdatedMistakeCount)
		assert.Equal(t, wantPhase, machine.Phase())
	}

	progress := machine.Progress()
	assert.Equal(t, 0, progress.CurrentStatementIndex)
	assert.Empty(t, progress.PresentedEvidence)
	assert.Equal(t, accusation.MaxMistakes, progress.MistakeCount)
}

func TestMachine_tooEarlyKeepsProgress(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs")

	// Too early is repeatable and never costs anything.
	for range 2 {
		result, err := machine.PresentEvidence("crumbs", discovered)
		require.NoError(t, err)
		assert.True(t, result.TooEarly)
		assert.False(t, result.Correct)
		assert.False(t, result.ConfrontationFailed)
	}

	progress := machine.Progress()
	assert.Equal(t, 0, progress.CurrentStatementIndex)
	assert.Equal(t, 0, progress.MistakeCount)
	assert.Equal(t, accusation.PhaseInProgress, machine.Phase())
}

func TestMachine_mistakeCountNeverDecreases(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs", "ribbon")

	counts := []int{0}
	for _, evidence := range []string{"crumbs", "ribbon", "crumbs", "napkin", "ribbon"} {
		_, err := machine.PresentEvidence(evidence, discovered)
		require.NoError(t, err)
		counts = append(counts, machine.Progress().MistakeCount)
	}
	for i := 1; i < len(counts); i++ {
		assert.GreaterOrEqual(t, counts[i], counts[i-1])
	}
}

func TestMachine_informationalStatements(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, casefile.Confrontation{
		Motive:     "Nothing to hide.",
		Confession: "I was there, nothing more.",
		Statements: framedStatements(),
	})
	discovered := discoveredClues("napkin")

	require.NoError(t, machine.AdvanceInformational())

	err := machine.AdvanceInformational()
	require.ErrorIs(t, err, accusation.ErrEvidenceRequired)

	result, err := machine.PresentEvidence("napkin", discovered)
	require.NoError(t, err)
	assert.True(t, result.ShouldAdvance)

	// The trailing narration finishes the sequence.
	require.NoError(t, machine.AdvanceInformational())
	assert.Equal(t, accusation.PhaseSucceeded, machine.Phase())
	assert.Equal(t, []string{"napkin"}, machine.Progress().PresentedEvidence)
}

func TestMachine_cancel(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs")

	_, err := machine.PresentEvidence("napkin", discovered)
	require.NoError(t, err)

	require.NoError(t, machine.Cancel())
	assert.Equal(t, accusation.PhaseNotStarted, machine.Phase())
	progress := machine.Progress()
	assert.Equal(t, 0, progress.CurrentStatementIndex)
	assert.Equal(t, 0, progress.MistakeCount)
	assert.Empty(t, progress.PresentedEvidence)

	// A cancelled machine can start over from the top.
	require.NoError(t, machine.Start())
	assert.Equal(t, accusation.PhaseInProgress, machine.Phase())
}

func TestMachine_cancelAfterTerminal(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	discovered := discoveredClues("napkin", "papers", "crumbs")
	for _, evidence := range []string{"napkin", "papers", "crumbs"} {
		_, err := machine.PresentEvidence(evidence, discovered)
		require.NoError(t, err)
	}

	err := machine.Cancel()
	require.ErrorIs(t, err, accusation.ErrNoActiveConfrontation)
}

func TestMachine_startTwice(t *testing.T) {
	t.Parallel()

	machine := startedMachine(t, emmaSequence())
	require.ErrorIs(t, machine.Start(), accusation.ErrConfrontationActive)
}

func TestMachine_presentBeforeStart(t *testing.T) {
	t.Parallel()

	machine, err := accusation.NewMachine("emma", emmaSequence())
	require.NoError(t, err)
	_, err = machine.PresentEvidence("napkin", discoveredClues("napkin"))
	require.ErrorIs(t, err, accusation.ErrNoActiveConfrontation)
}
