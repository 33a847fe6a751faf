package accusation

import (
	"github.com/google/uuid"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/errors"
)

// Phase of a confrontation attempt.
type Phase string

const (
	PhaseNotStarted Phase = "not-started"
	PhaseInProgress Phase = "in-progress"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

var (
	ErrNoActiveConfrontation = errors.NewSentinel("no confrontation is in progress")
	ErrConfrontationActive   = errors.NewSentinel("a confrontation is already in progress")
	ErrEvidenceRequired      = errors.NewSentinel("current statement requires evidence")
	ErrEmptySequence         = errors.NewSentinel("confrontation sequence has no statements")
)

// Progress is the transient record of a single attempt. It is never persisted: restarting the
// session abandons the confrontation but keeps the accusation history.
type Progress struct {
	AttemptID             uuid.UUID
	SuspectID             string
	CurrentStatementIndex int
	MistakeCount          int
	// PresentedEvidence holds, in order, the evidence that advanced a presentation-requiring
	// statement. The ending resolver pairs it back up with the sequence.
	PresentedEvidence []string
}

// Machine drives one confrontation attempt through its statement sequence. Succeeded and
// Failed are terminal; the owner discards the machine once it resolves the outcome.
//
// The machine is not safe for concurrent use. Each playthrough runs at most one attempt and
// the coordinator serializes access to it.
type Machine struct {
	sequence casefile.Confrontation
	phase    Phase
	progress Progress
}

// NewMachine prepares an attempt against the suspect. The sequence must have at least one
// statement, which document validation guarantees for any loaded case.
func NewMachine(suspectID string, sequence casefile.Confrontation) (*Machine, error) {
	if len(sequence.Statements) == 0 {
		return nil, errors.Wrap(ErrEmptySequence, "new confrontation")
	}
	return &Machine{
		sequence: sequence,
		phase:    PhaseNotStarted,
		progress: Progress{
			AttemptID: uuid.New(),
			SuspectID: suspectID,
		},
	}, nil
}

// Start moves the attempt to the first statement.
func (m *Machine) Start() error {
	if m.phase != PhaseNotStarted {
		return errors.Wrap(ErrConfrontationActive, "start confrontation")
	}
	m.phase = PhaseInProgress
	return nil
}

func (m *Machine) Phase() Phase {
	return m.phase
}

// Progress returns a copy of the attempt record.
func (m *Machine) Progress() Progress {
	progress := m.progress
	progress.PresentedEvidence = append([]string(nil), m.progress.PresentedEvidence...)
	return progress
}

// CurrentStatement returns the statement the attempt is waiting on, or false when the attempt
// is not in progress.
func (m *Machine) CurrentStatement() (casefile.Statement, bool) {
	if m.phase != PhaseInProgress {
		return casefile.Statement{}, false
	}
	return m.sequence.Statements[m.progress.CurrentStatementIndex], true
}

// PresentEvidence judges the evidence against the current statement and applies the verdict.
// Advancing past the final statement succeeds the attempt; a third mistake fails it.
func (m *Machine) PresentEvidence(evidenceID string, discovered map[string]bool) (EvidenceResult, error) {
	if m.phase != PhaseInProgress {
		return EvidenceResult{}, errors.Wrap(ErrNoActiveConfrontation, "present evidence")
	}

	result, err := Validate(
		m.sequence.Statements,
		m.progress.CurrentStatementIndex,
		evidenceID,
		m.progress.MistakeCount,
		discovered,
		m.progress.PresentedEvidence,
	)
	if err != nil {
		return EvidenceResult{}, errors.Wrap(err, "present evidence")
	}

	m.progress.MistakeCount = result.UpdatedMistakeCount
	switch {
	case result.ShouldAdvance:
		statement := m.sequence.Statements[m.progress.CurrentStatementIndex]
		if statement.RequiresPresentation {
			m.progress.PresentedEvidence = append(m.progress.PresentedEvidence, evidenceID)
		}
		m.advance()
	case result.ConfrontationFailed:
		m.phase = PhaseFailed
	}
	return result, nil
}

// AdvanceInformational moves past a statement that expects no evidence. Calling it while the
// current statement demands a presentation is a caller bug.
func (m *Machine) AdvanceInformational() error {
	if m.phase != PhaseInProgress {
		return errors.Wrap(ErrNoActiveConfrontation, "advance statement")
	}
	if statement, _ := m.CurrentStatement(); statement.RequiresPresentation {
		return errors.Wrap(ErrEvidenceRequired, "advance statement")
	}
	m.advance()
	return nil
}

// Cancel abandons an attempt that has not reached a terminal phase.
func (m *Machine) Cancel() error {
	if m.phase == PhaseSucceeded || m.phase == PhaseFailed {
		return errors.Wrap(ErrNoActiveConfrontation, "cancel confrontation")
	}
	m.phase = PhaseNotStarted
	m.progress = Progress{
		AttemptID: m.progress.AttemptID,
		SuspectID: m.progress.SuspectID,
	}
	return nil
}

func (m *Machine) advance() {
	m.progress.CurrentStatementIndex++
	if m.progress.CurrentStatementIndex >= len(m.sequence.Statements) {
		m.phase = PhaseSucceeded
	}
}
