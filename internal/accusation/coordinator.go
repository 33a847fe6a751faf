// Package accusation implements the end-game of a case: the gate that decides when the player
// may accuse, the confrontation attempts against suspects, the evidence verdicts inside an
// attempt, and the resolution into victory, wrong accusation, defeat or the bad ending.
//
// The Coordinator is the only entry point the interface layer talks to. It owns the persisted
// State, at most one running Machine, and the Resolution of the last finished confrontation.
// Persistence is best effort: when the store fails the playthrough degrades to memory and play
// continues uninterrupted.
package accusation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/errors"
)

var (
	ErrAccusationsClosed    = errors.NewSentinel("no accusation attempts remain")
	ErrCaseSolved           = errors.NewSentinel("the case is already solved")
	ErrUnknownSuspect       = errors.NewSentinel("suspect has no confrontation sequence")
	ErrAccusationNotAllowed = errors.NewSentinel("accusation is not allowed yet")
)

// ClueTracker supplies the player's discoveries. The coordinator never records discoveries
// itself; it only reads them to gate accusations and to judge evidence.
type ClueTracker interface {
	Discovered(ctx context.Context) (map[string]bool, error)
}

// Gate is the verdict on whether the player may enter the accusation flow. Reason explains a
// refusal in words fit for the player.
type Gate struct {
	Allowed         bool
	Reason          string
	RequiredClues   int
	DiscoveredClues int
}

// Coordinator ties the accusation engine together for one playthrough. All methods are safe
// for concurrent use; each command runs to completion before the next begins.
type Coordinator struct {
	mu        sync.Mutex
	logger    *slog.Logger
	game      *casefile.Case
	store     StateStore
	clues     ClueTracker
	listeners []Listener

	state      State
	loaded     bool
	degraded   bool
	machine    *Machine
	resolution *Resolution
	// suspectAddedThisAttempt tracks whether the running attempt introduced its suspect to the
	// accused set, so that cancelling can undo exactly that and nothing more.
	suspectAddedThisAttempt bool
}

func NewCoordinator(logger *slog.Logger, game *casefile.Case, store StateStore, clues ClueTracker) *Coordinator {
	return &Coordinator{
		logger: logger.With(slog.String("source", "accusation")),
		game:   game,
		store:  store,
		clues:  clues,
	}
}

// Subscribe registers a listener for gameplay notifications. Listeners run synchronously and
// must not call back into the coordinator.
func (c *Coordinator) Subscribe(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// CanInitiateAccusation is the single gate in front of the accusation flow. It never mutates
// anything and may be polled freely.
func (c *Coordinator) CanInitiateAccusation(ctx context.Context) (Gate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return c.gate(ctx)
}

// StartSuspectSelection opens the accusation flow. It re-checks the gate so that a direct
// request cannot bypass it, and announces the selection screen to listeners.
func (c *Coordinator) StartSuspectSelection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	gate, err := c.gate(ctx)
	if err != nil {
		return errors.Wrap(err, "start suspect selection")
	}
	if !gate.Allowed {
		return errors.Wrap(ErrAccusationNotAllowed, "start suspect selection",
			slog.String("reason", gate.Reason))
	}
	c.notify(Notification{Kind: NotificationSuspectSelectionStarted})
	return nil
}

// StartAccusation begins a confrontation attempt against the suspect. The suspect is recorded
// as accused immediately so the rest of the game can react even if the attempt is abandoned.
func (c *Coordinator) StartAccusation(ctx context.Context, suspectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	if c.machine != nil {
		return errors.Wrap(ErrConfrontationActive, "start accusation")
	}
	if c.state.Solved {
		return errors.Wrap(ErrCaseSolved, "start accusation")
	}
	if c.state.Closed() {
		return errors.Wrap(ErrAccusationsClosed, "start accusation")
	}
	sequence, ok := c.game.Accusation.Confrontation(suspectID)
	if !ok {
		return errors.Wrap(ErrUnknownSuspect, "start accusation", slog.String("suspect_id", suspectID))
	}
	gate, err := c.gate(ctx)
	if err != nil {
		return errors.Wrap(err, "start accusation")
	}
	if !gate.Allowed {
		return errors.Wrap(ErrAccusationNotAllowed, "start accusation", slog.String("reason", gate.Reason))
	}

	machine, err := NewMachine(suspectID, sequence)
	if err != nil {
		return errors.Wrap(err, "start accusation")
	}
	if err = machine.Start(); err != nil {
		return errors.Wrap(err, "start accusation")
	}

	c.machine = machine
	c.resolution = nil
	c.suspectAddedThisAttempt = c.state.recordAccused(suspectID)
	c.state.LastAttemptAt = time.Now()
	c.persist(ctx)
	c.notify(Notification{Kind: NotificationAttemptStarted, SuspectID: suspectID})
	return nil
}

// PresentEvidence presents evidence against the current statement. A verdict that finishes
// the confrontation is resolved before returning, so the caller can read Resolution
// immediately afterwards.
func (c *Coordinator) PresentEvidence(ctx context.Context, evidenceID string) (EvidenceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	if c.machine == nil {
		return EvidenceResult{}, errors.Wrap(ErrNoActiveConfrontation, "present evidence")
	}
	discovered, err := c.clues.Discovered(ctx)
	if err != nil {
		return EvidenceResult{}, errors.Wrap(err, "read discovered clues")
	}

	statementIndex := c.machine.Progress().CurrentStatementIndex
	result, err := c.machine.PresentEvidence(evidenceID, discovered)
	if err != nil {
		return EvidenceResult{}, err
	}

	progress := c.machine.Progress()
	c.notify(Notification{
		Kind:           NotificationEvidencePresented,
		SuspectID:      progress.SuspectID,
		EvidenceID:     evidenceID,
		StatementIndex: statementIndex,
		Correct:        result.Correct,
		IsBonus:        result.IsBonus,
		TooEarly:       result.TooEarly,
		MistakeCount:   result.UpdatedMistakeCount,
	})
	if result.ShouldAdvance {
		c.notify(Notification{
			Kind:           NotificationStatementAdvanced,
			SuspectID:      progress.SuspectID,
			StatementIndex: progress.CurrentStatementIndex,
		})
	}

	switch c.machine.Phase() {
	case PhaseSucceeded:
		c.resolveSuccess(ctx, discovered)
	case PhaseFailed:
		c.resolveFailure(ctx)
	case PhaseNotStarted, PhaseInProgress:
	}
	return result, nil
}

// AdvanceInformational moves past the current statement when it expects no evidence. A
// trailing informational statement can finish the sequence, so resolution is handled here as
// well.
func (c *Coordinator) AdvanceInformational(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	if c.machine == nil {
		return errors.Wrap(ErrNoActiveConfrontation, "advance statement")
	}
	// Fetched up front so a tracker failure cannot strand a finished machine unresolved.
	discovered, err := c.clues.Discovered(ctx)
	if err != nil {
		return errors.Wrap(err, "read discovered clues")
	}
	if err = c.machine.AdvanceInformational(); err != nil {
		return err
	}

	progress := c.machine.Progress()
	c.notify(Notification{
		Kind:           NotificationStatementAdvanced,
		SuspectID:      progress.SuspectID,
		StatementIndex: progress.CurrentStatementIndex,
	})

	if c.machine.Phase() == PhaseSucceeded {
		c.resolveSuccess(ctx, discovered)
	}
	return nil
}

// CancelAccusation abandons the running attempt. The failure count never moves, and the
// accused set only loses the suspect if this very attempt added them.
func (c *Coordinator) CancelAccusation(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	if c.machine == nil {
		return errors.Wrap(ErrNoActiveConfrontation, "cancel accusation")
	}
	suspectID := c.machine.Progress().SuspectID
	if c.suspectAddedThisAttempt {
		c.state.removeAccused(suspectID)
		c.suspectAddedThisAttempt = false
		c.persist(ctx)
	}
	c.machine = nil
	c.notify(Notification{Kind: NotificationAttemptCancelled, SuspectID: suspectID})
	return nil
}

// ResetState starts the playthrough over. Persistence degradation is not reset: the store is
// still broken for the rest of the session.
func (c *Coordinator) ResetState(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine = nil
	c.resolution = nil
	c.suspectAddedThisAttempt = false
	c.state = State{}
	c.loaded = true
	if !c.degraded {
		if err := c.store.Clear(ctx); err != nil {
			c.degrade(ctx, "clear accusation state", err)
		}
	}
	c.notify(Notification{Kind: NotificationStateReset})
	return nil
}

// State returns a snapshot of the persisted accusation record.
func (c *Coordinator) State(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	state := c.state
	state.AccusedSuspects = append([]string(nil), c.state.AccusedSuspects...)
	return state
}

// HasSuspectBeenAccused reports whether the suspect has been accused in this playthrough.
func (c *Coordinator) HasSuspectBeenAccused(ctx context.Context, suspectID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return c.state.HasAccused(suspectID)
}

// ActiveProgress returns the running attempt's progress, or false when no confrontation is
// active.
func (c *Coordinator) ActiveProgress() (Progress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return Progress{}, false
	}
	return c.machine.Progress(), true
}

// CurrentStatement returns the statement the running attempt is waiting on.
func (c *Coordinator) CurrentStatement() (casefile.Statement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return casefile.Statement{}, false
	}
	return c.machine.CurrentStatement()
}

// AvailableSuspects lists the suspects that can be accused, in case order.
func (c *Coordinator) AvailableSuspects() []casefile.Suspect {
	var suspects []casefile.Suspect
	for _, suspect := range c.game.Suspects {
		if _, ok := c.game.Accusation.Confrontation(suspect.ID); ok {
			suspects = append(suspects, suspect)
		}
	}
	return suspects
}

// Resolution returns the outcome of the last finished confrontation, or nil when none is
// pending. The caller must treat the payload as read-only.
func (c *Coordinator) Resolution() *Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolution
}

// Degraded reports whether persistence has failed over to memory for this session.
func (c *Coordinator) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// gate evaluates the accusation gate against the player's discoveries. Callers hold the lock.
func (c *Coordinator) gate(ctx context.Context) (Gate, error) {
	discovered, err := c.clues.Discovered(ctx)
	if err != nil {
		return Gate{}, errors.Wrap(err, "read discovered clues")
	}

	gate := Gate{
		RequiredClues:   c.game.Accusation.MinimumClues,
		DiscoveredClues: len(discovered),
	}
	switch {
	case c.state.Solved:
		gate.Reason = "the case is already closed"
	case c.state.Closed():
		gate.Reason = "no accusation attempts remain"
	case gate.DiscoveredClues < gate.RequiredClues:
		gate.Reason = fmt.Sprintf("need %d, have %d", gate.RequiredClues, gate.DiscoveredClues)
	case !c.game.Accusation.AllowPartialEvidence && !c.winnableWith(discovered):
		gate.Reason = "evidence essential to the case is still missing"
	default:
		gate.Allowed = true
	}
	return gate, nil
}

// winnableWith reports whether every presentation-requiring statement in the guilty party's
// sequence can be met with the player's current discoveries. Bonus alternatives do not count;
// they embellish a win but never carry one.
func (c *Coordinator) winnableWith(discovered map[string]bool) bool {
	sequence, ok := c.game.Accusation.Confrontation(c.game.Accusation.Guilty)
	if !ok {
		return false
	}
	for _, statement := range sequence.Statements {
		if !statement.RequiresPresentation {
			continue
		}
		requirement := statement.Requirement()
		satisfiable := false
		for evidenceID := range discovered {
			if requirement.Satisfies(evidenceID) && !requirement.IsBonus(evidenceID) {
				satisfiable = true
				break
			}
		}
		if !satisfiable {
			return false
		}
	}
	return true
}

// resolveSuccess handles a completed sequence. Only the guilty party's completion is a win;
// walking an innocent suspect through their whole sequence is a wrong accusation and costs an
// attempt like any other failure.
func (c *Coordinator) resolveSuccess(ctx context.Context, discovered map[string]bool) {
	progress := c.machine.Progress()
	c.machine = nil
	c.suspectAddedThisAttempt = false

	if progress.SuspectID == c.game.Accusation.Guilty {
		c.state.Solved = true
		victory := resolveVictory(c.game, progress, c.foundEverything(discovered))
		c.resolution = &Resolution{Victory: &victory}
		c.persist(ctx)
		c.notify(Notification{
			Kind:              NotificationConfrontationSucceeded,
			SuspectID:         progress.SuspectID,
			FailedAccusations: c.state.FailedAccusations,
		})
		return
	}

	c.state.FailedAccusations++
	wrong := resolveWrongAccusation(c.game, progress.SuspectID, c.state)
	resolution := Resolution{WrongAccusation: &wrong}
	c.finishFailedAccusation(ctx, progress.SuspectID, &resolution)
}

// resolveFailure handles a confrontation that collapsed under mistakes.
func (c *Coordinator) resolveFailure(ctx context.Context) {
	progress := c.machine.Progress()
	c.machine = nil
	c.suspectAddedThisAttempt = false

	c.state.FailedAccusations++
	defeat := resolveDefeat(c.game, progress.SuspectID, c.state)
	resolution := Resolution{Defeat: &defeat}
	c.finishFailedAccusation(ctx, progress.SuspectID, &resolution)
}

// finishFailedAccusation persists the incremented failure count and attaches the bad ending
// when the playthrough just ran out of attempts. The bad ending can only fire here, so it
// fires at most once per playthrough.
func (c *Coordinator) finishFailedAccusation(ctx context.Context, suspectID string, resolution *Resolution) {
	if c.state.Closed() {
		bad := resolveBadEnding(c.game)
		resolution.BadEnding = &bad
	}
	c.resolution = resolution
	c.persist(ctx)
	c.notify(Notification{
		Kind:              NotificationConfrontationFailed,
		SuspectID:         suspectID,
		FailedAccusations: c.state.FailedAccusations,
	})
	if resolution.BadEnding != nil {
		c.notify(Notification{
			Kind:              NotificationBadEndingTriggered,
			SuspectID:         suspectID,
			FailedAccusations: c.state.FailedAccusations,
		})
	}
}

func (c *Coordinator) foundEverything(discovered map[string]bool) bool {
	for _, clue := range c.game.Clues {
		if !discovered[clue.ID] {
			return false
		}
	}
	return true
}

// ensureLoaded pulls the persisted state on first use. A failing load is not fatal: the
// playthrough starts fresh and runs memory-only.
func (c *Coordinator) ensureLoaded(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	state, ok, err := c.store.Load(ctx)
	if err != nil {
		c.degrade(ctx, "load accusation state", err)
		return
	}
	if ok {
		c.state = state
	}
}

// persist saves the state unless the session has already degraded. Gameplay never waits on
// persistence and never fails because of it.
func (c *Coordinator) persist(ctx context.Context) {
	if c.degraded {
		return
	}
	if err := c.store.Save(ctx, c.state); err != nil {
		c.degrade(ctx, "save accusation state", err)
	}
}

// degrade switches the session to memory-only persistence and tells listeners once.
func (c *Coordinator) degrade(ctx context.Context, operation string, err error) {
	if c.degraded {
		return
	}
	c.degraded = true
	c.logger.LogAttrs(ctx, slog.LevelError, "accusation persistence degraded to memory",
		slog.String("operation", operation), errors.SlogError(err))
	c.notify(Notification{Kind: NotificationPersistenceDegraded})
}

func (c *Coordinator) notify(notification Notification) {
	for _, listener := range c.listeners {
		listener(notification)
	}
}
