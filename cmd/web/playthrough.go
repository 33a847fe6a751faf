package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/relay"
	"github.com/myrjola/culprit/internal/repositories"
)

// activityLimit is how many recent activity lines the notebook keeps.
const activityLimit = 8

// playthrough is the per-player engine state that never touches the database: the coordinator
// with its running confrontation, the finale playback, and the recent activity feed.
type playthrough struct {
	key         string
	coordinator *accusation.Coordinator

	mu       sync.Mutex
	playback *accusation.Playback

	// activityMu guards activity alone. The coordinator notifies listeners while holding its
	// own lock, so the listener must not need a lock that handlers hold across coordinator
	// calls.
	activityMu sync.Mutex
	activity   []string
}

func (pt *playthrough) currentPlayback() *accusation.Playback {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.playback
}

func (pt *playthrough) setPlayback(playback *accusation.Playback) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.playback = playback
}

func (pt *playthrough) recentActivity() []string {
	pt.activityMu.Lock()
	defer pt.activityMu.Unlock()
	return append([]string(nil), pt.activity...)
}

func (pt *playthrough) record(line string) {
	if line == "" {
		return
	}
	pt.activityMu.Lock()
	defer pt.activityMu.Unlock()
	pt.activity = append(pt.activity, line)
	if len(pt.activity) > activityLimit {
		pt.activity = pt.activity[len(pt.activity)-activityLimit:]
	}
}

func (pt *playthrough) clearActivity() {
	pt.activityMu.Lock()
	defer pt.activityMu.Unlock()
	pt.activity = nil
}

// observe turns engine notifications into notebook activity lines.
func (pt *playthrough) observe(game *casefile.Case) accusation.Listener {
	return func(n accusation.Notification) {
		pt.record(activityLine(game, n))
	}
}

func activityLine(game *casefile.Case, n accusation.Notification) string {
	switch n.Kind {
	case accusation.NotificationSuspectSelectionStarted:
		return "You gather everyone to name the culprit."
	case accusation.NotificationAttemptStarted:
		return fmt.Sprintf("You accuse %s.", suspectName(game, n.SuspectID))
	case accusation.NotificationEvidencePresented:
		name := clueName(game, n.EvidenceID)
		switch {
		case n.Correct && n.IsBonus:
			return fmt.Sprintf("%s drives the point home.", name)
		case n.Correct:
			return fmt.Sprintf("%s lands.", name)
		case n.TooEarly:
			return fmt.Sprintf("%s will matter later.", name)
		default:
			return fmt.Sprintf("%s falls flat.", name)
		}
	case accusation.NotificationConfrontationSucceeded:
		return fmt.Sprintf("%s breaks down and confesses.", suspectName(game, n.SuspectID))
	case accusation.NotificationConfrontationFailed:
		return "The accusation falls apart."
	case accusation.NotificationBadEndingTriggered:
		return "No attempts remain. The case goes cold."
	case accusation.NotificationAttemptCancelled:
		return "You withdraw the accusation."
	case accusation.NotificationStateReset:
		return "A fresh start."
	case accusation.NotificationPersistenceDegraded:
		return "Your progress may not survive a restart."
	case accusation.NotificationStatementAdvanced:
		// Too noisy for the notebook.
	}
	return ""
}

func suspectName(game *casefile.Case, id string) string {
	if suspect, ok := game.Suspect(id); ok {
		return suspect.Name
	}
	return id
}

func clueName(game *casefile.Case, id string) string {
	if clue, ok := game.Clue(id); ok {
		return clue.Name
	}
	return id
}

// playthroughRegistry hands out the playthrough for a player, building the coordinator on
// first touch. The map exists so that repeated requests share the in-flight confrontation and
// finale; everything durable lives behind the repositories.
type playthroughRegistry struct {
	// ctx bounds the finale playback goroutines to the server lifetime.
	ctx     context.Context
	logger  *slog.Logger
	game    *casefile.Case
	clues   *repositories.ClueRepository
	states  *repositories.AccusationStateRepository
	pause   time.Duration
	finales *relay.Handoff[string, accusation.Beat]

	mu      sync.Mutex
	players map[string]*playthrough
}

func newPlaythroughRegistry(
	ctx context.Context,
	logger *slog.Logger,
	game *casefile.Case,
	clues *repositories.ClueRepository,
	states *repositories.AccusationStateRepository,
	pause time.Duration,
) *playthroughRegistry {
	return &playthroughRegistry{
		ctx:     ctx,
		logger:  logger,
		game:    game,
		clues:   clues,
		states:  states,
		pause:   pause,
		finales: relay.NewHandoff[string, accusation.Beat](),
		players: make(map[string]*playthrough),
	}
}

func (reg *playthroughRegistry) playthrough(playerID []byte) *playthrough {
	key := string(playerID)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if pt, ok := reg.players[key]; ok {
		return pt
	}
	pt := &playthrough{key: key}
	pt.coordinator = accusation.NewCoordinator(
		reg.logger,
		reg.game,
		reg.states.ForPlayer(playerID),
		reg.clues.ForPlayer(playerID),
	)
	pt.coordinator.Subscribe(pt.observe(reg.game))
	reg.players[key] = pt
	return pt
}

// startFinale stages the finale playback for the player and begins playing it. The pump
// goroutine is the playback's only consumer; it forwards beats into a stream buffered for the
// full script, so the playback never stalls on a missing viewer and a late event-stream
// request still receives the finale from the top.
func (reg *playthroughRegistry) startFinale(pt *playthrough, resolution accusation.Resolution) {
	playback := accusation.NewPlayback(resolution, reg.pause)
	pt.setPlayback(playback)

	stream := make(chan accusation.Beat, len(playback.Beats()))
	reg.finales.Stage(pt.key, stream)
	go func() {
		for beat := range playback.C() {
			stream <- beat
		}
		close(stream)
		reg.finales.Retire(pt.key, stream)
	}()
	go func() {
		if err := playback.Run(reg.ctx); err != nil {
			reg.logger.LogAttrs(reg.ctx, slog.LevelDebug, "finale playback interrupted",
				errors.SlogError(err))
		}
	}()
}
