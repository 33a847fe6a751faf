package accusation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// BeatKind discriminates finale beats so the presentation layer can style them.
type BeatKind string

const (
	BeatConfession  BeatKind = "confession"
	BeatReaction    BeatKind = "reaction"
	BeatKeyEvidence BeatKind = "key-evidence"
	BeatBonus       BeatKind = "bonus"
	BeatRebuttal    BeatKind = "rebuttal"
	BeatDismissal   BeatKind = "dismissal"
	BeatDespair     BeatKind = "despair"
	BeatExplanation BeatKind = "explanation"
	BeatSummary     BeatKind = "summary"
)

// Beat is one screen of the finale. SuspectID is set when a suspect's portrait belongs next to
// the text. Final marks the dismissible closing screen.
type Beat struct {
	Kind      BeatKind
	SuspectID string
	Title     string
	Text      string
	Final     bool
}

// DefaultBeatPause is how long a beat stays on screen before the playback moves on by itself.
const DefaultBeatPause = 8 * time.Second

// Playback walks the finale beats in order. After each beat it waits for Continue, Skip or the
// pause to elapse; Skip jumps straight to the final beat. A beat never plays twice.
//
// Delivery uses an unbuffered channel, so the playback goroutine blocks until a consumer takes
// the beat. Run's context bounds that wait when the consumer never shows up.
type Playback struct {
	mu       sync.Mutex
	beats    []Beat
	pause    time.Duration
	out      chan Beat
	advance  chan struct{}
	skip     chan struct{}
	played   []Beat
	finished bool
}

// NewPlayback builds the playback for a resolution. A non-positive pause advances beats as
// soon as they are consumed.
func NewPlayback(resolution Resolution, pause time.Duration) *Playback {
	return &Playback{
		beats:   resolutionBeats(resolution),
		pause:   pause,
		out:     make(chan Beat),
		advance: make(chan struct{}, 1),
		skip:    make(chan struct{}, 1),
	}
}

// Beats returns the full script in play order, for consumers that render it all at once.
func (p *Playback) Beats() []Beat {
	return append([]Beat(nil), p.beats...)
}

// C streams the beats as they play. The channel closes when the playback ends.
func (p *Playback) C() <-chan Beat {
	return p.out
}

// Current returns the most recently played beat, so a consumer that reconnects mid-finale can
// catch up before reading the stream.
func (p *Playback) Current() (Beat, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.played) == 0 {
		return Beat{}, false
	}
	return p.played[len(p.played)-1], true
}

// Played returns the beats that have actually played, in order. A skipped phase never appears
// here, which is what lets a page re-render match what the player saw.
func (p *Playback) Played() []Beat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Beat(nil), p.played...)
}

// Finished reports whether the playback has delivered its final beat.
func (p *Playback) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// Continue requests the next beat without waiting out the pause. Extra requests while one is
// already pending are dropped.
func (p *Playback) Continue() {
	select {
	case p.advance <- struct{}{}:
	default:
	}
}

// Skip fast-forwards to the final beat.
func (p *Playback) Skip() {
	select {
	case p.skip <- struct{}{}:
	default:
	}
}

// Run plays the beats until the final one is delivered or the context ends. It closes the
// stream on return and must only be called once.
func (p *Playback) Run(ctx context.Context) error {
	defer close(p.out)
	skipping := false
	for i := 0; i < len(p.beats); i++ {
		if skipping {
			i = len(p.beats) - 1
		}
		beat := p.beats[i]
		p.setCurrent(beat)

		select {
		case p.out <- beat:
		case <-ctx.Done():
			return ctx.Err()
		}
		if beat.Final {
			p.setFinished()
			return nil
		}

		timer := time.NewTimer(p.pause)
		select {
		case <-p.advance:
		case <-p.skip:
			skipping = true
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		timer.Stop()
	}
	return nil
}

func (p *Playback) setCurrent(beat Beat) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, beat)
}

func (p *Playback) setFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
}

// resolutionBeats scripts the finale for a resolution.
func resolutionBeats(resolution Resolution) []Beat {
	switch {
	case resolution.Victory != nil:
		return victoryBeats(*resolution.Victory)
	case resolution.WrongAccusation != nil:
		wrong := *resolution.WrongAccusation
		opening := Beat{
			Kind:      BeatRebuttal,
			SuspectID: wrong.SuspectID,
			Title:     wrong.SuspectName,
			Text:      wrong.Rebuttal,
		}
		return failureBeats(opening, wrong.AttemptsRemaining, resolution.BadEnding)
	case resolution.Defeat != nil:
		defeat := *resolution.Defeat
		opening := Beat{
			Kind:      BeatDismissal,
			SuspectID: defeat.SuspectID,
			Title:     defeat.SuspectName,
			Text:      defeat.Dismissal,
		}
		return failureBeats(opening, defeat.AttemptsRemaining, resolution.BadEnding)
	default:
		return nil
	}
}

func victoryBeats(victory VictoryPayload) []Beat {
	beats := []Beat{
		{Kind: BeatConfession, SuspectID: victory.CulpritID, Title: victory.CulpritName, Text: victory.Confession},
		{Kind: BeatReaction, SuspectID: victory.CulpritID, Title: victory.CulpritName, Text: victory.Reaction},
	}
	if len(victory.KeyEvidence) > 0 {
		names := make([]string, 0, len(victory.KeyEvidence))
		for _, ref := range victory.KeyEvidence {
			names = append(names, ref.Name)
		}
		beats = append(beats, Beat{
			Kind:  BeatKeyEvidence,
			Title: "The evidence that mattered",
			Text:  strings.Join(names, ", ") + ".",
		})
	}
	if victory.BonusAcknowledgment != "" {
		beats = append(beats, Beat{Kind: BeatBonus, Text: victory.BonusAcknowledgment})
	}
	return append(beats, Beat{
		Kind:  BeatSummary,
		Title: "Case closed",
		Text:  victory.Motive,
		Final: true,
	})
}

func failureBeats(opening Beat, attemptsRemaining int, bad *BadEndingPayload) []Beat {
	beats := []Beat{opening}
	if bad == nil {
		return append(beats, Beat{
			Kind:  BeatSummary,
			Title: "The accusation failed",
			Text:  attemptsRemainingText(attemptsRemaining),
			Final: true,
		})
	}
	beats = append(beats,
		Beat{Kind: BeatDespair, Text: bad.DespairSpeech},
		Beat{Kind: BeatExplanation, Text: bad.FailureExplanation},
	)
	closing := "The truth of the case stays buried."
	if bad.CulpritName != "" {
		closing = fmt.Sprintf("The culprit was %s.", bad.CulpritName)
	}
	return append(beats, Beat{
		Kind:  BeatSummary,
		Title: "Case cold",
		Text:  closing,
		Final: true,
	})
}

func attemptsRemainingText(remaining int) string {
	if remaining == 1 {
		return "One accusation remains. Make it count."
	}
	return fmt.Sprintf("%d accusations remain.", remaining)
}
