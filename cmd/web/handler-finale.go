package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type finaleTemplateData struct {
	BaseTemplateData

	Heading  string
	Beats    []accusation.Beat
	Finished bool
}

// renderFinale shows the finale page: the beats that have played so far plus, while the
// playback still runs, the pacing controls and the event-stream hookup. A page opened after
// the playback finished gets the whole script and a way back to the case.
func (app *application) renderFinale(
	w http.ResponseWriter,
	r *http.Request,
	resolution *accusation.Resolution,
	playback *accusation.Playback,
) {
	data := finaleTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Heading:          finaleHeading(resolution),
		Beats:            playback.Played(),
		Finished:         playback.Finished(),
	}
	app.render(w, r, http.StatusOK, "finale", data)
}

func finaleHeading(resolution *accusation.Resolution) string {
	switch {
	case resolution.Victory != nil:
		return "The confession"
	case resolution.BadEnding != nil:
		return "The case goes cold"
	case resolution.WrongAccusation != nil:
		return "The wrong name"
	default:
		return "The accusation collapses"
	}
}

// beatEvent is the JSON payload of one server-sent finale beat.
type beatEvent struct {
	Kind      string `json:"kind"`
	SuspectID string `json:"suspectId,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Final     bool   `json:"final,omitempty"`
}

// finaleStream plays the finale over server-sent events. The live stream goes to whoever
// claims it first; every other subscriber waits for the closing event and re-renders the
// page from the stored resolution.
func (app *application) finaleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		app.notFound(w, r)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))
	if pt.currentPlayback() == nil {
		app.notFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverError(w, r, errors.New("response writer does not support streaming"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	select {
	case stream, live := <-app.playthroughs.finales.Claim(pt.key):
		if live && !app.pumpBeats(r, w, flusher, stream) {
			return
		}
	case <-ctx.Done():
		return
	}

	// Tells the page the playback is over and the re-rendered page has the full story.
	_, _ = fmt.Fprint(w, "event: finale-over\ndata: {}\n\n")
	flusher.Flush()
}

// pumpBeats forwards beats to the client until the stream closes. It reports false when the
// client went away first.
func (app *application) pumpBeats(
	r *http.Request,
	w http.ResponseWriter,
	flusher http.Flusher,
	stream chan accusation.Beat,
) bool {
	ctx := r.Context()
	for {
		select {
		case beat, open := <-stream:
			if !open {
				return true
			}
			payload, err := json.Marshal(beatEvent{
				Kind:      string(beat.Kind),
				SuspectID: beat.SuspectID,
				Title:     beat.Title,
				Text:      beat.Text,
				Final:     beat.Final,
			})
			if err != nil {
				app.logger.LogAttrs(ctx, slog.LevelError, "marshal finale beat", errors.SlogError(err))
				continue
			}
			if _, err = fmt.Fprintf(w, "event: beat\ndata: %s\n\n", payload); err != nil {
				return false
			}
			flusher.Flush()
		case <-ctx.Done():
			return false
		}
	}
}

// finaleContinue advances the finale past the current beat without waiting out the pause.
func (app *application) finaleContinue(w http.ResponseWriter, r *http.Request) {
	app.finaleCommand(w, r, func(playback *accusation.Playback) { playback.Continue() })
}

// finaleSkip fast-forwards the finale to its closing beat.
func (app *application) finaleSkip(w http.ResponseWriter, r *http.Request) {
	app.finaleCommand(w, r, func(playback *accusation.Playback) { playback.Skip() })
}

func (app *application) finaleCommand(
	w http.ResponseWriter,
	r *http.Request,
	command func(*accusation.Playback),
) {
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(r.Context()))
	playback := pt.currentPlayback()
	if playback == nil {
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
		return
	}
	command(playback)

	if app.htmx.NewHandler(w, r).IsHxRequest() {
		// The event stream carries the next beat; there is nothing to swap.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
}
