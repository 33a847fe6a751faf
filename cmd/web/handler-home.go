package main

import (
	"net/http"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type homeTemplateData struct {
	BaseTemplateData

	Tagline               string
	Solved                bool
	Closed                bool
	DiscoveredCount       int
	TotalClues            int
	AttemptsRemaining     int
	AccusationUnavailable bool
	Scenes                []casefile.Scene
	Suspects              []casefile.Suspect
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)

	discovered, err := app.clues.DiscoveredSet(ctx, playerID)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list discovered clues"))
		return
	}
	var state accusation.State
	if app.accusationAvailable() {
		state = app.playthroughs.playthrough(playerID).coordinator.State(ctx)
	}

	data := homeTemplateData{
		BaseTemplateData:      app.newBaseTemplateData(r),
		Tagline:               app.game.Tagline,
		Solved:                state.Solved,
		Closed:                state.Closed(),
		DiscoveredCount:       len(discovered),
		TotalClues:            len(app.game.Clues),
		AttemptsRemaining:     state.AttemptsRemaining(),
		AccusationUnavailable: !app.accusationAvailable(),
		Scenes:                app.game.Scenes,
		Suspects:              app.game.Suspects,
	}

	app.render(w, r, http.StatusOK, "home", data)
}

// newGame wipes the playthrough: the accusation record, the notebook, and any finale still
// in flight.
func (app *application) newGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)

	if app.accusationAvailable() {
		pt := app.playthroughs.playthrough(playerID)
		if err := pt.coordinator.ResetState(ctx); err != nil {
			app.serverError(w, r, errors.Wrap(err, "reset accusation state"))
			return
		}
		pt.setPlayback(nil)
		pt.clearActivity()
	} else if err := app.states.Clear(ctx, playerID); err != nil {
		app.serverError(w, r, errors.Wrap(err, "clear accusation state"))
		return
	}
	if err := app.clues.Forget(ctx, playerID); err != nil {
		app.serverError(w, r, errors.Wrap(err, "forget discovered clues"))
		return
	}

	app.flash(r, "A fresh case file. The house remembers nothing.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
