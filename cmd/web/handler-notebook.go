package main

import (
	"net/http"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type clueEntryTemplateData struct {
	Name        string
	Description string
}

type notebookTemplateData struct {
	BaseTemplateData

	Entries  []clueEntryTemplateData
	Gate     accusation.Gate
	Activity []string
}

// notebook lists discoveries in the order they were made and shows whether the accusation is
// within reach.
func (app *application) notebook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)

	discovered, err := app.clues.ListDiscovered(ctx, playerID)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list discovered clues"))
		return
	}
	entries := make([]clueEntryTemplateData, 0, len(discovered))
	for _, d := range discovered {
		if clue, ok := app.game.Clue(d.ClueID); ok {
			entries = append(entries, clueEntryTemplateData{Name: clue.Name, Description: clue.Description})
		}
	}

	var (
		gate     accusation.Gate
		activity []string
	)
	if app.accusationAvailable() {
		pt := app.playthroughs.playthrough(playerID)
		if gate, err = pt.coordinator.CanInitiateAccusation(ctx); err != nil {
			app.serverError(w, r, errors.Wrap(err, "check accusation gate"))
			return
		}
		activity = pt.recentActivity()
	} else {
		gate = accusation.Gate{Allowed: false, Reason: accusationUnavailableReason}
	}

	data := notebookTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Entries:          entries,
		Gate:             gate,
		Activity:         activity,
	}

	app.render(w, r, http.StatusOK, "notebook", data)
}
