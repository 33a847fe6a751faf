package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type suspectCardTemplateData struct {
	ID       string
	Name     string
	Role     string
	Portrait string
	Accused  bool
}

type accuseTemplateData struct {
	BaseTemplateData

	Refused           bool
	Gate              accusation.Gate
	AttemptsRemaining int
	Suspects          []suspectCardTemplateData
}

// accusationUnavailableReason is shown in place of the gate's reason when the case document's
// accusation section failed validation and the feature is switched off.
const accusationUnavailableReason = "The accusation cannot be made: this case's confrontation script " +
	"failed its checks. The investigation continues."

// accuse opens the accusation flow. The engine re-checks the gate, so a direct request cannot
// skip past the investigation.
func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		data := accuseTemplateData{
			BaseTemplateData: app.newBaseTemplateData(r),
			Refused:          true,
			Gate:             accusation.Gate{Allowed: false, Reason: accusationUnavailableReason},
		}
		app.render(w, r, http.StatusOK, "accuse", data)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))

	if _, active := pt.coordinator.ActiveProgress(); active {
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
		return
	}

	if err := pt.coordinator.StartSuspectSelection(ctx); err != nil {
		if errors.Is(err, accusation.ErrAccusationNotAllowed) {
			gate, gateErr := pt.coordinator.CanInitiateAccusation(ctx)
			if gateErr != nil {
				app.serverError(w, r, errors.Wrap(gateErr, "check accusation gate"))
				return
			}
			data := accuseTemplateData{
				BaseTemplateData: app.newBaseTemplateData(r),
				Refused:          true,
				Gate:             gate,
			}
			app.render(w, r, http.StatusOK, "accuse", data)
			return
		}
		app.serverError(w, r, errors.Wrap(err, "start suspect selection"))
		return
	}

	state := pt.coordinator.State(ctx)
	available := pt.coordinator.AvailableSuspects()
	suspects := make([]suspectCardTemplateData, len(available))
	for i, suspect := range available {
		suspects[i] = suspectCardTemplateData{
			ID:       suspect.ID,
			Name:     suspect.Name,
			Role:     suspect.Role,
			Portrait: suspect.Portrait,
			Accused:  pt.coordinator.HasSuspectBeenAccused(ctx, suspect.ID),
		}
	}

	data := accuseTemplateData{
		BaseTemplateData:  app.newBaseTemplateData(r),
		AttemptsRemaining: state.AttemptsRemaining(),
		Suspects:          suspects,
	}

	app.render(w, r, http.StatusOK, "accuse", data)
}

// startAccusation begins the confrontation against the named suspect.
func (app *application) startAccusation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))
	suspectID := r.PathValue("suspectID")

	err := pt.coordinator.StartAccusation(ctx, suspectID)
	switch {
	case err == nil, errors.Is(err, accusation.ErrConfrontationActive):
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
	case errors.Is(err, accusation.ErrUnknownSuspect):
		app.notFound(w, r)
	case errors.Is(err, accusation.ErrCaseSolved),
		errors.Is(err, accusation.ErrAccusationsClosed),
		errors.Is(err, accusation.ErrAccusationNotAllowed):
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
	default:
		app.serverError(w, r, errors.Wrap(err, "start accusation", slog.String("suspect_id", suspectID)))
	}
}
