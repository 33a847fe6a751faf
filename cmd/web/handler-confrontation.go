package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type trayItemTemplateData struct {
	ID   string
	Name string
}

type confrontationTemplateData struct {
	BaseTemplateData

	Suspect         casefile.Suspect
	MistakeSlots    []bool
	Verdict         string
	StatementNumber int
	StatementTotal  int
	Statement       casefile.Statement
	Tray            []trayItemTemplateData
	Presented       []string
}

// confrontation shows the current statement of the running attempt, or the finale once the
// attempt has resolved. Without either there is nothing to confront, so it bounces back to
// the suspect selection.
func (app *application) confrontation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))

	if resolution := pt.coordinator.Resolution(); resolution != nil {
		if playback := pt.currentPlayback(); playback != nil {
			app.renderFinale(w, r, resolution, playback)
			return
		}
	}

	if _, active := pt.coordinator.ActiveProgress(); !active {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}

	verdict := app.sessionManager.PopString(ctx, verdictSessionKey)
	data, err := app.confrontationData(ctx, r, pt, verdict)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "confrontation", data)
}

func (app *application) confrontationData(
	ctx context.Context,
	r *http.Request,
	pt *playthrough,
	verdict string,
) (confrontationTemplateData, error) {
	progress, ok := pt.coordinator.ActiveProgress()
	if !ok {
		return confrontationTemplateData{}, errors.New("no active confrontation to render")
	}
	statement, ok := pt.coordinator.CurrentStatement()
	if !ok {
		return confrontationTemplateData{}, errors.New("no current statement to render")
	}
	suspect, _ := app.game.Suspect(progress.SuspectID)
	sequence, _ := app.game.Accusation.Confrontation(progress.SuspectID)

	mistakes := make([]bool, accusation.MaxMistakes)
	for i := range mistakes {
		mistakes[i] = i < progress.MistakeCount
	}

	discovered, err := app.clues.ListDiscovered(ctx, contexthelpers.PlayerID(ctx))
	if err != nil {
		return confrontationTemplateData{}, errors.Wrap(err, "list discovered clues")
	}
	tray := make([]trayItemTemplateData, 0, len(discovered))
	for _, d := range discovered {
		tray = append(tray, trayItemTemplateData{ID: d.ClueID, Name: clueName(app.game, d.ClueID)})
	}

	presented := make([]string, len(progress.PresentedEvidence))
	for i, id := range progress.PresentedEvidence {
		presented[i] = clueName(app.game, id)
	}

	return confrontationTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Suspect:          suspect,
		MistakeSlots:     mistakes,
		Verdict:          verdict,
		StatementNumber:  progress.CurrentStatementIndex + 1,
		StatementTotal:   len(sequence.Statements),
		Statement:        statement,
		Tray:             tray,
		Presented:        presented,
	}, nil
}

// presentEvidence submits one piece of evidence against the current statement.
func (app *application) presentEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))

	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	evidenceID := r.PostForm.Get("evidence")
	if evidenceID == "" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	result, err := pt.coordinator.PresentEvidence(ctx, evidenceID)
	switch {
	case err == nil:
	case errors.Is(err, accusation.ErrNoActiveConfrontation):
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
		return
	case errors.Is(err, accusation.ErrUndiscoveredEvidence):
		app.clientError(w, r, http.StatusBadRequest)
		return
	default:
		app.serverError(w, r, errors.Wrap(err, "present evidence", slog.String("evidence_id", evidenceID)))
		return
	}

	app.finishOrContinue(w, r, pt, result.ResponseText)
}

// continueConfrontation advances past an informational statement.
func (app *application) continueConfrontation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))

	err := pt.coordinator.AdvanceInformational(ctx)
	switch {
	case err == nil:
	case errors.Is(err, accusation.ErrNoActiveConfrontation):
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
		return
	case errors.Is(err, accusation.ErrEvidenceRequired):
		app.clientError(w, r, http.StatusBadRequest)
		return
	default:
		app.serverError(w, r, errors.Wrap(err, "advance statement"))
		return
	}

	app.finishOrContinue(w, r, pt, "")
}

// finishOrContinue routes the outcome of a confrontation command: a resolved attempt starts
// the finale, anything else shows the panel again with the verdict.
func (app *application) finishOrContinue(w http.ResponseWriter, r *http.Request, pt *playthrough, verdict string) {
	ctx := r.Context()
	h := app.htmx.NewHandler(w, r)

	if resolution := pt.coordinator.Resolution(); resolution != nil {
		app.playthroughs.startFinale(pt, *resolution)
		if h.IsHxRequest() {
			// The finale replaces the whole page, not just the panel.
			w.Header().Set("HX-Redirect", "/confrontation")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
		return
	}

	if h.IsHxRequest() {
		data, err := app.confrontationData(ctx, r, pt, verdict)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		app.renderPartial(w, r, http.StatusOK, "confrontation", "confrontation-panel", data)
		return
	}

	if verdict != "" {
		app.sessionManager.Put(ctx, verdictSessionKey, verdict)
	}
	http.Redirect(w, r, "/confrontation", http.StatusSeeOther)
}

// cancelConfrontation withdraws the attempt without burning it.
func (app *application) cancelConfrontation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !app.accusationAvailable() {
		http.Redirect(w, r, "/accuse", http.StatusSeeOther)
		return
	}
	pt := app.playthroughs.playthrough(contexthelpers.PlayerID(ctx))

	if err := pt.coordinator.CancelAccusation(ctx); err != nil && !errors.Is(err, accusation.ErrNoActiveConfrontation) {
		app.serverError(w, r, errors.Wrap(err, "cancel accusation"))
		return
	}

	app.flash(r, "You withdraw the accusation. The investigation continues.")
	http.Redirect(w, r, "/notebook", http.StatusSeeOther)
}
