package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
)

type scenesTemplateData struct {
	BaseTemplateData

	Scenes []casefile.Scene
}

func (app *application) scenes(w http.ResponseWriter, r *http.Request) {
	data := scenesTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Scenes:           app.game.Scenes,
	}

	app.render(w, r, http.StatusOK, "scenes", data)
}

type spotTemplateData struct {
	ID         string
	Prompt     string
	Discovered bool
}

type sceneTemplateData struct {
	BaseTemplateData

	Scene        casefile.Scene
	Spots        []spotTemplateData
	ExaminedText string
	ExaminedClue string
}

func (app *application) scene(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scene, ok := app.game.Scene(r.PathValue("sceneID"))
	if !ok {
		app.notFound(w, r)
		return
	}

	discovered, err := app.clues.DiscoveredSet(ctx, contexthelpers.PlayerID(ctx))
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list discovered clues"))
		return
	}

	spots := make([]spotTemplateData, len(scene.Spots))
	for i, spot := range scene.Spots {
		spots[i] = spotTemplateData{
			ID:         spot.ID,
			Prompt:     spot.Prompt,
			Discovered: spot.Clue != "" && discovered[spot.Clue],
		}
	}

	data := sceneTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Scene:            scene,
		Spots:            spots,
		ExaminedText:     app.sessionManager.PopString(ctx, examinedTextSessionKey),
		ExaminedClue:     app.sessionManager.PopString(ctx, examinedClueSessionKey),
	}

	app.render(w, r, http.StatusOK, "scene", data)
}

type spotResultTemplateData struct {
	ExaminedText string
	ExaminedClue string
}

// examineSpot reveals a spot's text and writes its clue, if any, into the player's notebook.
// Examining is idempotent: a second look repeats the text without a duplicate discovery.
func (app *application) examineSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scene, ok := app.game.Scene(r.PathValue("sceneID"))
	if !ok {
		app.notFound(w, r)
		return
	}
	spot, ok := scene.Spot(r.PathValue("spotID"))
	if !ok {
		app.notFound(w, r)
		return
	}

	var discoveredName string
	if spot.Clue != "" {
		if err := app.clues.Discover(ctx, contexthelpers.PlayerID(ctx), spot.Clue); err != nil {
			app.serverError(w, r, errors.Wrap(err, "discover clue", slog.String("clue_id", spot.Clue)))
			return
		}
		discoveredName = clueName(app.game, spot.Clue)
	}

	h := app.htmx.NewHandler(w, r)
	if h.IsHxRequest() {
		data := spotResultTemplateData{
			ExaminedText: spot.Text,
			ExaminedClue: discoveredName,
		}
		app.renderPartial(w, r, http.StatusOK, "scene", "spot-result", data)
		return
	}

	app.sessionManager.Put(ctx, examinedTextSessionKey, spot.Text)
	if discoveredName != "" {
		app.sessionManager.Put(ctx, examinedClueSessionKey, discoveredName)
	}
	http.Redirect(w, r, "/scenes/"+scene.ID, http.StatusSeeOther)
}
