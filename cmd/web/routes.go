package main

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/myrjola/culprit/ui"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// The embedded files already live under static/, so the URL maps straight onto the FS.
	mux.Handle("GET /static/", cacheForeverHeaders(http.FileServerFS(ui.Files)))

	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))

	// dynamic is the chain for everything that renders for a player. commonContext comes
	// after noSurf because it stashes the CSRF token for the templates.
	dynamic := alice.New(app.sessionManager.LoadAndSave, noSurf, app.ensurePlayer, commonContext)
	// The event stream cannot use LoadAndSave because the session write would have to
	// happen after the stream ends.
	stream := alice.New(app.serverSentEventMiddleware, app.ensurePlayer)

	mux.Handle("GET /{$}", dynamic.ThenFunc(app.home))

	mux.Handle("GET /scenes", dynamic.ThenFunc(app.scenes))
	mux.Handle("GET /scenes/{sceneID}", dynamic.ThenFunc(app.scene))
	mux.Handle("POST /scenes/{sceneID}/spots/{spotID}", dynamic.ThenFunc(app.examineSpot))
	mux.Handle("GET /notebook", dynamic.ThenFunc(app.notebook))

	mux.Handle("GET /accuse", dynamic.ThenFunc(app.accuse))
	mux.Handle("POST /accuse/{suspectID}", dynamic.ThenFunc(app.startAccusation))
	mux.Handle("GET /confrontation", dynamic.ThenFunc(app.confrontation))
	mux.Handle("POST /confrontation/present", dynamic.ThenFunc(app.presentEvidence))
	mux.Handle("POST /confrontation/continue", dynamic.ThenFunc(app.continueConfrontation))
	mux.Handle("POST /confrontation/cancel", dynamic.ThenFunc(app.cancelConfrontation))
	mux.Handle("GET /confrontation/finale", stream.ThenFunc(app.finaleStream))
	mux.Handle("POST /confrontation/finale/continue", dynamic.ThenFunc(app.finaleContinue))
	mux.Handle("POST /confrontation/finale/skip", dynamic.ThenFunc(app.finaleSkip))

	mux.Handle("POST /newgame", dynamic.ThenFunc(app.newGame))

	standard := alice.New(app.recoverPanic, app.secureHeaders, app.logRequest)
	return standard.Then(mux)
}
