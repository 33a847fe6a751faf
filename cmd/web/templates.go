package main

import (
	"github.com/myrjola/culprit/internal/contexthelpers"
	"net/http"
)

// BaseTemplateData carries what the base layout needs on every page.
type BaseTemplateData struct {
	CaseTitle   string
	CurrentPath string
	Flash       string
}

func (app *application) newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CaseTitle:   app.game.Title,
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Flash:       app.sessionManager.PopString(r.Context(), flashSessionKey),
	}
}
