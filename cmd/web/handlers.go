package main

import (
	"bytes"
	"fmt"
	"github.com/myrjola/culprit/internal/contexthelpers"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/ssr"
	"github.com/myrjola/culprit/ui"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
)

// pageTemplate returns a template for the given page name.
//
// pageName corresponds to a directory inside ui/templates/pages. It has to include a template named "page".
func pageTemplate(pageName string) (*template.Template, error) {
	files := []string{
		"templates/base.gohtml",
	}

	pageTemplateFiles, err := fs.Glob(ui.Files, fmt.Sprintf("templates/pages/%s/*.gohtml", pageName))
	if err != nil {
		return nil, fmt.Errorf("glob page template files: %w", err)
	}
	files = append(files, pageTemplateFiles...)

	// We need to initialize the FuncMap before parsing the files. These will be overridden in the render function.
	return template.New(pageName).Funcs(template.FuncMap{
		"nonce": func() string {
			panic("not implemented")
		},
		"csrf": func() string {
			panic("not implemented")
		},
	}).ParseFS(ui.Files, files...)
}

// render writes the full page built from the "base" template. The rendered markup runs through
// the server-side enhancement pass, which turns data-enhance forms into htmx submissions.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, file string, data any) {
	app.executeTemplate(w, r, status, file, "base", data, ssr.EnhancePage)
}

// renderPartial writes a single named template for htmx swaps, enhanced the same way as full pages.
func (app *application) renderPartial(w http.ResponseWriter, r *http.Request, status int, file string, name string, data any) {
	app.executeTemplate(w, r, status, file, name, data, ssr.EnhanceFragment)
}

func (app *application) executeTemplate(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	file string,
	name string,
	data any,
	enhance func(io.Writer, io.Reader) error,
) {
	var (
		err error
		t   *template.Template
	)

	if t, err = pageTemplate(file); err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse template", slog.String("template", file)))
		return
	}

	buf := new(bytes.Buffer)
	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\"/>", contexthelpers.CSRFToken(ctx))
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec, we trust the nonce since it's not provided by user.
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec, we trust the csrf since it's not provided by user.
		},
	})
	if err = t.ExecuteTemplate(buf, name, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template",
			slog.String("template", file), slog.String("name", name)))
		return
	}

	enhanced := new(bytes.Buffer)
	if err = enhance(enhanced, buf); err != nil {
		app.serverError(w, r, errors.Wrap(err, "enhance markup", slog.String("template", file)))
		return
	}

	w.WriteHeader(status)

	_, _ = enhanced.WriteTo(w)
}
