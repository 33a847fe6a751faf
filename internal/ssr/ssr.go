// Package ssr rewrites rendered HTML before it reaches the client.
package ssr

import (
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/culprit/internal/errors"
	"golang.org/x/net/html"
)

// enhanceForms copies each form's action into htmx attributes so the page behaves the
// same with and without scripting. A form opts in with a data-enhance attribute naming
// the id of the swap target, or "none" for a fire-and-forget post. The marker itself is
// removed from the output.
func enhanceForms(doc *goquery.Document) {
	doc.Find("form[data-enhance]").Each(func(_ int, form *goquery.Selection) {
		target, _ := form.Attr("data-enhance")
		action, ok := form.Attr("action")
		if !ok {
			return
		}
		form.SetAttr("hx-post", action)
		if target == "" || target == "none" {
			form.SetAttr("hx-swap", "none")
		} else {
			form.SetAttr("hx-target", "#"+target)
			form.SetAttr("hx-swap", "innerHTML")
		}
		form.RemoveAttr("data-enhance")
	})
}

// EnhancePage runs the form enhancement over a complete HTML document and writes the
// whole document back, doctype included.
func EnhancePage(writer io.Writer, reader io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return errors.Wrap(err, "parse rendered page")
	}
	enhanceForms(doc)
	if err = html.Render(writer, doc.Nodes[0]); err != nil {
		return errors.Wrap(err, "render page")
	}
	return nil
}

// EnhanceFragment runs the form enhancement over an HTML fragment. The parser wraps
// fragments in a full document, so only the body's children are written back.
func EnhanceFragment(writer io.Writer, reader io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return errors.Wrap(err, "parse rendered fragment")
	}
	enhanceForms(doc)
	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return nil
	}
	for child := body.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if err = html.Render(writer, child); err != nil {
			return errors.Wrap(err, "render fragment")
		}
	}
	return nil
}
