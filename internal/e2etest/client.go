// Package e2etest drives a running game server over HTTP the way a browser would:
// cookies carry the anonymous session, forms are submitted with their CSRF tokens,
// and responses are parsed into goquery documents for assertions.
package e2etest

import (
	"bufio"
	"context"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/culprit/internal/errors"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client with a fresh cookie jar, which is to say a fresh
// anonymous player. Tests that need isolated playthroughs create one client each.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: jar},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
		doc  *goquery.Document
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if req, err = http.NewRequest(method, c.url+urlPath, body); err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req.WithContext(ctx), nil
}

// SubmitForm submits the form with action formActionURLPath found on the page at
// formURLPath and returns the response document.
func (c *Client) SubmitForm(
	ctx context.Context,
	formURLPath string,
	formActionURLPath string,
) (*goquery.Document, error) {
	return c.SubmitMatchingForm(ctx, formURLPath, fmt.Sprintf("form[action='%s']", formActionURLPath))
}

// SubmitMatchingForm submits the form matching the given selector on the page at
// formURLPath, carrying all of the form's hidden inputs (the CSRF token included), and
// returns the response document. Redirects are followed, so the returned document is the
// page the browser would land on.
func (c *Client) SubmitMatchingForm(
	ctx context.Context,
	formURLPath string,
	formSelector string,
) (*goquery.Document, error) {
	var (
		doc *goquery.Document
		err error
	)
	if doc, err = c.GetDoc(ctx, formURLPath); err != nil {
		return nil, errors.Wrap(err, "get document")
	}
	return c.SubmitDocForm(ctx, doc, formSelector)
}

// SubmitDocForm submits the form matching the given selector on an already fetched
// document. Chaining submissions from the previous response avoids re-fetching between
// steps of a flow.
func (c *Client) SubmitDocForm(
	ctx context.Context,
	doc *goquery.Document,
	formSelector string,
) (*goquery.Document, error) {
	form := doc.Find(formSelector)
	if form.Length() != 1 {
		return nil, errors.New("form not found in document",
			slog.String("selector", formSelector), slog.Int("matches", form.Length()))
	}
	action, ok := form.Attr("action")
	if !ok {
		return nil, errors.New("form has no action", slog.String("selector", formSelector))
	}

	formData := neturl.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name, hasName := input.Attr("name")
		if !hasName {
			return
		}
		value, _ := input.Attr("value")
		formData.Set(name, value)
	})
	if !formData.Has("csrf_token") {
		return nil, errors.New("csrf_token not found in form", slog.String("selector", formSelector))
	}

	req, reqErr := c.newRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(formData.Encode()))
	if reqErr != nil {
		return nil, errors.Wrap(reqErr, "new request with context")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, doErr := c.client.Do(req)
	if doErr != nil {
		return nil, errors.Wrap(doErr, "do request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}

	result, parseErr := goquery.NewDocumentFromReader(resp.Body)
	if parseErr != nil {
		return nil, errors.Wrap(parseErr, "create document from reader")
	}
	return result, nil
}

// StreamEvents reads a server-sent-event endpoint and returns the data payloads of the
// named events, in arrival order, until an event named stopEvent arrives or the context
// ends.
func (c *Client) StreamEvents(ctx context.Context, urlPath, eventName, stopEvent string) ([]string, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}

	var (
		payloads []string
		current  string
	)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if current == eventName {
				payloads = append(payloads, strings.TrimPrefix(line, "data: "))
			}
		case line == "":
			if current == stopEvent {
				return payloads, nil
			}
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return payloads, errors.Wrap(scanErr, "read event stream")
	}
	return payloads, errors.New("event stream ended before the stop event",
		slog.String("stopEvent", stopEvent))
}
