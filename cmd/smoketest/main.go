package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/myrjola/culprit/internal/e2etest"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/logging"
)

// TestFrontPage checks that the deployment serves the case overview.
func TestFrontPage(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for healthy")
	}

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get front page")
	}
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return errors.New("front page has no case title")
	}
	return nil
}

// TestInvestigation walks into the first scene and examines its first spot, which exercises
// sessions, CSRF and the database behind the notebook.
func TestInvestigation(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	doc, err := client.GetDoc(ctx, "/scenes")
	if err != nil {
		return errors.Wrap(err, "get scenes")
	}
	scenePath, ok := doc.Find(".scene-list a").First().Attr("href")
	if !ok {
		return errors.New("no scenes listed")
	}

	doc, err = client.SubmitMatchingForm(ctx, scenePath, ".spot-list li:first-child form")
	if err != nil {
		return errors.Wrap(err, "examine spot", slog.String("scene", scenePath))
	}
	if doc.Find(".spot-result").Length() == 0 {
		return errors.New("examining a spot showed nothing", slog.String("scene", scenePath))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestFrontPage(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing front page", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestInvestigation(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing investigation", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
