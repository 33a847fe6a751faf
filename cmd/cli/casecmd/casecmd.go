// Package casecmd holds the case file commands: authoring-time validation, a confrontation
// simulator, and a watch loop for live editing.
package casecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "case",
	Title: "Case file operations",
}

func init() {
	Simulate.Flags().String("case", "", "path to a case file, the built-in case when empty")
	Simulate.Flags().String("suspect", "", "id of the suspect to accuse")
	Simulate.Flags().String("present", "", "comma-separated clue ids to present, in order")
	Simulate.Flags().String("discover", "all", "comma-separated clue ids in the notebook, or all")
	_ = Simulate.MarkFlagRequired("suspect")
}

var Validate = &cobra.Command{
	Use:     "validate [file]",
	GroupID: "case",
	Short:   "Validate a case file",
	Long: `Checks a case document and lists every violation in one pass.

Without an argument the built-in case is checked.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		if err := validateCase(path); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func validateCase(path string) error {
	display := path
	if display == "" {
		display = "built-in case"
	}

	data, err := casefile.Source(path)
	if err != nil {
		return err
	}
	game, err := casefile.Parse(data)
	if err != nil {
		var validationErr *casefile.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %d violations\n", display, len(validationErr.Violations))
			for _, violation := range validationErr.Violations {
				_, _ = fmt.Fprintf(os.Stderr, "  %s\n", violation)
			}
			if validationErr.AccusationOnly() {
				_, _ = fmt.Fprintln(os.Stderr,
					"every violation sits under the accusation section; the investigation itself still plays")
			}
			os.Exit(1)
		}
		return err
	}

	statements := 0
	for _, sequence := range game.Accusation.Confrontations {
		statements += len(sequence.Statements)
	}
	fmt.Printf("%s: ok\n", display)
	fmt.Printf("  %s\n", game.Title)
	fmt.Printf("  %d clues, %d scenes, %d suspects\n", len(game.Clues), len(game.Scenes), len(game.Suspects))
	fmt.Printf("  %d confrontations, %d statements, guilty: %s\n",
		len(game.Accusation.Confrontations), statements, game.Accusation.Guilty)
	return nil
}

var Simulate = &cobra.Command{
	Use:     "simulate",
	GroupID: "case",
	Short:   "Simulate a confrontation",
	Long: `Runs one accusation against the engine and prints the transcript.

The notebook holds every clue by default. Trim it with --discover to test the
gate, or feed wrong evidence with --present to watch the mistakes pile up.`,
	Run: func(cmd *cobra.Command, _ []string) {
		path, err := cmd.Flags().GetString("case")
		if err == nil {
			var suspectID string
			if suspectID, err = cmd.Flags().GetString("suspect"); err == nil {
				var present, discover string
				if present, err = cmd.Flags().GetString("present"); err == nil {
					if discover, err = cmd.Flags().GetString("discover"); err == nil {
						err = simulate(path, suspectID, splitList(present), discover)
					}
				}
			}
		}
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// notebook is a fixed clue set standing in for the player's discoveries.
type notebook map[string]bool

func (n notebook) Discovered(context.Context) (map[string]bool, error) {
	return n, nil
}

func simulate(path, suspectID string, present []string, discover string) error {
	data, err := casefile.Source(path)
	if err != nil {
		return err
	}
	game, err := casefile.Parse(data)
	if err != nil {
		return err
	}

	discovered := notebook{}
	if discover == "all" {
		for _, clue := range game.Clues {
			discovered[clue.ID] = true
		}
	} else {
		for _, id := range splitList(discover) {
			if _, ok := game.Clue(id); !ok {
				return errors.New("unknown clue in --discover", slog.String("clue_id", id))
			}
			discovered[id] = true
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	coordinator := accusation.NewCoordinator(logger, game, accusation.NewMemoryStore(), discovered)

	ctx := context.Background()
	gate, err := coordinator.CanInitiateAccusation(ctx)
	if err != nil {
		return err
	}
	if !gate.Allowed {
		return errors.New("accusation refused: " + gate.Reason)
	}
	if err = coordinator.StartSuspectSelection(ctx); err != nil {
		return err
	}
	if err = coordinator.StartAccusation(ctx, suspectID); err != nil {
		return errors.Wrap(err, "start accusation", slog.String("suspect_id", suspectID))
	}

	sequence, ok := game.Accusation.Confrontation(suspectID)
	if !ok {
		return errors.New("no confrontation sequence", slog.String("suspect_id", suspectID))
	}
	fmt.Printf("%s\n", game.Title)
	fmt.Printf("Accusing %s.\n\n", suspectName(game, suspectID))

	queue := present
	lastPrinted := -1
	for coordinator.Resolution() == nil {
		progress, active := coordinator.ActiveProgress()
		if !active {
			break
		}
		statement, current := coordinator.CurrentStatement()
		if !current {
			break
		}
		if progress.CurrentStatementIndex != lastPrinted {
			fmt.Printf("%d/%d %s: %s\n", progress.CurrentStatementIndex+1, len(sequence.Statements),
				speakerLabel(game, suspectID, statement.Speaker), statement.Text)
			lastPrinted = progress.CurrentStatementIndex
		}

		if !statement.RequiresPresentation {
			if err = coordinator.AdvanceInformational(ctx); err != nil {
				return err
			}
			continue
		}

		if len(queue) == 0 {
			return errors.New("the --present list ran out mid-confrontation",
				slog.Int("statement", progress.CurrentStatementIndex+1))
		}
		evidenceID := queue[0]
		queue = queue[1:]
		result, err := coordinator.PresentEvidence(ctx, evidenceID)
		if err != nil {
			return errors.Wrap(err, "present evidence", slog.String("evidence_id", evidenceID))
		}
		fmt.Printf("  > %s\n", clueName(game, evidenceID))
		fmt.Printf("    %s\n", result.ResponseText)
	}

	resolution := coordinator.Resolution()
	if resolution == nil {
		return errors.New("the confrontation ended without a resolution")
	}

	fmt.Println()
	for _, beat := range accusation.NewPlayback(*resolution, 0).Beats() {
		if beat.Title != "" {
			fmt.Printf("-- %s\n", beat.Title)
		}
		fmt.Printf("%s\n\n", beat.Text)
	}

	state := coordinator.State(ctx)
	fmt.Printf("failed accusations: %d, attempts remaining: %d\n",
		state.FailedAccusations, state.AttemptsRemaining())
	return nil
}

var Watch = &cobra.Command{
	Use:     "watch [file]",
	GroupID: "case",
	Short:   "Re-validate a case file on every save",
	Long:    `Watches a case file and prints a fresh validation report whenever it changes.`,
	Args:    cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if err := watchCase(args[0]); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func watchCase(path string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "start watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the directory rather than the file: editors replace the file on save,
	// which silently drops a watch registered on the file itself.
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "watch directory", slog.String("path", path))
	}

	base := filepath.Base(path)
	report(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			// One save fans out into several events; let them settle and drain
			// the rest so the file validates once per save.
			time.Sleep(50 * time.Millisecond)
			drainEvents(watcher)
			report(path)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintln(os.Stderr, watchErr)
		}
	}
}

func drainEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-watcher.Events:
		default:
			return
		}
	}
}

func report(path string) {
	timestamp := time.Now().Format("15:04:05")
	if _, err := casefile.LoadFile(path); err != nil {
		var validationErr *casefile.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Printf("%s %s: %d violations\n", timestamp, path, len(validationErr.Violations))
			for _, violation := range validationErr.Violations {
				fmt.Printf("  %s\n", violation)
			}
			return
		}
		fmt.Printf("%s %s: %v\n", timestamp, path, err)
		return
	}
	fmt.Printf("%s %s: ok\n", timestamp, path)
}

func splitList(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func speakerLabel(game *casefile.Case, suspectID string, speaker casefile.Speaker) string {
	if speaker == casefile.SpeakerSuspect {
		return suspectName(game, suspectID)
	}
	return "You"
}

func suspectName(game *casefile.Case, id string) string {
	if suspect, ok := game.Suspect(id); ok {
		return suspect.Name
	}
	return id
}

func clueName(game *casefile.Case, id string) string {
	if clue, ok := game.Clue(id); ok {
		return clue.Name
	}
	return id
}
