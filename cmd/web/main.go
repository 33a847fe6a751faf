package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/myrjola/culprit/internal/casefile"
	"github.com/myrjola/culprit/internal/envstruct"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/logging"
	"github.com/myrjola/culprit/internal/pprofserver"
	"github.com/myrjola/culprit/internal/repositories"
	"github.com/myrjola/culprit/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	game           *casefile.Case
	htmx           *htmx.HTMX
	sessionManager *scs.SessionManager
	players        *repositories.PlayerRepository
	clues          *repositories.ClueRepository
	states         *repositories.AccusationStateRepository

	// playthroughs is nil when the case document's accusation section failed validation.
	// The investigation stays playable; every accusation entry point checks
	// accusationAvailable before touching it.
	playthroughs *playthroughRegistry
}

// accusationAvailable reports whether the accusation feature is live for this process.
func (app *application) accusationAvailable() bool {
	return app.playthroughs != nil
}

type config struct {
	Addr      string `env:"CULPRIT_ADDR" envDefault:"localhost:4000"`
	PprofPort string `env:"CULPRIT_PPROF_PORT" envDefault:""`
	SQLiteURL string `env:"CULPRIT_SQLITE_URL" envDefault:"./culprit.sqlite"`
	// CasePath points at a case document on disk. Empty means the embedded case.
	CasePath string `env:"CULPRIT_CASE_PATH" envDefault:""`
	// FinaleBeatSeconds is how long the finale lingers on a beat before moving on by itself.
	FinaleBeatSeconds int `env:"CULPRIT_FINALE_BEAT_SECONDS" envDefault:"8"`
}

const (
	sessionLifetime = 7 * 24 * time.Hour
	cleanupInterval = 24 * time.Hour
)

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))

	// A missing .env file is fine, any other problem with it is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server exited", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	game, accusationBroken, err := loadCase(ctx, logger, cfg.CasePath)
	if err != nil {
		return err
	}

	if cfg.PprofPort != "" {
		pprofserver.Launch(ctx, cfg.PprofPort, logger)
	}

	dbs, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SQLiteURL))
	}
	defer func() {
		if closeErr := dbs.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, cleanupInterval)
	sessionManager.Lifetime = sessionLifetime

	app := application{
		logger:         logger,
		game:           game,
		htmx:           htmx.New(),
		sessionManager: sessionManager,
		players:        repositories.NewPlayerRepository(dbs, logger),
		clues:          repositories.NewClueRepository(dbs, logger),
		states:         repositories.NewAccusationStateRepository(dbs, logger),
		playthroughs:   nil,
	}
	if !accusationBroken {
		app.playthroughs = newPlaythroughRegistry(ctx, logger, game, app.clues, app.states,
			time.Duration(cfg.FinaleBeatSeconds)*time.Second)
	}

	return app.serve(ctx, cfg.Addr)
}

// loadCase reads, decodes, and validates the case document. Violations confined to the
// accusation section disable the accusation feature but keep the investigation playable,
// which is what the second return value reports. Anything else is fatal.
func loadCase(ctx context.Context, logger *slog.Logger, path string) (*casefile.Case, bool, error) {
	source, err := casefile.Source(path)
	if err != nil {
		return nil, false, err
	}
	game, err := casefile.Decode(source)
	if err != nil {
		return nil, false, err
	}
	if err = casefile.Validate(game); err != nil {
		var validationErr *casefile.ValidationError
		if !errors.As(err, &validationErr) || !validationErr.AccusationOnly() {
			return nil, false, errors.Wrap(err, "validate case document")
		}
		logger.LogAttrs(ctx, slog.LevelError,
			"accusation section failed validation, running without the accusation feature",
			errors.SlogError(err))
		return game, true, nil
	}
	return game, false, nil
}
