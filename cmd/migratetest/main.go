package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/sqlite"
	"github.com/myrjola/culprit/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("CULPRIT_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "CULPRIT_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Count the rows in every gameplay table as a sanity check that the migrated schema
	// is queryable.
	tables := []string{"players", "sessions", "discovered_clues", "accusation_states"}
	for _, table := range tables {
		row := db.ReadWrite.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table)
		var count int
		if err = row.Scan(&count); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error counting rows",
				slog.String("table", table), errors.SlogError(err))
			os.Exit(1)
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "table count",
			slog.String("table", table), slog.Int("count", count))
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
