package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/culprit/internal/models"
	"github.com/myrjola/culprit/internal/repositories"
	"github.com/myrjola/culprit/internal/sqlite"
	"github.com/myrjola/culprit/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a migrated in-memory database. The cancel hook stops the optimizer
// goroutine started by NewDatabase.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		if closeErr := dbs.Close(); closeErr != nil {
			t.Fatal(closeErr)
		}
	})
	return dbs
}

// newTestPlayer persists a fresh player so rows referencing players pass their foreign
// key checks.
func newTestPlayer(t *testing.T, dbs *sqlite.Database) *models.Player {
	t.Helper()
	player, err := models.NewPlayer()
	require.NoError(t, err)
	players := repositories.NewPlayerRepository(dbs, testhelpers.NewLogger(io.Discard))
	require.NoError(t, players.Ensure(context.Background(), player))
	return player
}
