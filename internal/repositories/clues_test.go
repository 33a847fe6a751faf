package repositories_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/culprit/internal/repositories"
	"github.com/stretchr/testify/require"
)

func TestClueRepository_Discover(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewClueRepository(dbs, logger)
	player := newTestPlayer(t, dbs)
	ctx := context.Background()

	require.NoError(t, repo.Discover(ctx, player.ID, "ash-tray"))
	require.NoError(t, repo.Discover(ctx, player.ID, "burnt-letter"))
	require.NoError(t, repo.Discover(ctx, player.ID, "ash-tray"), "repeat discovery must not error")

	clues, err := repo.ListDiscovered(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, clues, 2, "repeat discovery must not duplicate the clue")
	require.Equal(t, "ash-tray", clues[0].ClueID)
	require.Equal(t, "burnt-letter", clues[1].ClueID)
	for _, clue := range clues {
		require.False(t, clue.Discovered.IsZero(), "discovery timestamp comes from the database")
	}

	set, err := repo.DiscoveredSet(ctx, player.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"ash-tray": true, "burnt-letter": true}, set)
}

func TestClueRepository_notebooksAreSeparate(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewClueRepository(dbs, logger)
	first := newTestPlayer(t, dbs)
	second := newTestPlayer(t, dbs)
	ctx := context.Background()

	require.NoError(t, repo.Discover(ctx, first.ID, "ash-tray"))

	clues, err := repo.ListDiscovered(ctx, second.ID)
	require.NoError(t, err)
	require.Empty(t, clues)

	tracker := repo.ForPlayer(second.ID)
	set, err := tracker.Discovered(ctx)
	require.NoError(t, err)
	require.Empty(t, set)
}

func TestClueRepository_Forget(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewClueRepository(dbs, logger)
	player := newTestPlayer(t, dbs)
	ctx := context.Background()

	require.NoError(t, repo.Discover(ctx, player.ID, "ash-tray"))
	require.NoError(t, repo.Discover(ctx, player.ID, "burnt-letter"))
	require.NoError(t, repo.Forget(ctx, player.ID))

	clues, err := repo.ListDiscovered(ctx, player.ID)
	require.NoError(t, err)
	require.Empty(t, clues)
}

func TestClueRepository_unknownPlayer(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewClueRepository(dbs, logger)

	err := repo.Discover(context.Background(), []byte("nonexistent"), "ash-tray")
	require.Error(t, err, "discovering for an unknown player violates the foreign key")
}
