package repositories_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/culprit/internal/models"
	"github.com/myrjola/culprit/internal/repositories"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewPlayerRepository(dbs, logger)
	ctx := context.Background()

	player, err := models.NewPlayer()
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, player.ID)
	require.NoError(t, err)
	require.False(t, exists, "player should not exist before Ensure")

	require.NoError(t, repo.Ensure(ctx, player))
	require.NoError(t, repo.Ensure(ctx, player), "Ensure must tolerate repeats")

	exists, err = repo.Exists(ctx, player.ID)
	require.NoError(t, err)
	require.True(t, exists)

	fetched, err := repo.Get(ctx, player.ID)
	require.NoError(t, err)
	require.Equal(t, player.ID, fetched.ID)
	require.False(t, fetched.Created.IsZero(), "created timestamp comes from the database")
}

func TestPlayerRepository_GetMissing(t *testing.T) {
	dbs := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewPlayerRepository(dbs, logger)

	_, err := repo.Get(context.Background(), []byte("nonexistent"))
	require.Error(t, err)
}
