package repositories

import (
	"context"
	"log/slog"

	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/models"
	"github.com/myrjola/culprit/internal/sqlite"
)

type PlayerRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewPlayerRepository(dbs *sqlite.Database, logger *slog.Logger) *PlayerRepository {
	return &PlayerRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "PlayerRepository")),
	}
}

// Ensure inserts the player unless they already exist, so the session middleware can call it on
// every first touch without caring which it is.
func (r *PlayerRepository) Ensure(ctx context.Context, player *models.Player) error {
	stmt := `INSERT INTO players (id) VALUES (?) ON CONFLICT (id) DO NOTHING`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, player.ID); err != nil {
		return errors.Wrap(err, "insert player")
	}
	return nil
}

func (r *PlayerRepository) Get(ctx context.Context, id []byte) (*models.Player, error) {
	var player models.Player
	stmt := `SELECT id, created FROM players WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &player, stmt, id); err != nil {
		return nil, errors.Wrap(err, "read player")
	}
	return &player, nil
}

func (r *PlayerRepository) Exists(ctx context.Context, id []byte) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS (SELECT 1 FROM players WHERE id = ?)`
	if err := r.dbs.ReadOnly.GetContext(ctx, &exists, stmt, id); err != nil {
		return false, errors.Wrap(err, "check player")
	}
	return exists, nil
}
