package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/models"
	"github.com/myrjola/culprit/internal/sqlite"
)

type ClueRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewClueRepository(dbs *sqlite.Database, logger *slog.Logger) *ClueRepository {
	return &ClueRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "ClueRepository")),
	}
}

// Discover writes the clue into the player's notebook. Examining the same spot twice is
// common, so a repeat discovery is not an error.
func (r *ClueRepository) Discover(ctx context.Context, playerID []byte, clueID string) error {
	stmt := `INSERT INTO discovered_clues (player_id, clue_id) VALUES (@player_id, @clue_id)
               ON CONFLICT (player_id, clue_id) DO NOTHING`
	_, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		sql.Named("player_id", playerID),
		sql.Named("clue_id", clueID))
	if err != nil {
		return errors.Wrap(err, "insert discovered clue", slog.String("clue_id", clueID))
	}
	return nil
}

// ListDiscovered returns the player's clues in the order they were found.
func (r *ClueRepository) ListDiscovered(ctx context.Context, playerID []byte) ([]models.DiscoveredClue, error) {
	var clues []models.DiscoveredClue
	stmt := `SELECT clue_id, discovered FROM discovered_clues WHERE player_id = ? ORDER BY discovered, clue_id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &clues, stmt, playerID); err != nil {
		return nil, errors.Wrap(err, "read discovered clues")
	}
	return clues, nil
}

// DiscoveredSet returns the player's clues as a lookup table keyed by clue id.
func (r *ClueRepository) DiscoveredSet(ctx context.Context, playerID []byte) (map[string]bool, error) {
	clues, err := r.ListDiscovered(ctx, playerID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(clues))
	for _, clue := range clues {
		set[clue.ClueID] = true
	}
	return set, nil
}

// Forget clears the player's notebook. Used when they start the game over.
func (r *ClueRepository) Forget(ctx context.Context, playerID []byte) error {
	stmt := `DELETE FROM discovered_clues WHERE player_id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, playerID); err != nil {
		return errors.Wrap(err, "delete discovered clues")
	}
	return nil
}

// ForPlayer binds the repository to one player so it can stand in as a clue tracker
// for the accusation engine.
func (r *ClueRepository) ForPlayer(playerID []byte) *PlayerClueTracker {
	return &PlayerClueTracker{repository: r, playerID: playerID}
}

// PlayerClueTracker answers discovery lookups for a single player.
type PlayerClueTracker struct {
	repository *ClueRepository
	playerID   []byte
}

var _ accusation.ClueTracker = (*PlayerClueTracker)(nil)

func (t *PlayerClueTracker) Discovered(ctx context.Context) (map[string]bool, error) {
	return t.repository.DiscoveredSet(ctx, t.playerID)
}
