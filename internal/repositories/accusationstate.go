package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/culprit/internal/accusation"
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/sqlite"
)

// AccusationStateRepository persists each player's accusation record as a single JSON
// document. The document is replaced wholesale on every save so a crash can never leave
// a half-updated record behind.
type AccusationStateRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewAccusationStateRepository(dbs *sqlite.Database, logger *slog.Logger) *AccusationStateRepository {
	return &AccusationStateRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "AccusationStateRepository")),
	}
}

// Get reads the player's accusation state. The second return value reports whether a
// record existed; a missing record is not an error.
func (r *AccusationStateRepository) Get(ctx context.Context, playerID []byte) (accusation.State, bool, error) {
	var document string
	stmt := `SELECT state FROM accusation_states WHERE player_id = ?`
	err := r.dbs.ReadOnly.GetContext(ctx, &document, stmt, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return accusation.State{}, false, nil
	}
	if err != nil {
		return accusation.State{}, false, errors.Wrap(err, "read accusation state")
	}
	var state accusation.State
	if err = json.Unmarshal([]byte(document), &state); err != nil {
		return accusation.State{}, false, errors.Wrap(err, "decode accusation state")
	}
	return state, true, nil
}

// Save replaces the player's accusation state with the given one.
func (r *AccusationStateRepository) Save(ctx context.Context, playerID []byte, state accusation.State) error {
	document, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode accusation state")
	}
	stmt := `INSERT INTO accusation_states (player_id, state) VALUES (@player_id, @state)
               ON CONFLICT (player_id) DO UPDATE SET state = excluded.state, updated = CURRENT_TIMESTAMP`
	_, err = r.dbs.ReadWrite.ExecContext(ctx, stmt,
		sql.Named("player_id", playerID),
		sql.Named("state", string(document)))
	if err != nil {
		return errors.Wrap(err, "upsert accusation state")
	}
	return nil
}

// Clear removes the player's accusation state.
func (r *AccusationStateRepository) Clear(ctx context.Context, playerID []byte) error {
	stmt := `DELETE FROM accusation_states WHERE player_id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, playerID); err != nil {
		return errors.Wrap(err, "delete accusation state")
	}
	return nil
}

// ForPlayer binds the repository to one player so it can back the accusation engine's
// store.
func (r *AccusationStateRepository) ForPlayer(playerID []byte) *PlayerAccusationStore {
	return &PlayerAccusationStore{repository: r, playerID: playerID}
}

// PlayerAccusationStore loads and saves the accusation state of a single player.
type PlayerAccusationStore struct {
	repository *AccusationStateRepository
	playerID   []byte
}

var _ accusation.StateStore = (*PlayerAccusationStore)(nil)

func (s *PlayerAccusationStore) Load(ctx context.Context) (accusation.State, bool, error) {
	return s.repository.Get(ctx, s.playerID)
}

func (s *PlayerAccusationStore) Save(ctx context.Context, state accusation.State) error {
	return s.repository.Save(ctx, s.playerID, state)
}

func (s *PlayerAccusationStore) Clear(ctx context.Context) error {
	return s.repository.Clear(ctx, s.playerID)
}
