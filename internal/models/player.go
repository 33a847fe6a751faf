package models

import (
	"github.com/myrjola/culprit/internal/errors"
	"github.com/myrjola/culprit/internal/random"
	"time"
)

// playerIDLength is the number of random bytes in a player id. The id is an opaque handle stored in the
// session cookie, so it carries no meaning beyond being unguessable.
const playerIDLength = 32

// Player is an anonymous participant. There is no account to register; a player springs into existence
// the first time their session touches the game.
type Player struct {
	ID      []byte    `db:"id"`
	Created time.Time `db:"created"`
}

// NewPlayer mints a player with a random id.
func NewPlayer() (*Player, error) {
	id, err := random.Bytes(playerIDLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate player id")
	}
	return &Player{
		ID:      id,
		Created: time.Now().UTC(),
	}, nil
}

// DiscoveredClue records that a player has written a clue into their notebook.
type DiscoveredClue struct {
	ClueID     string    `db:"clue_id"`
	Discovered time.Time `db:"discovered"`
}
