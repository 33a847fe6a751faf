// Package casefile defines the case document that carries all game content: the clue catalogue,
// the investigation scenes, the suspects, and the accusation configuration with its confrontation
// sequences and endings. The document is authored in YAML and validated exactly once at load time
// with a complete violation list.
package casefile

// Case is the root of the case document.
type Case struct {
	Title      string     `yaml:"title" validate:"required"`
	Tagline    string     `yaml:"tagline"`
	Clues      []Clue     `yaml:"clues" validate:"min=1,dive"`
	Scenes     []Scene    `yaml:"scenes" validate:"min=1,dive"`
	Suspects   []Suspect  `yaml:"suspects" validate:"min=1,dive"`
	Accusation Accusation `yaml:"accusation"`
}

// Clue is an entry in the clue catalogue. Its id is the evidence identifier used throughout
// the accusation configuration.
type Clue struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description" validate:"required"`
}

// Scene is an investigable location with spots the player can examine.
type Scene struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Spots       []Spot `yaml:"spots" validate:"min=1,dive"`
}

// Spot is a point of interest within a scene. Examining it shows its text and, when Clue is set,
// discovers that clue.
type Spot struct {
	ID     string `yaml:"id" validate:"required"`
	Prompt string `yaml:"prompt" validate:"required"`
	Text   string `yaml:"text" validate:"required"`
	Clue   string `yaml:"clue"`
}

// Suspect is a person the player can eventually accuse.
type Suspect struct {
	ID       string `yaml:"id" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Role     string `yaml:"role"`
	Portrait string `yaml:"portrait"`
}

// Accusation configures the end-game: who is guilty, how much investigation gates the accusation,
// the per-suspect confrontation sequences, and the ending texts.
type Accusation struct {
	Guilty               string                   `yaml:"guilty" validate:"required"`
	MinimumClues         int                      `yaml:"minimum_clues" validate:"min=1"`
	AllowPartialEvidence bool                     `yaml:"allow_partial_evidence"`
	Confrontations       map[string]Confrontation `yaml:"confrontations" validate:"min=1,dive"`
	Endings              Endings                  `yaml:"endings"`
}

// Confrontation is the ordered statement sequence played when a suspect is accused.
type Confrontation struct {
	Motive     string      `yaml:"motive" validate:"required"`
	Confession string      `yaml:"confession" validate:"required"`
	Statements []Statement `yaml:"statements" validate:"min=1,dive"`
}

// Speaker tells the presentation layer whose portrait a statement belongs to.
type Speaker string

const (
	SpeakerSuspect Speaker = "suspect"
	SpeakerAccuser Speaker = "accuser"
)

// Statement is a single scripted claim within a confrontation. When RequiresPresentation is set,
// the player must contradict it with evidence; otherwise it is informational narration that
// advances on its own.
//
// The optional evidence fields are constrained by validation so that Requirement is total:
// informational statements carry no evidence fields, presentation-requiring statements carry a
// required or acceptable set, and AcceptableEvidence includes RequiredEvidence when both exist.
type Statement struct {
	ID                   string   `yaml:"id" validate:"required"`
	Speaker              Speaker  `yaml:"speaker" validate:"required,oneof=suspect accuser"`
	Text                 string   `yaml:"text" validate:"required"`
	RequiresPresentation bool     `yaml:"requires_presentation"`
	RequiredEvidence     string   `yaml:"required_evidence"`
	AcceptableEvidence   []string `yaml:"acceptable_evidence"`
	BonusEvidence        string   `yaml:"bonus_evidence"`
	CorrectResponse      string   `yaml:"correct_response"`
	IncorrectResponse    string   `yaml:"incorrect_response"`
	BonusResponse        string   `yaml:"bonus_response"`
}

// Endings carries the narrative texts for both outcomes.
type Endings struct {
	Victory VictoryEnding `yaml:"victory"`
	Bad     BadEnding     `yaml:"bad"`
}

// VictoryEnding is shown when the guilty party's confrontation succeeds. Reactions maps suspect id
// to the closing reaction line; it must cover the guilty party.
type VictoryEnding struct {
	Reactions           map[string]string `yaml:"reactions" validate:"min=1"`
	BonusAcknowledgment string            `yaml:"bonus_acknowledgment"`
}

// BadEnding is shown when the playthrough runs out of accusation attempts.
type BadEnding struct {
	DespairSpeech      string `yaml:"despair_speech" validate:"required"`
	FailureExplanation string `yaml:"failure_explanation" validate:"required"`
	RevealCulprit      bool   `yaml:"reveal_culprit"`
}

// Suspect returns the suspect with the given id.
func (c *Case) Suspect(id string) (Suspect, bool) {
	for _, suspect := range c.Suspects {
		if suspect.ID == id {
			return suspect, true
		}
	}
	return Suspect{}, false
}

// Clue returns the catalogue entry with the given id.
func (c *Case) Clue(id string) (Clue, bool) {
	for _, clue := range c.Clues {
		if clue.ID == id {
			return clue, true
		}
	}
	return Clue{}, false
}

// Scene returns the scene with the given id.
func (c *Case) Scene(id string) (Scene, bool) {
	for _, scene := range c.Scenes {
		if scene.ID == id {
			return scene, true
		}
	}
	return Scene{}, false
}

// Spot returns the spot with the given id.
func (s Scene) Spot(id string) (Spot, bool) {
	for _, spot := range s.Spots {
		if spot.ID == id {
			return spot, true
		}
	}
	return Spot{}, false
}

// Confrontation returns the confrontation sequence configured for the suspect.
func (a Accusation) Confrontation(suspectID string) (Confrontation, bool) {
	confrontation, ok := a.Confrontations[suspectID]
	return confrontation, ok
}

// DiscoverableClues returns the ids of clues granted by at least one scene spot.
func (c *Case) DiscoverableClues() map[string]bool {
	discoverable := make(map[string]bool)
	for _, scene := range c.Scenes {
		for _, spot := range scene.Spots {
			if spot.Clue != "" {
				discoverable[spot.Clue] = true
			}
		}
	}
	return discoverable
}
