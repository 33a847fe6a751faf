package casefile

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/myrjola/culprit/internal/errors"
	"strings"
)

// caseValidate is the validator instance for case documents.
var caseValidate = validator.New(validator.WithRequiredStructEnabled())

// Violation is a single defect in a case document.
type Violation struct {
	// Path locates the defect, e.g. "accusation.confrontations[emma].statements[2]".
	Path    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidationError reports every defect found in a case document. Validation never stops at the
// first problem so that authors can fix a document in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, fmt.Sprintf("case document has %d violations", len(e.Violations)))
	for _, violation := range e.Violations {
		lines = append(lines, violation.String())
	}
	return strings.Join(lines, "\n")
}

// AccusationOnly reports whether every violation sits under the accusation section. Such a
// document still carries a playable investigation, so a server may run it with the accusation
// feature switched off instead of refusing to start.
func (e *ValidationError) AccusationOnly() bool {
	if len(e.Violations) == 0 {
		return false
	}
	for _, violation := range e.Violations {
		// Shape violations use the Go field namespace, the consistency checks use the
		// document keys, hence the case fold.
		path := strings.ToLower(violation.Path)
		if path != "accusation" && !strings.HasPrefix(path, "accusation.") {
			return false
		}
	}
	return true
}

// Validate checks the document shape and its internal consistency. It returns a *ValidationError
// listing every violation, or nil when the document is sound.
func Validate(c *Case) error {
	var violations []Violation

	violations = append(violations, shapeViolations(c)...)
	violations = append(violations, uniqueIDViolations(c)...)
	violations = append(violations, clueReferenceViolations(c)...)
	violations = append(violations, accusationViolations(c)...)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// shapeViolations runs the struct-tag rules. go-playground/validator already collects every field
// error instead of stopping early.
func shapeViolations(c *Case) []Violation {
	err := caseValidate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []Violation{{Path: "case", Message: err.Error()}}
	}
	violations := make([]Violation, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		message := fmt.Sprintf("fails rule %q", fieldError.Tag())
		if fieldError.Param() != "" {
			message = fmt.Sprintf("fails rule %q (%s)", fieldError.Tag(), fieldError.Param())
		}
		violations = append(violations, Violation{
			// Strip the leading "Case." from the namespace.
			Path:    strings.TrimPrefix(fieldError.Namespace(), "Case."),
			Message: message,
		})
	}
	return violations
}

func uniqueIDViolations(c *Case) []Violation {
	var violations []Violation

	seenClues := make(map[string]bool)
	for i, clue := range c.Clues {
		if seenClues[clue.ID] {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("clues[%d]", i),
				Message: fmt.Sprintf("duplicate clue id %q", clue.ID),
			})
		}
		seenClues[clue.ID] = true
	}

	seenScenes := make(map[string]bool)
	for i, scene := range c.Scenes {
		if seenScenes[scene.ID] {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("scenes[%d]", i),
				Message: fmt.Sprintf("duplicate scene id %q", scene.ID),
			})
		}
		seenScenes[scene.ID] = true

		seenSpots := make(map[string]bool)
		for j, spot := range scene.Spots {
			if seenSpots[spot.ID] {
				violations = append(violations, Violation{
					Path:    fmt.Sprintf("scenes[%d].spots[%d]", i, j),
					Message: fmt.Sprintf("duplicate spot id %q", spot.ID),
				})
			}
			seenSpots[spot.ID] = true
		}
	}

	seenSuspects := make(map[string]bool)
	for i, suspect := range c.Suspects {
		if seenSuspects[suspect.ID] {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("suspects[%d]", i),
				Message: fmt.Sprintf("duplicate suspect id %q", suspect.ID),
			})
		}
		seenSuspects[suspect.ID] = true
	}

	for suspectID, confrontation := range c.Accusation.Confrontations {
		seenStatements := make(map[string]bool)
		for i, statement := range confrontation.Statements {
			if seenStatements[statement.ID] {
				violations = append(violations, Violation{
					Path:    statementPath(suspectID, i),
					Message: fmt.Sprintf("duplicate statement id %q", statement.ID),
				})
			}
			seenStatements[statement.ID] = true
		}
	}

	return violations
}

func clueReferenceViolations(c *Case) []Violation {
	var violations []Violation

	catalogue := make(map[string]bool, len(c.Clues))
	for _, clue := range c.Clues {
		catalogue[clue.ID] = true
	}

	for i, scene := range c.Scenes {
		for j, spot := range scene.Spots {
			if spot.Clue != "" && !catalogue[spot.Clue] {
				violations = append(violations, Violation{
					Path:    fmt.Sprintf("scenes[%d].spots[%d]", i, j),
					Message: fmt.Sprintf("clue %q is not in the clue catalogue", spot.Clue),
				})
			}
		}
	}

	for suspectID, confrontation := range c.Accusation.Confrontations {
		for i, statement := range confrontation.Statements {
			path := statementPath(suspectID, i)
			if statement.RequiredEvidence != "" && !catalogue[statement.RequiredEvidence] {
				violations = append(violations, Violation{
					Path:    path,
					Message: fmt.Sprintf("required evidence %q is not in the clue catalogue", statement.RequiredEvidence),
				})
			}
			for _, id := range statement.AcceptableEvidence {
				if !catalogue[id] {
					violations = append(violations, Violation{
						Path:    path,
						Message: fmt.Sprintf("acceptable evidence %q is not in the clue catalogue", id),
					})
				}
			}
			if statement.BonusEvidence != "" && !catalogue[statement.BonusEvidence] {
				violations = append(violations, Violation{
					Path:    path,
					Message: fmt.Sprintf("bonus evidence %q is not in the clue catalogue", statement.BonusEvidence),
				})
			}
		}
	}

	return violations
}

//nolint:gocognit // The checks are independent appends; splitting them would obscure the full rule list.
func accusationViolations(c *Case) []Violation {
	var violations []Violation

	suspects := make(map[string]bool, len(c.Suspects))
	for _, suspect := range c.Suspects {
		suspects[suspect.ID] = true
	}

	accusation := c.Accusation
	if accusation.Guilty != "" && !suspects[accusation.Guilty] {
		violations = append(violations, Violation{
			Path:    "accusation.guilty",
			Message: fmt.Sprintf("guilty party %q is not a suspect", accusation.Guilty),
		})
	}
	if accusation.Guilty != "" {
		if _, ok := accusation.Confrontations[accusation.Guilty]; !ok {
			violations = append(violations, Violation{
				Path:    "accusation.confrontations",
				Message: fmt.Sprintf("guilty party %q has no confrontation sequence", accusation.Guilty),
			})
		}
		if _, ok := accusation.Endings.Victory.Reactions[accusation.Guilty]; !ok {
			violations = append(violations, Violation{
				Path:    "accusation.endings.victory.reactions",
				Message: fmt.Sprintf("guilty party %q has no victory reaction", accusation.Guilty),
			})
		}
	}
	if accusation.MinimumClues > len(c.Clues) {
		violations = append(violations, Violation{
			Path: "accusation.minimum_clues",
			Message: fmt.Sprintf("requires %d clues but the catalogue only has %d",
				accusation.MinimumClues, len(c.Clues)),
		})
	}
	for suspectID := range accusation.Endings.Victory.Reactions {
		if !suspects[suspectID] {
			violations = append(violations, Violation{
				Path:    "accusation.endings.victory.reactions",
				Message: fmt.Sprintf("reaction for %q, which is not a suspect", suspectID),
			})
		}
	}

	for suspectID, confrontation := range accusation.Confrontations {
		if !suspects[suspectID] {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("accusation.confrontations[%s]", suspectID),
				Message: fmt.Sprintf("confrontation for %q, which is not a suspect", suspectID),
			})
		}

		requiresPresentation := 0
		for i, statement := range confrontation.Statements {
			if statement.RequiresPresentation {
				requiresPresentation++
			}
			violations = append(violations, statementViolations(suspectID, i, statement)...)
		}
		if len(confrontation.Statements) > 0 && requiresPresentation == 0 {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("accusation.confrontations[%s].statements", suspectID),
				Message: "no statement requires presentation",
			})
		}
	}

	// An accusation against the guilty party must be winnable with discoverable clues. Innocent
	// sequences may reference clues no spot grants; the guilty one may not.
	if guilty, ok := accusation.Confrontations[accusation.Guilty]; ok {
		discoverable := c.DiscoverableClues()
		for i, statement := range guilty.Statements {
			if !statement.RequiresPresentation {
				continue
			}
			requirement := statement.Requirement()
			winnable := false
			for clueID := range discoverable {
				if requirement.Satisfies(clueID) && !requirement.IsBonus(clueID) {
					winnable = true
					break
				}
			}
			if !winnable {
				violations = append(violations, Violation{
					Path:    statementPath(accusation.Guilty, i),
					Message: "no discoverable clue satisfies the statement, the confrontation cannot be won",
				})
			}
		}
	}

	return violations
}

func statementViolations(suspectID string, index int, statement Statement) []Violation {
	var violations []Violation
	path := statementPath(suspectID, index)

	if !statement.RequiresPresentation {
		if statement.RequiredEvidence != "" || len(statement.AcceptableEvidence) > 0 || statement.BonusEvidence != "" {
			violations = append(violations, Violation{
				Path:    path,
				Message: "informational statement must not carry evidence fields",
			})
		}
		return violations
	}

	if statement.RequiredEvidence == "" && len(statement.AcceptableEvidence) == 0 {
		violations = append(violations, Violation{
			Path:    path,
			Message: "presentation-requiring statement needs required_evidence or acceptable_evidence",
		})
	}
	if statement.CorrectResponse == "" {
		violations = append(violations, Violation{
			Path:    path,
			Message: "presentation-requiring statement needs a correct_response",
		})
	}
	if statement.IncorrectResponse == "" {
		violations = append(violations, Violation{
			Path:    path,
			Message: "presentation-requiring statement needs an incorrect_response",
		})
	}
	if statement.RequiredEvidence != "" && len(statement.AcceptableEvidence) > 0 {
		found := false
		for _, id := range statement.AcceptableEvidence {
			if id == statement.RequiredEvidence {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, Violation{
				Path:    path,
				Message: fmt.Sprintf("acceptable_evidence must include required_evidence %q", statement.RequiredEvidence),
			})
		}
	}
	if statement.BonusEvidence != "" {
		requirement := statement.Requirement()
		if bonused, ok := requirement.(RequireAnyOfWithBonus); ok {
			for _, id := range bonused.Evidence {
				if id == statement.BonusEvidence {
					violations = append(violations, Violation{
						Path:    path,
						Message: fmt.Sprintf("bonus evidence %q is already acceptable evidence", statement.BonusEvidence),
					})
					break
				}
			}
		}
		if statement.BonusResponse == "" {
			violations = append(violations, Violation{
				Path:    path,
				Message: "bonus_evidence needs a bonus_response",
			})
		}
	}

	return violations
}

func statementPath(suspectID string, index int) string {
	return fmt.Sprintf("accusation.confrontations[%s].statements[%d]", suspectID, index)
}
