package casefile

// Requirement is what a statement demands from the player, normalized from the optional YAML
// fields into one of four shapes so that illegal combinations cannot reach the validator.
//
// The type is sealed: only the variants in this package implement it.
type Requirement interface {
	isRequirement()
	// Satisfies reports whether presenting the given evidence id meets the requirement.
	// Bonus evidence satisfies RequireAnyOfWithBonus.
	Satisfies(evidenceID string) bool
	// IsBonus reports whether the given evidence id is the bonus alternative rather than part of
	// the core acceptable set.
	IsBonus(evidenceID string) bool
}

// RequireNone marks an informational statement that advances without evidence.
type RequireNone struct{}

// RequireSingle demands exactly one evidence id.
type RequireSingle struct {
	Evidence string
}

// RequireAnyOf accepts any evidence id from a non-empty set.
type RequireAnyOf struct {
	Evidence []string
}

// RequireAnyOfWithBonus accepts any evidence id from a non-empty set, and additionally a bonus id
// that advances the statement with richer narrative text.
type RequireAnyOfWithBonus struct {
	Evidence []string
	Bonus    string
}

func (RequireNone) isRequirement()           {}
func (RequireSingle) isRequirement()         {}
func (RequireAnyOf) isRequirement()          {}
func (RequireAnyOfWithBonus) isRequirement() {}

func (RequireNone) Satisfies(string) bool {
	// Informational statements are trivially satisfied.
	return true
}

func (r RequireSingle) Satisfies(evidenceID string) bool {
	return evidenceID == r.Evidence
}

func (r RequireAnyOf) Satisfies(evidenceID string) bool {
	for _, id := range r.Evidence {
		if id == evidenceID {
			return true
		}
	}
	return false
}

func (r RequireAnyOfWithBonus) Satisfies(evidenceID string) bool {
	if evidenceID == r.Bonus {
		return true
	}
	for _, id := range r.Evidence {
		if id == evidenceID {
			return true
		}
	}
	return false
}

func (RequireNone) IsBonus(string) bool   { return false }
func (RequireSingle) IsBonus(string) bool { return false }
func (RequireAnyOf) IsBonus(string) bool  { return false }

func (r RequireAnyOfWithBonus) IsBonus(evidenceID string) bool {
	return evidenceID == r.Bonus
}

// Requirement normalizes the statement's evidence fields. Validation guarantees the fields are
// coherent, so the fallback for a presentation-requiring statement without evidence is RequireNone
// and is unreachable on a validated document.
func (s Statement) Requirement() Requirement {
	if !s.RequiresPresentation {
		return RequireNone{}
	}

	// The acceptable set is authoritative when configured; validation ensures it includes the
	// required id.
	evidence := s.AcceptableEvidence
	if len(evidence) == 0 && s.RequiredEvidence != "" {
		evidence = []string{s.RequiredEvidence}
	}
	switch {
	case len(evidence) == 0:
		return RequireNone{}
	case s.BonusEvidence != "":
		return RequireAnyOfWithBonus{Evidence: evidence, Bonus: s.BonusEvidence}
	case len(evidence) == 1:
		return RequireSingle{Evidence: evidence[0]}
	default:
		return RequireAnyOf{Evidence: evidence}
	}
}
