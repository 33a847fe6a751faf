package casefile

import (
	"github.com/myrjola/culprit/internal/errors"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"

	_ "embed"
)

//go:embed case.yaml
var defaultCase []byte

// Decode unmarshals a case document without checking it. Most callers want [Parse]; the split
// exists so the server can tell a document that will not even decode from one whose defects
// are confined to the accusation section.
func Decode(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode case document")
	}
	return &c, nil
}

// Parse decodes and validates a case document. A document that decodes but fails validation
// returns a *ValidationError listing every violation.
func Parse(data []byte) (*Case, error) {
	c, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err = Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Source returns the raw case document: the file at path when one is given, the embedded
// default otherwise.
func Source(path string) ([]byte, error) {
	if path == "" {
		return defaultCase, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // The path comes from the operator, not a request.
	if err != nil {
		return nil, errors.Wrap(err, "read case document", slog.String("path", path))
	}
	return data, nil
}

// LoadFile reads and parses the case document at path.
func LoadFile(path string) (*Case, error) {
	data, err := Source(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse case document", slog.String("path", path))
	}
	return c, nil
}

// Default parses the embedded case shipped with the game.
func Default() (*Case, error) {
	c, err := Parse(defaultCase)
	if err != nil {
		return nil, errors.Wrap(err, "parse embedded case document")
	}
	return c, nil
}
