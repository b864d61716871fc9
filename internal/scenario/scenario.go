// Package scenario replays a scripted review headlessly: documents in,
// edits and confirmations applied, decision out.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"gopkg.in/yaml.v3"
)

// Edit sets one item's approved amount
type Edit struct {
	Item   int   `yaml:"item" validate:"gte=1"`
	Amount int64 `yaml:"amount"`
}

// Confirm selects the items to confirm: every item, or a list of ids
type Confirm struct {
	All bool
	IDs []int
}

// UnmarshalYAML accepts either the scalar "all" or a list of item ids
func (c *Confirm) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if strings.EqualFold(value.Value, "all") {
			c.All = true
			return nil
		}
		return fmt.Errorf("line %d: confirm must be \"all\" or a list of item ids", value.Line)
	case yaml.SequenceNode:
		return value.Decode(&c.IDs)
	default:
		return fmt.Errorf("line %d: confirm must be \"all\" or a list of item ids", value.Line)
	}
}

// MarshalYAML writes the form UnmarshalYAML reads
func (c Confirm) MarshalYAML() (interface{}, error) {
	if c.All {
		return "all", nil
	}
	return c.IDs, nil
}

// Scenario is one scripted review
type Scenario struct {
	Name      string           `yaml:"name" validate:"required"`
	Documents []model.Document `yaml:"documents" validate:"min=1,dive"`
	Edits     []Edit           `yaml:"edits" validate:"dive"`
	Confirm   Confirm          `yaml:"confirm"`
	Submit    bool             `yaml:"submit"`
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := intake.ValidateStruct(sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %s", intake.FormatValidationErrors(err))
	}
	return &sc, nil
}

// CheckOutputNames fails when two scenario files would write the same
// exports. Files that do not load are left for the replay to report.
func CheckOutputNames(paths []string) error {
	owners := make(map[string]string, len(paths))
	for _, path := range paths {
		sc, err := Load(path)
		if err != nil {
			continue
		}
		slug := sc.Slug()
		if prev, dup := owners[slug]; dup {
			return fmt.Errorf("%s and %s both write %s.*; give the scenarios distinct names", prev, path, slug)
		}
		owners[slug] = path
	}
	return nil
}

// Slug turns the scenario name into a file-name-safe string
func (sc *Scenario) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(sc.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "scenario"
	}
	return slug
}
