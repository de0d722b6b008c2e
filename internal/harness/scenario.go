package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/combomirror/internal/combo"
)

// Scenario is a sequence of upstream actions with expectations about the
// client-side catalog and view.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Table and Key locate the catalog. Defaults: "static", "combos".
	Table string `yaml:"table,omitempty"`
	Key   string `yaml:"key,omitempty"`

	// Locale selects strings for localized text. Empty means keys are
	// returned unchanged.
	Strings []string `yaml:"strings,omitempty"`
	Locale  string   `yaml:"locale,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step performs exactly one action and then checks its expectations.
type Step struct {
	// Publish compiles a CUE catalog and publishes it.
	Publish string `yaml:"publish,omitempty"`

	// Raw publishes a literal value, converted from YAML. A zero node
	// (Kind 0) means the step has no raw action; "raw: null" is present.
	Raw yaml.Node `yaml:"raw,omitempty"`

	// Delete removes the catalog key.
	Delete bool `yaml:"delete,omitempty"`

	// Reload calls Catalog.Reload.
	Reload bool `yaml:"reload,omitempty"`

	// Filter applies a filter to the view.
	Filter *combo.FilterSpec `yaml:"filter,omitempty"`

	// ExpectIDs is the expected view after the step, in order.
	ExpectIDs []string `yaml:"expect_ids,omitempty"`

	// ExpectLoaded is the expected Catalog.Loaded after the step.
	ExpectLoaded *bool `yaml:"expect_loaded,omitempty"`

	// ExpectText maps combo id to its expected localized name.
	ExpectText map[string]string `yaml:"expect_text,omitempty"`
}

// Step kinds, also used as trace event types.
const (
	StepPublish = "publish"
	StepRaw     = "raw"
	StepDelete  = "delete"
	StepReload  = "reload"
	StepFilter  = "filter"
)

// Kind returns the single action the step performs, or an error when it
// names none or several.
func (s *Step) Kind() (string, error) {
	var kinds []string
	if s.Publish != "" {
		kinds = append(kinds, StepPublish)
	}
	if s.Raw.Kind != 0 {
		kinds = append(kinds, StepRaw)
	}
	if s.Delete {
		kinds = append(kinds, StepDelete)
	}
	if s.Reload {
		kinds = append(kinds, StepReload)
	}
	if s.Filter != nil {
		kinds = append(kinds, StepFilter)
	}
	switch len(kinds) {
	case 0:
		return "", errors.New("step has no action")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("step has several actions: %v", kinds)
	}
}

// LoadScenario reads and parses a scenario YAML file. Relative publish and
// strings paths are resolved against the file's directory.
//
// Unknown fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i := range scenario.Steps {
		if p := scenario.Steps[i].Publish; p != "" && !filepath.IsAbs(p) {
			scenario.Steps[i].Publish = filepath.Join(base, p)
		}
	}
	for i, p := range scenario.Strings {
		if !filepath.IsAbs(p) {
			scenario.Strings[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	for i := range s.Steps {
		if _, err := s.Steps[i].Kind(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}
