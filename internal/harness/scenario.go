package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a raw trace and the
// expected pipeline output.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Trace holds the raw trace lines fed to the parser.
	Trace []string `yaml:"trace"`

	// Expect holds the expected pipeline output.
	Expect Expectation `yaml:"expect"`
}

// Expectation is the checked portion of a scenario.
type Expectation struct {
	// Batches is the expected schedule: one pid layer per entry, in
	// extraction order.
	Batches [][]int `yaml:"batches"`

	// Preconditions lists required pre-list entries, subset-matched.
	Preconditions []Precondition `yaml:"preconditions,omitempty"`

	// Facts lists the expected stat-derived observations, matched
	// exactly and sorted by path.
	Facts []FactSpec `yaml:"facts,omitempty"`
}

// Precondition names one operation and the entries its pre-list must
// contain. PID and Op select the first matching operation in that
// process's log.
type Precondition struct {
	PID      int          `yaml:"pid"`
	Op       string       `yaml:"op"`
	Requires []RequireRef `yaml:"requires"`
}

// RequireRef identifies a required pre-list entry by producing pid and
// operation name.
type RequireRef struct {
	PID int    `yaml:"pid"`
	Op  string `yaml:"op"`
}

// FactSpec is one expected file fact.
type FactSpec struct {
	Path string `yaml:"path"`
	Size int64  `yaml:"size"`
	Kind string `yaml:"kind"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Trace) == 0 {
		return fmt.Errorf("trace list is required and must be non-empty")
	}
	if s.Expect.Batches == nil {
		return fmt.Errorf("expect.batches is required")
	}
	for i, pre := range s.Expect.Preconditions {
		if pre.Op == "" || len(pre.Requires) == 0 {
			return fmt.Errorf("precondition %d needs op and requires", i)
		}
	}
	return nil
}
