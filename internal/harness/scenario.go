package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aiden/internal/build"
)

// DefaultBuildID is used when a scenario names no build_id.
const DefaultBuildID = "test-build-default"

// Scenario defines one scripted build.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// BuildID fixes the build ID for deterministic traces.
	BuildID string `yaml:"build_id,omitempty"`

	// Intent and Plan seed the transformation.
	Intent string `yaml:"intent,omitempty"`
	Plan   string `yaml:"plan,omitempty"`

	// Interpreter runs the candidates (default [sh]); Suffix names the
	// scratch file (default .sh).
	Interpreter []string `yaml:"interpreter,omitempty"`
	Suffix      string   `yaml:"suffix,omitempty"`

	MaxIterations    int    `yaml:"max_iterations,omitempty"`
	IterationTimeout string `yaml:"iteration_timeout,omitempty"`

	Datasets []DatasetFixture `yaml:"datasets,omitempty"`
	Inputs   []string         `yaml:"inputs,omitempty"`
	Output   string           `yaml:"output,omitempty"`

	// Checks names acceptance checks: output_exists, output_schema.
	Checks []string `yaml:"checks,omitempty"`

	// Candidates are returned by the generator, one per iteration.
	Candidates []string `yaml:"candidates"`

	Expect *ExpectClause `yaml:"expect,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	iterationTimeout time.Duration
}

// DatasetFixture is a dataset written into the scenario's working directory.
// Content is written to <name>.<format> when set; datasets without content
// are outputs the candidate is expected to write.
type DatasetFixture struct {
	Name    string            `yaml:"name"`
	Format  string            `yaml:"format"`
	Fields  map[string]string `yaml:"fields,omitempty"`
	Content string            `yaml:"content,omitempty"`
}

// FileName is where the fixture lives relative to the working directory.
func (d DatasetFixture) FileName() string {
	return d.Name + "." + d.Format
}

// ExpectClause specifies the expected build outcome.
type ExpectClause struct {
	State build.State `yaml:"state"`

	// Iterations is the expected number of iteration records; 0 skips the check.
	Iterations int `yaml:"iterations,omitempty"`
}

// Assertion validates the trace or the journal.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Event, Iteration, Condition, Accepted and ReasonContains select trace
	// events (trace_contains, trace_count). Unset fields match anything.
	Event          string `yaml:"event,omitempty"`
	Iteration      *int   `yaml:"iteration,omitempty"`
	Condition      string `yaml:"condition,omitempty"`
	Accepted       *bool  `yaml:"accepted,omitempty"`
	ReasonContains string `yaml:"reason_contains,omitempty"`

	// Events is the expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Table, Where and Expect select and check one journal row (final_state).
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Check names accepted in Scenario.Checks.
const (
	CheckOutputExists = "output_exists"
	CheckOutputSchema = "output_schema"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", filepath.Base(path), err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and fills defaults.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Candidates) == 0 {
		return fmt.Errorf("candidates list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 && s.Expect == nil {
		return fmt.Errorf("expect or assertions is required")
	}

	if s.BuildID == "" {
		s.BuildID = DefaultBuildID
	}
	if s.Intent == "" {
		s.Intent = s.Description
	}
	if len(s.Interpreter) == 0 {
		s.Interpreter = []string{"sh"}
		if s.Suffix == "" {
			s.Suffix = ".sh"
		}
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = len(s.Candidates)
	}
	s.iterationTimeout = 10 * time.Second
	if s.IterationTimeout != "" {
		d, err := time.ParseDuration(s.IterationTimeout)
		if err != nil {
			return fmt.Errorf("iteration_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("iteration_timeout must be positive")
		}
		s.iterationTimeout = d
	}

	names := make(map[string]bool, len(s.Datasets))
	for i, d := range s.Datasets {
		if d.Name == "" {
			return fmt.Errorf("datasets[%d]: name is required", i)
		}
		if d.Format == "" {
			return fmt.Errorf("datasets[%d]: format is required", i)
		}
		names[d.Name] = true
	}
	for _, in := range s.Inputs {
		if !names[in] {
			return fmt.Errorf("input %s is not a declared dataset", in)
		}
	}
	if s.Output != "" && !names[s.Output] {
		return fmt.Errorf("output %s is not a declared dataset", s.Output)
	}

	for i, c := range s.Checks {
		if c != CheckOutputExists && c != CheckOutputSchema {
			return fmt.Errorf("checks[%d]: unknown check %q", i, c)
		}
	}

	if s.Expect != nil && s.Expect.State == "" {
		return fmt.Errorf("expect: state is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
