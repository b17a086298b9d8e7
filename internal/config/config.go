package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/environment"
)

// Defaults applied by Load.
const (
	DefaultStorePath   = "aiden.db"
	DefaultInterpreter = "python3"
	DefaultSuffix      = ".py"
)

// ErrInvalid is matched by ValidationError.
var ErrInvalid = errors.New("invalid transformation config")

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// IsValidationError returns true if err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Config is a decoded transformation file.
type Config struct {
	ID          string             `yaml:"id" hcl:"id,optional"`
	Intent      string             `yaml:"intent" hcl:"intent"`
	Plan        string             `yaml:"plan" hcl:"plan,optional"`
	Inputs      []string           `yaml:"inputs" hcl:"inputs,optional"`
	Output      string             `yaml:"output" hcl:"output,optional"`
	Store       string             `yaml:"store" hcl:"store,optional"`
	Environment *EnvironmentConfig `yaml:"environment" hcl:"environment,block"`
	Providers   *Providers         `yaml:"providers" hcl:"providers,block"`
	Datasets    []DatasetConfig    `yaml:"datasets" hcl:"dataset,block"`
	Build       *BuildConfig       `yaml:"build" hcl:"build,block"`
	Executor    *ExecutorConfig    `yaml:"executor" hcl:"executor,block"`
	Generator   *GeneratorConfig   `yaml:"generator" hcl:"generator,block"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// EnvironmentConfig selects where candidates run.
type EnvironmentConfig struct {
	Type    string `yaml:"type" hcl:"type,optional"`
	URL     string `yaml:"url" hcl:"url,optional"`
	Workdir string `yaml:"workdir" hcl:"workdir,optional"`
}

// DatasetConfig declares one dataset.
type DatasetConfig struct {
	Name string `yaml:"name" hcl:"name,label"`

	// Kind is "file" (default) or "postgresql".
	Kind   string `yaml:"kind" hcl:"kind,optional"`
	Path   string `yaml:"path" hcl:"path,optional"`
	Format string `yaml:"format" hcl:"format,optional"`

	ConnectionString string `yaml:"connection_string" hcl:"connection_string,optional"`
	Table            string `yaml:"table" hcl:"table,optional"`

	// Schema is the PostgreSQL schema (default public).
	Schema string `yaml:"schema" hcl:"schema,optional"`

	// Fields maps field names to type expressions.
	Fields map[string]string `yaml:"fields" hcl:"fields,optional"`
}

// BuildConfig bounds the build loop. Durations use time.ParseDuration syntax.
type BuildConfig struct {
	MaxIterations    int    `yaml:"max_iterations" hcl:"max_iterations,optional"`
	IterationTimeout string `yaml:"iteration_timeout" hcl:"iteration_timeout,optional"`
	MaxDuration      string `yaml:"max_duration" hcl:"max_duration,optional"`
	Checks           bool   `yaml:"checks" hcl:"checks,optional"`

	iterationTimeout time.Duration
	maxDuration      time.Duration
}

// ExecutorConfig selects the interpreter for candidate code.
type ExecutorConfig struct {
	Interpreter []string `yaml:"interpreter" hcl:"interpreter,optional"`
	Suffix      string   `yaml:"suffix" hcl:"suffix,optional"`
}

// GeneratorConfig configures the external generator command.
type GeneratorConfig struct {
	Command []string `yaml:"command" hcl:"command,optional"`
	Timeout string   `yaml:"timeout" hcl:"timeout,optional"`

	timeout time.Duration
}

// Load reads a transformation file, applies environment overrides and
// defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// evalContext exposes the process environment to HCL expressions as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// Parse decodes data without applying overrides, defaults or validation.
// The format is chosen by the extension of filename.
func Parse(filename string, data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(data, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
		}
		if diags := gohcl.DecodeBody(file.Body, evalContext(), &cfg); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config YAML %s: %w", filename, err)
		}
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == nil {
		c.Environment = &EnvironmentConfig{}
	}
	if c.Environment.Type == "" {
		c.Environment.Type = string(environment.TypeLocal)
	}
	if c.Providers == nil {
		c.Providers = &Providers{}
	}
	c.Providers.applyDefaults()

	if c.Build == nil {
		c.Build = &BuildConfig{}
	}
	if c.Build.MaxIterations == 0 {
		c.Build.MaxIterations = build.DefaultMaxIterations
	}
	if c.Build.IterationTimeout == "" {
		c.Build.IterationTimeout = build.DefaultIterationTimeout.String()
	}

	if c.Executor == nil {
		c.Executor = &ExecutorConfig{}
	}
	if len(c.Executor.Interpreter) == 0 {
		c.Executor.Interpreter = []string{DefaultInterpreter}
		if c.Executor.Suffix == "" {
			c.Executor.Suffix = DefaultSuffix
		}
	}

	if c.Store == "" {
		c.Store = DefaultStorePath
	}

	for i := range c.Datasets {
		d := &c.Datasets[i]
		if d.Kind == "" {
			d.Kind = string(dataset.KindFile)
		}
		d.Kind = strings.ToLower(d.Kind)
	}
}

func (c *Config) validate(path string) error {
	var problems []string

	if strings.TrimSpace(c.Intent) == "" {
		problems = append(problems, "intent is required")
	}

	switch environment.Type(strings.ToLower(c.Environment.Type)) {
	case environment.TypeLocal:
	case environment.TypeDagster:
		if c.Environment.URL == "" {
			problems = append(problems, "environment.url is required for dagster")
		}
	default:
		problems = append(problems, fmt.Sprintf("environment.type %q is not supported", c.Environment.Type))
	}

	names := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.Name == "" {
			problems = append(problems, fmt.Sprintf("datasets[%d]: name is required", i))
			continue
		}
		if names[d.Name] {
			problems = append(problems, fmt.Sprintf("dataset %s: declared more than once", d.Name))
		}
		names[d.Name] = true

		switch dataset.SourceKind(d.Kind) {
		case dataset.KindFile:
			if d.Path == "" {
				problems = append(problems, fmt.Sprintf("dataset %s: path is required", d.Name))
			}
		case dataset.KindPostgreSQL:
			if d.ConnectionString == "" {
				problems = append(problems, fmt.Sprintf("dataset %s: connection_string is required", d.Name))
			}
			if d.Table == "" {
				problems = append(problems, fmt.Sprintf("dataset %s: table is required", d.Name))
			}
		default:
			problems = append(problems, fmt.Sprintf("dataset %s: kind %q is not supported", d.Name, d.Kind))
		}
	}

	for _, in := range c.Inputs {
		if !names[in] {
			problems = append(problems, fmt.Sprintf("input %s is not a declared dataset", in))
		}
	}
	if c.Output != "" && !names[c.Output] {
		problems = append(problems, fmt.Sprintf("output %s is not a declared dataset", c.Output))
	}

	if c.Build.MaxIterations < 1 {
		problems = append(problems, "build.max_iterations must be at least 1")
	}
	var err error
	if c.Build.iterationTimeout, err = parsePositive("build.iteration_timeout", c.Build.IterationTimeout); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Build.MaxDuration != "" {
		if c.Build.maxDuration, err = parsePositive("build.max_duration", c.Build.MaxDuration); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Generator != nil && c.Generator.Timeout != "" {
		if c.Generator.timeout, err = parsePositive("generator.timeout", c.Generator.Timeout); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Path: path, Problems: problems}
	}
	return nil
}

func parsePositive(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// IterationTimeout returns the parsed per-iteration timeout.
func (c *Config) IterationTimeout() time.Duration {
	if c.Build == nil {
		return 0
	}
	return c.Build.iterationTimeout
}

// MaxDuration returns the parsed whole-build cap; zero means unbounded.
func (c *Config) MaxDuration() time.Duration {
	if c.Build == nil {
		return 0
	}
	return c.Build.maxDuration
}

// GeneratorTimeout returns the parsed generator timeout; zero means the
// generator's default.
func (c *Config) GeneratorTimeout() time.Duration {
	if c.Generator == nil {
		return 0
	}
	return c.Generator.timeout
}

// Resolve makes a relative path relative to the config file's directory.
// Absolute paths and s3:// URIs are returned unchanged.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || dataset.IsRemote(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
