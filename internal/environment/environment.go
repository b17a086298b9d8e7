// Package environment resolves where a transformation runs: a local working
// directory, or a remote workflow engine (Dagster) addressed by URL.
package environment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/aiden/internal/registry"
)

// Category is the registry category for resolved environments.
const Category registry.Category = "environment"

// Type tags an environment.
type Type string

const (
	TypeLocal   Type = "local"
	TypeDagster Type = "dagster"
)

// Environment variables consulted by FromEnv.
const (
	EnvType    = "AIDEN_ENV"
	EnvWorkdir = "AIDEN_WORKDIR"
	EnvURL     = "DAGSTER_URL"
)

// DefaultWorkdir is used for local environments when neither the caller nor
// AIDEN_WORKDIR names one.
const DefaultWorkdir = "./workdir"

var (
	// ErrUnsupportedType is returned for environment types other than local/dagster.
	ErrUnsupportedType = errors.New("unsupported environment type")

	// ErrURLRequired is returned for dagster environments without a URL.
	ErrURLRequired = errors.New("URL is required for 'dagster' environment type")
)

// Environment is a resolved execution environment.
// Workdir is always an absolute, existing directory once New returns.
type Environment struct {
	Type     Type           `json:"type" yaml:"type"`
	URL      string         `json:"url,omitempty" yaml:"url,omitempty"`
	Workdir  string         `json:"workdir" yaml:"workdir"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// New validates and resolves an environment.
//
// The type is lower-cased. Dagster environments require a URL. When the
// working directory is empty it falls back to AIDEN_WORKDIR, then
// DefaultWorkdir. The directory is created if missing and made absolute.
func New(typ Type, url, workdir string) (Environment, error) {
	env := Environment{
		Type:     Type(strings.ToLower(strings.TrimSpace(string(typ)))),
		URL:      strings.TrimSpace(url),
		Workdir:  workdir,
		Metadata: map[string]any{},
	}

	switch env.Type {
	case TypeLocal:
	case TypeDagster:
		if env.URL == "" {
			return Environment{}, ErrURLRequired
		}
	default:
		return Environment{}, fmt.Errorf("%w: %s", ErrUnsupportedType, env.Type)
	}

	if env.Workdir == "" {
		env.Workdir = os.Getenv(EnvWorkdir)
	}
	if env.Workdir == "" {
		env.Workdir = DefaultWorkdir
	}

	resolved, err := resolveDir(env.Workdir)
	if err != nil {
		return Environment{}, err
	}
	env.Workdir = resolved
	return env, nil
}

// FromEnv builds an environment from AIDEN_ENV (default local),
// AIDEN_WORKDIR and DAGSTER_URL. Non-empty arguments take precedence.
func FromEnv(typ Type, url, workdir string) (Environment, error) {
	if typ == "" {
		typ = Type(os.Getenv(EnvType))
	}
	if typ == "" {
		typ = TypeLocal
	}
	if url == "" {
		url = os.Getenv(EnvURL)
	}
	return New(typ, url, workdir)
}

// IsLocal reports whether this is a local environment.
func (e Environment) IsLocal() bool {
	return e.Type == TypeLocal
}

// IsDagster reports whether this is a Dagster environment.
func (e Environment) IsDagster() bool {
	return e.Type == TypeDagster
}

func (e Environment) String() string {
	if e.Type == TypeDagster {
		return fmt.Sprintf("Environment(type=%q, url=%q)", e.Type, e.URL)
	}
	return fmt.Sprintf("Environment(type=%q, workdir=%q)", e.Type, e.Workdir)
}

func resolveDir(dir string) (string, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand workdir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workdir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve workdir: %w", err)
	}
	return abs, nil
}
