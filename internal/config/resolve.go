package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/environment"
	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/registry"
)

// ResolveEnvironment validates and resolves the configured environment.
// A relative workdir is resolved against the config file's directory.
func (c *Config) ResolveEnvironment() (environment.Environment, error) {
	env := c.Environment
	if env == nil {
		env = &EnvironmentConfig{Type: string(environment.TypeLocal)}
	}
	return environment.New(environment.Type(env.Type), env.URL, c.Resolve(env.Workdir))
}

// ResolveDatasets builds dataset handles in declaration order.
//
// PostgreSQL datasets declared without fields are introspected; a failure to
// reach the database is logged and leaves the schema empty.
func (c *Config) ResolveDatasets(ctx context.Context, logger *slog.Logger) ([]dataset.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pingTimeout, err := PingTimeout(dataset.DefaultPingTimeout)
	if err != nil {
		return nil, err
	}

	out := make([]dataset.Dataset, 0, len(c.Datasets))
	for _, dc := range c.Datasets {
		src, err := dataset.NewSource(dataset.SourceKind(dc.Kind), dataset.SourceParams{
			Name:       dc.Name,
			Path:       c.Resolve(dc.Path),
			Format:     dc.Format,
			ConnString: dc.ConnectionString,
			Table:      dc.Table,
			PGSchema:   dc.Schema,
		})
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", dc.Name, err)
		}

		schema := dataset.Schema(dc.Fields)
		if pg, ok := src.(dataset.PostgresSource); ok && len(schema) == 0 {
			described, err := pg.Describe(ctx, pingTimeout)
			if err != nil {
				logger.Warn("schema introspection failed", "dataset", dc.Name, "error", err)
			} else {
				schema = described
			}
		}
		out = append(out, dataset.FromSource(src, schema))
	}
	return out, nil
}

// Spec returns the transformation spec the file describes.
func (c *Config) Spec() build.Spec {
	provider := DefaultProvider
	if c.Providers != nil && c.Providers.Default != "" {
		provider = c.Providers.Default
	}
	return build.Spec{
		ID:       c.ID,
		Intent:   strings.TrimSpace(c.Intent),
		Provider: provider,
		Inputs:   append([]string(nil), c.Inputs...),
		Output:   c.Output,
		Plan:     c.Plan,
	}
}

// MachineOptions returns the build limits as machine options.
func (c *Config) MachineOptions() []build.Option {
	var opts []build.Option
	if c.Build != nil {
		opts = append(opts, build.WithMaxIterations(c.Build.MaxIterations))
	}
	opts = append(opts,
		build.WithIterationTimeout(c.IterationTimeout()),
		build.WithMaxDuration(c.MaxDuration()),
	)
	return opts
}

// ExecutorOptions returns the interpreter selection as executor options.
func (c *Config) ExecutorOptions() []executor.LocalOption {
	if c.Executor == nil || len(c.Executor.Interpreter) == 0 {
		return nil
	}
	return []executor.LocalOption{
		executor.WithInterpreter(c.Executor.Suffix, c.Executor.Interpreter...),
	}
}

// Populate registers the environment, datasets and providers in r.
func Populate(r *registry.Registry, env environment.Environment, datasets []dataset.Dataset, providers Providers) error {
	if err := r.Register(environment.Category, "default", env); err != nil {
		return err
	}
	if err := dataset.Register(r, datasets...); err != nil {
		return err
	}
	return providers.Register(r)
}
