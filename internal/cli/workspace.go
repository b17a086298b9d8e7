package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/aiden/internal/config"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/environment"
	"github.com/roach88/aiden/internal/registry"
)

// workspace is a loaded config with its environment and datasets resolved
// into a fresh registry.
type workspace struct {
	cfg      *config.Config
	env      environment.Environment
	datasets []dataset.Dataset
	reg      *registry.Registry

	// published maps output dataset names to the s3:// uri they are
	// uploaded to once the build is ready.
	published map[string]string
}

// loadConfig loads path, mapping failures to exit codes. Validation
// problems are reported through f.
func loadConfig(f *OutputFormatter, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if config.IsValidationError(err) {
		_ = f.Error(ErrCodeInvalidConfig, "invalid config", err.Error())
		return nil, WrapExitError(ExitFailure, "invalid config", err)
	}
	return nil, WrapExitError(ExitCommandError, "failed to load config", err)
}

// openWorkspace resolves cfg. When stage is true, s3:// inputs are
// downloaded into the working directory and s3:// outputs are redirected
// there for publishing after the build.
func openWorkspace(ctx context.Context, cfg *config.Config, logger *slog.Logger, stage bool) (*workspace, error) {
	env, err := cfg.ResolveEnvironment()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve environment", err)
	}
	datasets, err := cfg.ResolveDatasets(ctx, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve datasets", err)
	}

	ws := &workspace{cfg: cfg, env: env, datasets: datasets, published: map[string]string{}}
	if stage {
		if err := ws.stage(ctx, logger); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to stage datasets", err)
		}
	}

	ws.reg = registry.New()
	if err := config.Populate(ws.reg, env, ws.datasets, *cfg.Providers); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register workspace", err)
	}
	return ws, nil
}

func (ws *workspace) stage(ctx context.Context, logger *slog.Logger) error {
	var stager *dataset.Stager
	for i, d := range ws.datasets {
		if !dataset.IsRemote(d.Path) {
			continue
		}
		if d.Name == ws.cfg.Output {
			local, err := dataset.Target(d, ws.env.Workdir)
			if err != nil {
				return err
			}
			ws.published[d.Name] = d.Path
			ws.datasets[i] = local
			continue
		}
		if stager == nil {
			objCfg, err := dataset.ObjectStoreConfigFromEnv()
			if err != nil {
				return err
			}
			if stager, err = dataset.NewStager(objCfg); err != nil {
				return err
			}
		}
		logger.Info("staging dataset", "dataset", d.Name, "uri", d.Path)
		local, err := stager.Stage(ctx, d, ws.env.Workdir)
		if err != nil {
			return err
		}
		ws.datasets[i] = local
	}
	return nil
}

// publish uploads staged outputs to their s3:// uris.
func (ws *workspace) publish(ctx context.Context, logger *slog.Logger) error {
	if len(ws.published) == 0 {
		return nil
	}
	objCfg, err := dataset.ObjectStoreConfigFromEnv()
	if err != nil {
		return err
	}
	stager, err := dataset.NewStager(objCfg)
	if err != nil {
		return err
	}
	for _, d := range ws.datasets {
		uri, ok := ws.published[d.Name]
		if !ok {
			continue
		}
		logger.Info("publishing dataset", "dataset", d.Name, "uri", uri)
		if err := stager.Publish(ctx, d, uri); err != nil {
			return fmt.Errorf("publish %s: %w", d.Name, err)
		}
	}
	return nil
}
