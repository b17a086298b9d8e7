package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
)

// DefaultMaxRows is how many output rows Schema validates by default.
const DefaultMaxRows = 1000

// OutputExists passes when the output dataset's file exists after the run.
type OutputExists struct {
	Registry *registry.Registry
}

// Name implements build.Check.
func (OutputExists) Name() string { return "output_exists" }

// Check implements build.Check. A transformation without an output dataset passes.
func (c OutputExists) Check(ctx context.Context, in build.CheckInput) error {
	if in.OutputDataset == "" {
		return nil
	}
	d, err := dataset.Lookup(c.Registry, in.OutputDataset)
	if err != nil {
		return err
	}
	if d.Kind != dataset.KindFile {
		return nil
	}
	path, err := LocalPath(d, in.Workdir)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output dataset %s not written: %w", d.Name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output dataset %s: %s is a directory", d.Name, path)
	}
	return nil
}

// Schema validates the output dataset's rows against its schema.
type Schema struct {
	Registry *registry.Registry

	// MaxRows bounds how many rows are read; DefaultMaxRows when zero.
	MaxRows int

	Logger *slog.Logger
}

// Name implements build.Check.
func (Schema) Name() string { return "output_schema" }

// Check implements build.Check. Datasets without a schema, or in a format
// rows cannot be read from, pass.
func (c Schema) Check(ctx context.Context, in build.CheckInput) error {
	if in.OutputDataset == "" {
		return nil
	}
	d, err := dataset.Lookup(c.Registry, in.OutputDataset)
	if err != nil {
		return err
	}
	if len(d.Schema) == 0 || d.Kind != dataset.KindFile {
		return nil
	}

	compiled, err := Compile(d.Schema)
	if err != nil {
		return err
	}
	path, err := LocalPath(d, in.Workdir)
	if err != nil {
		return err
	}

	limit := c.MaxRows
	if limit <= 0 {
		limit = DefaultMaxRows
	}
	rows, err := readRows(path, d.Format, compiled, limit)
	if errors.Is(err, ErrUnsupportedFormat) {
		c.logger().Debug("schema check skipped", "dataset", d.Name, "format", d.Format)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output dataset %s: %w", d.Name, err)
	}

	for i, row := range rows {
		if err := compiled.ValidateRow(row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

func (c Schema) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// LocalPath resolves where a candidate running in workdir writes d. Relative
// paths are relative to workdir; s3:// datasets are written to their base
// name in workdir before being published.
func LocalPath(d dataset.Dataset, workdir string) (string, error) {
	if dataset.IsRemote(d.Path) {
		_, key, err := dataset.ParseS3URI(d.Path)
		if err != nil {
			return "", err
		}
		return filepath.Join(workdir, filepath.Base(key)), nil
	}
	if d.Path == "" {
		return "", fmt.Errorf("dataset %s has no path", d.Name)
	}
	if filepath.IsAbs(d.Path) {
		return d.Path, nil
	}
	return filepath.Join(workdir, d.Path), nil
}

var (
	_ build.Check = OutputExists{}
	_ build.Check = Schema{}
)
