package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
)

// Environment variables carrying dataset bindings into candidate code.
const (
	EnvDatasets      = "AIDEN_DATASETS"
	EnvInputDatasets = "AIDEN_INPUT_DATASETS"
	EnvOutputDataset = "AIDEN_OUTPUT_DATASET"
)

// PathVar returns the variable holding a dataset's path,
// e.g. "emails_in" -> "AIDEN_DATASET_EMAILS_IN_PATH".
func PathVar(name string) string {
	var b strings.Builder
	b.WriteString("AIDEN_DATASET_")
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("_PATH")
	return b.String()
}

// Manifest is the JSON document stored in AIDEN_DATASETS.
type Manifest struct {
	Inputs map[string]dataset.Dataset `json:"inputs"`
	Output *dataset.Dataset           `json:"output,omitempty"`
}

// BindDatasets resolves the named datasets from reg and returns the
// environment variables that expose them to candidate code: the JSON
// manifest, the input and output names, and one PathVar per dataset with a
// path. output may be empty.
func BindDatasets(reg *registry.Registry, inputs []string, output string) (map[string]string, error) {
	resolved, err := dataset.LookupMultiple(reg, inputs)
	if err != nil {
		return nil, fmt.Errorf("bind input datasets: %w", err)
	}

	m := Manifest{Inputs: resolved}
	if output != "" {
		out, err := dataset.Lookup(reg, output)
		if err != nil {
			return nil, fmt.Errorf("bind output dataset: %w", err)
		}
		m.Output = &out
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal dataset manifest: %w", err)
	}

	env := map[string]string{
		EnvDatasets:      string(data),
		EnvInputDatasets: strings.Join(inputs, ","),
	}
	for name, d := range resolved {
		if d.Path != "" {
			env[PathVar(name)] = d.Path
		}
	}
	if m.Output != nil {
		env[EnvOutputDataset] = output
		if m.Output.Path != "" {
			env[PathVar(output)] = m.Output.Path
		}
	}
	return env, nil
}
