// Package description renders a transformation for humans and machines.
package description

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
)

// NoCodePlaceholder stands in for the code of a transformation that has not
// been built.
const NoCodePlaceholder = "# No transformation code available"

// Schemas holds the input schemas keyed by dataset name and the output schema.
type Schemas struct {
	Inputs map[string]dataset.Schema `json:"inputs"`
	Output dataset.Schema            `json:"output"`
}

// Code holds the transformation source. Transformation is empty until the
// transformation is ready.
type Code struct {
	Language       string `json:"language"`
	Transformation string `json:"transformation,omitempty"`
}

// Description is a point-in-time snapshot of a transformation.
type Description struct {
	ID         string      `json:"id"`
	State      build.State `json:"state"`
	Intent     string      `json:"intent"`
	Provider   string      `json:"provider,omitempty"`
	ArtifactID string      `json:"artifact_id,omitempty"`
	Schemas    Schemas     `json:"schemas"`
	Code       Code        `json:"code"`
}

// FromTransformation snapshots t. Dataset schemas are looked up in reg by
// name; a dataset missing from reg is described with an empty schema.
func FromTransformation(t *build.Transformation, reg *registry.Registry) Description {
	spec := t.Spec()
	d := Description{
		ID:         t.ID(),
		State:      t.State(),
		Intent:     spec.Intent,
		Provider:   spec.Provider,
		ArtifactID: t.FinalArtifactID(),
		Schemas: Schemas{
			Inputs: make(map[string]dataset.Schema, len(spec.Inputs)),
			Output: dataset.Schema{},
		},
		Code: Code{Language: "python", Transformation: t.FinalCode()},
	}
	for _, name := range spec.Inputs {
		d.Schemas.Inputs[name] = lookupSchema(reg, name)
	}
	if spec.Output != "" {
		d.Schemas.Output = lookupSchema(reg, spec.Output)
	}
	return d
}

func lookupSchema(reg *registry.Registry, name string) dataset.Schema {
	if reg == nil {
		return dataset.Schema{}
	}
	d, err := dataset.Lookup(reg, name)
	if err != nil || d.Schema == nil {
		return dataset.Schema{}
	}
	return d.Schema
}

// AsText renders d as indented plain text.
func (d Description) AsText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transformation: %s\n", d.ID)
	fmt.Fprintf(&b, "State: %s\n", d.State)
	fmt.Fprintf(&b, "Intent: %s\n", d.Intent)

	b.WriteString("\nInput Schema:\n")
	for _, name := range sortedKeys(d.Schemas.Inputs) {
		fmt.Fprintf(&b, "  - %s: %s\n", name, inlineSchema(d.Schemas.Inputs[name]))
	}

	b.WriteString("\nOutput Schema:\n")
	for _, field := range d.Schemas.Output.Fields() {
		fmt.Fprintf(&b, "  - %s: %s\n", field, d.Schemas.Output[field])
	}

	b.WriteString("\nCode:\n")
	b.WriteString("  - Transformation Code:\n")
	fmt.Fprintf(&b, "    %s\n", d.fencedCode())
	return b.String()
}

// AsMarkdown renders d as a markdown document.
func (d Description) AsMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transformation: %s\n\n", d.ID)
	fmt.Fprintf(&b, "**State:** %s\n\n", d.State)
	fmt.Fprintf(&b, "**Intent:** %s\n\n", d.Intent)

	b.WriteString("## Input Schema\n")
	for _, name := range sortedKeys(d.Schemas.Inputs) {
		fmt.Fprintf(&b, "- `%s`: %s\n", name, inlineSchema(d.Schemas.Inputs[name]))
	}

	b.WriteString("\n## Output Schema\n")
	for _, field := range d.Schemas.Output.Fields() {
		fmt.Fprintf(&b, "- `%s`: %s\n", field, d.Schemas.Output[field])
	}

	b.WriteString("\n## Code\n")
	b.WriteString("### Transformation Code\n")
	fmt.Fprintf(&b, "%s\n", d.fencedCode())
	return b.String()
}

// ToJSON encodes d as indented JSON.
func (d Description) ToJSON() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal description: %w", err)
	}
	return out, nil
}

// FromJSON decodes a description produced by ToJSON.
func FromJSON(data []byte) (Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return Description{}, fmt.Errorf("unmarshal description: %w", err)
	}
	if d.Schemas.Inputs == nil {
		d.Schemas.Inputs = map[string]dataset.Schema{}
	}
	if d.Schemas.Output == nil {
		d.Schemas.Output = dataset.Schema{}
	}
	return d, nil
}

func (d Description) fencedCode() string {
	code := d.Code.Transformation
	if code == "" {
		code = NoCodePlaceholder
	}
	lang := d.Code.Language
	if lang == "" {
		lang = "python"
	}
	return artifact.WrapCodeAs(lang, code)
}

// inlineSchema renders a schema as {field: type, ...} in field order.
func inlineSchema(s dataset.Schema) string {
	fields := s.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + s[f]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string]dataset.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
