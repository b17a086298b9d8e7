// Package dataset defines the named, schema-bearing dataset handles a
// transformation reads and writes, and the data sources they come from.
//
// Datasets are registered in the object registry under Category and are
// referenced everywhere else by name only.
package dataset

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/aiden/internal/registry"
)

// Category is the registry category for Dataset values.
const Category registry.Category = "dataset"

// Schema maps a field name to a type expression.
//
// Type expressions are CUE constraints ("string", "int", "number", "bool",
// or richer ones such as `string & =~"@"`). The aliases "str" and "float"
// are accepted for compatibility with schemas written as Python types.
type Schema map[string]string

// Fields returns the schema's field names in sorted order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Dataset is a named handle to data a transformation consumes or produces.
type Dataset struct {
	Name       string            `json:"name"`
	Path       string            `json:"path,omitempty"`
	Format     string            `json:"format"`
	Schema     Schema            `json:"schema,omitempty"`
	Kind       SourceKind        `json:"kind"`
	Connection map[string]string `json:"connection,omitempty"`
}

// New creates a file dataset. The name defaults to the path's stem
// ("/tmp/data.csv" -> "data").
func New(path, format string, schema Schema) Dataset {
	return Dataset{
		Name:   stem(path),
		Path:   path,
		Format: strings.ToLower(format),
		Schema: schema,
		Kind:   KindFile,
	}
}

// Named returns a copy of d with its name replaced.
func (d Dataset) Named(name string) Dataset {
	d.Name = name
	return d
}

// String renders the dataset as indented JSON.
func (d Dataset) String() string {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return d.Name
	}
	return string(out)
}

// Register stores datasets in r under Category, keyed by name.
// All-or-nothing, like registry.RegisterMultiple.
func Register(r *registry.Registry, datasets ...Dataset) error {
	values := make(map[string]any, len(datasets))
	for _, d := range datasets {
		values[d.Name] = d
	}
	return r.RegisterMultiple(Category, values)
}

// Lookup returns the dataset registered under name.
func Lookup(r *registry.Registry, name string) (Dataset, error) {
	return registry.GetAs[Dataset](r, Category, name)
}

// LookupMultiple returns the datasets registered under names.
func LookupMultiple(r *registry.Registry, names []string) (map[string]Dataset, error) {
	return registry.GetMultipleAs[Dataset](r, Category, names)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
