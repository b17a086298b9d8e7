package check

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/aiden/internal/dataset"
)

// typeAliases maps Python-style type names onto CUE.
var typeAliases = map[string]string{
	"str":     "string",
	"float":   "number",
	"integer": "int",
	"boolean": "bool",
}

// CompiledSchema is a dataset schema compiled to a CUE struct.
type CompiledSchema struct {
	ctx    *cue.Context
	value  cue.Value
	fields []string
}

// Compile turns s into a CUE struct with one required field per schema entry.
// A nil or empty schema compiles to an open struct that accepts any row.
func Compile(s dataset.Schema) (*CompiledSchema, error) {
	ctx := cuecontext.New()

	var b strings.Builder
	b.WriteString("{\n")
	for _, f := range s.Fields() {
		expr := strings.TrimSpace(s[f])
		if alias, ok := typeAliases[expr]; ok {
			expr = alias
		}
		if expr == "" {
			expr = "_"
		}
		fmt.Fprintf(&b, "\t%s: %s\n", strconv.Quote(f), expr)
	}
	b.WriteString("}\n")

	v := ctx.CompileString(b.String())
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &CompiledSchema{ctx: ctx, value: v, fields: s.Fields()}, nil
}

// Fields returns the schema fields in sorted order.
func (c *CompiledSchema) Fields() []string {
	return c.fields
}

// Kind returns the CUE kind the schema allows for field; cue.TopKind when
// the field is not constrained.
func (c *CompiledSchema) Kind(field string) cue.Kind {
	v := c.value.LookupPath(cue.MakePath(cue.Str(field)))
	if !v.Exists() {
		return cue.TopKind
	}
	return v.IncompleteKind()
}

// ValidateRow unifies row with the schema and requires a concrete result.
func (c *CompiledSchema) ValidateRow(row map[string]any) error {
	rv := c.ctx.Encode(row)
	if err := rv.Err(); err != nil {
		return err
	}
	return c.value.Unify(rv).Validate(cue.Concrete(true))
}

// Coerce converts a text cell into the Go value the field's kind expects.
// Cells that do not parse are returned unchanged so validation reports them.
func (c *CompiledSchema) Coerce(field, cell string) any {
	kind := c.Kind(field)
	if kind == cue.TopKind || kind&cue.StringKind != 0 {
		return cell
	}
	if kind&cue.IntKind != 0 {
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n
		}
	}
	if kind&cue.FloatKind != 0 {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	}
	if kind&cue.BoolKind != 0 {
		if b, err := strconv.ParseBool(cell); err == nil {
			return b
		}
	}
	return cell
}
