package check

import (
	"context"
	"testing"

	"cuelang.org/go/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
	"github.com/roach88/aiden/internal/testutil"
)

var emailSchema = dataset.Schema{
	"id":    "int",
	"email": `string & =~"^[^@]+@[^@]+\\.[a-z]+$"`,
	"score": "float",
	"valid": "bool",
}

func TestCompile(t *testing.T) {
	c, err := Compile(emailSchema)
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "id", "score", "valid"}, c.Fields())
	assert.Equal(t, cue.IntKind, c.Kind("id"))
	assert.Equal(t, cue.StringKind, c.Kind("email"))
	assert.Equal(t, cue.NumberKind, c.Kind("score"))
	assert.Equal(t, cue.BoolKind, c.Kind("valid"))
	assert.Equal(t, cue.TopKind, c.Kind("unknown"))

	_, err = Compile(dataset.Schema{"x": "int &"})
	assert.Error(t, err)
}

func TestCompiledSchema_Coerce(t *testing.T) {
	c, err := Compile(emailSchema)
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.Coerce("id", "7"))
	assert.Equal(t, "seven", c.Coerce("id", "seven"))
	assert.Equal(t, int64(2), c.Coerce("score", "2"))
	assert.Equal(t, 2.5, c.Coerce("score", "2.5"))
	assert.Equal(t, true, c.Coerce("valid", "true"))
	assert.Equal(t, "a@b.io", c.Coerce("email", "a@b.io"))
	assert.Equal(t, "x", c.Coerce("extra", "x"))
}

func TestCompiledSchema_ValidateRow(t *testing.T) {
	c, err := Compile(emailSchema)
	require.NoError(t, err)

	ok := map[string]any{"id": int64(1), "email": "a@b.io", "score": 0.5, "valid": true, "extra": "kept"}
	assert.NoError(t, c.ValidateRow(ok))

	badEmail := map[string]any{"id": int64(1), "email": "not-an-email", "score": 0.5, "valid": true}
	assert.Error(t, c.ValidateRow(badEmail))

	missing := map[string]any{"id": int64(1), "email": "a@b.io", "valid": true}
	assert.Error(t, c.ValidateRow(missing))

	wrongType := map[string]any{"id": "one", "email": "a@b.io", "score": 0.5, "valid": true}
	assert.Error(t, c.ValidateRow(wrongType))
}

func TestCompile_Aliases(t *testing.T) {
	c, err := Compile(dataset.Schema{"name": "str", "amount": "float", "n": "integer", "ok": "boolean"})
	require.NoError(t, err)
	assert.Equal(t, cue.StringKind, c.Kind("name"))
	assert.Equal(t, cue.NumberKind, c.Kind("amount"))
	assert.Equal(t, cue.IntKind, c.Kind("n"))
	assert.Equal(t, cue.BoolKind, c.Kind("ok"))
}

func setup(t *testing.T, out dataset.Dataset) (*registry.Registry, build.CheckInput) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, dataset.Register(reg, out))
	return reg, build.CheckInput{Workdir: t.TempDir(), OutputDataset: out.Name}
}

func TestOutputExists(t *testing.T) {
	ctx := context.Background()
	reg, in := setup(t, dataset.New("clean.csv", "csv", nil))
	check := OutputExists{Registry: reg}

	assert.Equal(t, "output_exists", check.Name())
	assert.Error(t, check.Check(ctx, in))

	testutil.WriteFile(t, in.Workdir, "clean.csv", "id\n1\n")
	assert.NoError(t, check.Check(ctx, in))

	assert.NoError(t, check.Check(ctx, build.CheckInput{Workdir: in.Workdir}), "no output dataset")

	missing := build.CheckInput{Workdir: in.Workdir, OutputDataset: "nope"}
	assert.True(t, registry.IsNotFound(check.Check(ctx, missing)))
}

func TestSchema_CSV(t *testing.T) {
	ctx := context.Background()
	reg, in := setup(t, dataset.New("clean.csv", "csv", emailSchema))
	check := Schema{Registry: reg}

	testutil.WriteCSV(t, in.Workdir, "clean.csv",
		[]string{"id", "email", "score", "valid"},
		[]string{"1", "ann@example.com", "0.9", "true"},
		[]string{"2", "bob@example.org", "1", "false"},
	)
	assert.NoError(t, check.Check(ctx, in))

	testutil.WriteCSV(t, in.Workdir, "clean.csv",
		[]string{"id", "email", "score", "valid"},
		[]string{"1", "ann@example.com", "0.9", "true"},
		[]string{"2", "bob-at-example", "1", "false"},
	)
	err := check.Check(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestSchema_JSONFormats(t *testing.T) {
	ctx := context.Background()
	schema := dataset.Schema{"id": "int", "name": "string"}

	reg, in := setup(t, dataset.New("out.json", "json", schema))
	testutil.WriteFile(t, in.Workdir, "out.json", `[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`)
	assert.NoError(t, Schema{Registry: reg}.Check(ctx, in))

	testutil.WriteFile(t, in.Workdir, "out.json", `[{"id": 1.5, "name": "a"}]`)
	assert.Error(t, Schema{Registry: reg}.Check(ctx, in))

	reg, in = setup(t, dataset.New("out.jsonl", "jsonl", schema))
	testutil.WriteFile(t, in.Workdir, "out.jsonl", "{\"id\": 1, \"name\": \"a\"}\n\n{\"id\": 2, \"name\": \"b\"}\n")
	assert.NoError(t, Schema{Registry: reg}.Check(ctx, in))
}

func TestSchema_SkipsWithoutSchemaOrReadableFormat(t *testing.T) {
	ctx := context.Background()

	reg, in := setup(t, dataset.New("out.csv", "csv", nil))
	assert.NoError(t, Schema{Registry: reg}.Check(ctx, in))

	reg, in = setup(t, dataset.New("out.parquet", "parquet", dataset.Schema{"id": "int"}))
	testutil.WriteFile(t, in.Workdir, "out.parquet", "PAR1")
	assert.NoError(t, Schema{Registry: reg}.Check(ctx, in))
}

func TestSchema_MaxRows(t *testing.T) {
	reg, in := setup(t, dataset.New("out.csv", "csv", dataset.Schema{"id": "int"}))
	testutil.WriteCSV(t, in.Workdir, "out.csv", []string{"id"}, []string{"1"}, []string{"oops"})

	assert.NoError(t, Schema{Registry: reg, MaxRows: 1}.Check(context.Background(), in))
	assert.Error(t, Schema{Registry: reg}.Check(context.Background(), in))
}

func TestLocalPath(t *testing.T) {
	p, err := LocalPath(dataset.New("/abs/out.csv", "csv", nil), "/work")
	require.NoError(t, err)
	assert.Equal(t, "/abs/out.csv", p)

	p, err = LocalPath(dataset.New("out/clean.csv", "csv", nil), "/work")
	require.NoError(t, err)
	assert.Equal(t, "/work/out/clean.csv", p)

	p, err = LocalPath(dataset.New("s3://bucket/results/clean.csv", "csv", nil), "/work")
	require.NoError(t, err)
	assert.Equal(t, "/work/clean.csv", p)

	_, err = LocalPath(dataset.Dataset{Name: "x"}, "/work")
	assert.Error(t, err)
}
