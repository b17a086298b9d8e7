package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// SourceKind tags where a dataset lives.
type SourceKind string

const (
	KindFile       SourceKind = "file"
	KindPostgreSQL SourceKind = "postgresql"
)

// ErrUnsupportedSource is returned by NewSource for unknown kinds.
var ErrUnsupportedSource = errors.New("unsupported data source type")

// Source describes a physical data location.
type Source interface {
	Name() string
	Kind() SourceKind
	Format() string
	ConnectionInfo() map[string]string
}

// FileSource is a dataset stored in a file; Path may be local or an s3:// URI.
type FileSource struct {
	Path       string
	FileFormat string
	SourceName string
}

func (f FileSource) Name() string {
	if f.SourceName != "" {
		return f.SourceName
	}
	return stem(f.Path)
}

func (f FileSource) Kind() SourceKind { return KindFile }
func (f FileSource) Format() string   { return f.FileFormat }

func (f FileSource) ConnectionInfo() map[string]string {
	return map[string]string{"path": f.Path}
}

// PostgresSource is a dataset stored in a PostgreSQL table.
type PostgresSource struct {
	ConnString string
	Table      string
	PGSchema   string // defaults to "public"
	SourceFmt  string // defaults to "sql"
	SourceName string // defaults to Table
}

func (p PostgresSource) Name() string {
	if p.SourceName != "" {
		return p.SourceName
	}
	return p.Table
}

func (p PostgresSource) Kind() SourceKind { return KindPostgreSQL }

func (p PostgresSource) Format() string {
	if p.SourceFmt != "" {
		return p.SourceFmt
	}
	return "sql"
}

func (p PostgresSource) schemaName() string {
	if p.PGSchema != "" {
		return p.PGSchema
	}
	return "public"
}

func (p PostgresSource) ConnectionInfo() map[string]string {
	return map[string]string{
		"connection_string": p.ConnString,
		"table":             p.Table,
		"schema":            p.schemaName(),
	}
}

// SourceParams carries the union of fields accepted by NewSource.
type SourceParams struct {
	Name       string
	Path       string
	Format     string
	ConnString string
	Table      string
	PGSchema   string
}

// NewSource creates a source of the given kind.
// PostgreSQL sources require a connection string and a table.
func NewSource(kind SourceKind, p SourceParams) (Source, error) {
	switch SourceKind(strings.ToLower(string(kind))) {
	case KindFile:
		if p.Path == "" {
			return nil, errors.New("file data source requires a path")
		}
		return FileSource{Path: p.Path, FileFormat: strings.ToLower(p.Format), SourceName: p.Name}, nil
	case KindPostgreSQL:
		if p.ConnString == "" {
			return nil, errors.New("PostgreSQL data source requires a connection_string parameter")
		}
		if p.Table == "" {
			return nil, errors.New("PostgreSQL data source requires a table parameter")
		}
		return PostgresSource{
			ConnString: p.ConnString,
			Table:      p.Table,
			PGSchema:   p.PGSchema,
			SourceFmt:  p.Format,
			SourceName: p.Name,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s. Supported types are: %s, %s",
			ErrUnsupportedSource, kind, KindFile, KindPostgreSQL)
	}
}

// FromSource builds a Dataset handle for src.
func FromSource(src Source, schema Schema) Dataset {
	d := Dataset{
		Name:       src.Name(),
		Format:     src.Format(),
		Schema:     schema,
		Kind:       src.Kind(),
		Connection: src.ConnectionInfo(),
	}
	if fs, ok := src.(FileSource); ok {
		d.Path = fs.Path
		d.Connection = nil
	}
	return d
}
