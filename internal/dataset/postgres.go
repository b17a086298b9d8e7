package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultPingTimeout bounds the connectivity check in Describe.
const DefaultPingTimeout = 2 * time.Second

// ErrTableNotFound is returned by Describe when the table has no columns.
var ErrTableNotFound = errors.New("table not found")

// Describe introspects the table's columns and returns them as a Schema.
//
// PostgreSQL column types are mapped to CUE kinds: integer types to "int",
// numeric and floating types to "number", boolean to "bool", everything else
// to "string".
func (p PostgresSource) Describe(ctx context.Context, pingTimeout time.Duration) (Schema, error) {
	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}

	db, err := sql.Open("pgx", p.ConnString)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, p.schemaName(), p.Table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	schema := Schema{}
	for rows.Next() {
		var column, dataType string
		if err := rows.Scan(&column, &dataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema[column] = cueKindForPostgres(dataType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrTableNotFound, p.schemaName(), p.Table)
	}
	return schema, nil
}

func cueKindForPostgres(dataType string) string {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "bigint":
		return "int"
	case "numeric", "decimal", "real", "double precision":
		return "number"
	case "boolean":
		return "bool"
	default:
		return "string"
	}
}
