package check

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrUnsupportedFormat is returned for output formats rows cannot be read from.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// readRows reads up to limit rows from path. CSV cells are coerced through
// schema; JSON numbers become int64 when integral.
func readRows(path, format string, schema *CompiledSchema, limit int) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "csv":
		return readCSV(f, schema, limit)
	case "json":
		return readJSONArray(f, limit)
	case "jsonl", "ndjson":
		return readJSONLines(f, limit)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func readCSV(r io.Reader, schema *CompiledSchema, limit int) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []map[string]any
	for len(rows) < limit {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = schema.Coerce(col, rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSONArray(r io.Reader, limit int) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}
	for _, row := range raw {
		normalizeNumbers(row)
	}
	return raw, nil
}

func readJSONLines(r io.Reader, limit int) ([]map[string]any, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows []map[string]any
	for sc.Scan() && len(rows) < limit {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode json row %d: %w", len(rows)+1, err)
		}
		normalizeNumbers(row)
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeNumbers(row map[string]any) {
	for k, v := range row {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			row[k] = i
		} else if f, err := n.Float64(); err == nil {
			row[k] = f
		}
	}
}
