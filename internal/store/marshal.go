package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/executor"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalOutput(chunks []executor.Chunk) (string, error) {
	if chunks == nil {
		chunks = []executor.Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("marshal output: %w", err)
	}
	return string(data), nil
}

func unmarshalOutput(data string) ([]executor.Chunk, error) {
	var chunks []executor.Chunk
	if err := json.Unmarshal([]byte(data), &chunks); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}
	return chunks, nil
}

func marshalChecks(checks []build.CheckResult) (string, error) {
	if checks == nil {
		checks = []build.CheckResult{}
	}
	data, err := json.Marshal(checks)
	if err != nil {
		return "", fmt.Errorf("marshal checks: %w", err)
	}
	return string(data), nil
}

func unmarshalChecks(data string) ([]build.CheckResult, error) {
	var checks []build.CheckResult
	if err := json.Unmarshal([]byte(data), &checks); err != nil {
		return nil, fmt.Errorf("unmarshal checks: %w", err)
	}
	return checks, nil
}
