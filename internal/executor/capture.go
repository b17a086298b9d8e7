package executor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// capture records output chunks from both streams in arrival order.
type capture struct {
	mu     sync.Mutex
	chunks []Chunk
}

func (c *capture) stream(s Stream) *streamWriter {
	return &streamWriter{c: c, stream: s}
}

func (c *capture) snapshot() []Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Chunk, len(c.chunks))
	copy(out, c.chunks)
	return out
}

type streamWriter struct {
	c      *capture
	stream Stream
}

func (w *streamWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.c.mu.Lock()
	w.c.chunks = append(w.c.chunks, Chunk{Stream: w.stream, Text: string(p)})
	w.c.mu.Unlock()
	return len(p), nil
}

// errorLine matches the final line of an interpreter traceback,
// e.g. "ValueError: bad input" or "KeyboardInterrupt".
var errorLine = regexp.MustCompile(`^([A-Za-z_][\w.]*(?:Error|Exception|Exit|Interrupt|Warning|Iteration))(?::\s*(.*))?$`)

// classifyFailure builds an ExecutionError from stderr of a process that
// exited non-zero.
func classifyFailure(stderr string, exitCode int) *ExecutionError {
	lines := strings.Split(strings.TrimRight(stderr, "\n"), "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if m := errorLine.FindStringSubmatch(line); m != nil {
			return &ExecutionError{Type: m[1], Message: m[2], ExitCode: exitCode}
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return &ExecutionError{Message: line, ExitCode: exitCode}
		}
	}

	return &ExecutionError{Message: fmt.Sprintf("process exited with status %d", exitCode), ExitCode: exitCode}
}
