package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/roach88/aiden/internal/build"
)

// ErrExhausted is returned once every scripted candidate has been handed out.
var ErrExhausted = errors.New("no more scripted candidates")

// Scripted returns its candidates in order, one per call.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Scripted struct {
	mu         sync.Mutex
	candidates []string
	next       int
	requests   []build.GenerationRequest
}

// NewScripted creates a generator over candidates.
func NewScripted(candidates ...string) *Scripted {
	return &Scripted{candidates: candidates}
}

// FromDir loads every regular file in dir, in lexical order of file name,
// as one candidate each.
func FromDir(dir string) (*Scripted, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("read candidates: no files in %s", dir)
	}

	candidates := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read candidate %s: %w", name, err)
		}
		candidates = append(candidates, string(data))
	}
	return NewScripted(candidates...), nil
}

// Generate implements build.Generator.
func (s *Scripted) Generate(ctx context.Context, req build.GenerationRequest) (build.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return build.Candidate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.next >= len(s.candidates) {
		return build.Candidate{}, ErrExhausted
	}
	code := s.candidates[s.next]
	s.next++
	return build.Candidate{Code: code}, nil
}

// Requests returns the requests seen so far.
func (s *Scripted) Requests() []build.GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]build.GenerationRequest(nil), s.requests...)
}

// Remaining returns how many candidates have not been handed out.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candidates) - s.next
}

var _ build.Generator = (*Scripted)(nil)
