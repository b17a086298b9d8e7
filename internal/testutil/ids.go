package testutil

// FixedIDGenerator generates the same ID every time.
//
// Useful when every record of a test build should share one build ID so the
// stored rows can be compared against a golden file.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed ID generator.
//
// If id is empty, Generate() returns "test-build-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-build-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
