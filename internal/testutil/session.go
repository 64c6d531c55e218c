package testutil

// FixedSessionGenerator generates the same bootstrap session id every time.
//
// This keeps bootstrap logs byte-identical across runs.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate() returns "test-session".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements bootstrap.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
