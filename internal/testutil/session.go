package testutil

// FixedSessionGenerator hands every replica the same session id.
//
// Unlike engine.FixedGenerator, which returns ids in sequence and panics
// when exhausted, this generator never runs out. Use it when a test does
// not care how many clients connect.
//
// FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id. An empty id becomes
// "test-session".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate implements engine.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
