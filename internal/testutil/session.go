package testutil

import (
	"fmt"
	"sync"
)

// FixedSessionGenerator returns the same session id every time.
//
// This enables golden comparison of optimizer output that embeds the
// session id.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate returns "test-session".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements optimizer.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}

// SequentialSessionGenerator yields "session-0001", "session-0002", ...
//
// Unlike FixedSessionGenerator, consecutive optimizations get distinct ids,
// and Reset makes a test run repeatable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialSessionGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialSessionGenerator creates a generator whose first id is
// "session-0001".
func NewSequentialSessionGenerator() *SequentialSessionGenerator {
	return &SequentialSessionGenerator{}
}

// Generate returns the next session id.
func (g *SequentialSessionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("session-%04d", g.seq)
}

// Current returns how many ids have been generated since the last Reset.
func (g *SequentialSessionGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns "session-0001".
func (g *SequentialSessionGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
