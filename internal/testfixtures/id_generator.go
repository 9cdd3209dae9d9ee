package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out predictable identifiers ("task-1", "task-2", ...) in
// place of the uuid generator the composition root injects.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator constructs a generator yielding prefix-N identifiers. An
// empty prefix defaults to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc adapts the generator to the `func() string` dependency the
// services take. A nil generator yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetPrefix changes the prefix for subsequently issued identifiers.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefix = prefix
}

// SetCounter rewinds or fast-forwards the sequence; SetCounter(0) restarts
// it at prefix-1.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = counter
}
