// Package rng provides the linear congruential generator whose state is
// kept identical on both ends of a link session.
//
// Level generation and enemy behaviour draw from the shared generator, so
// both peers must advance it in the same order. Values that only affect
// one screen (particles, screen shake) should use a separate Generator.
package rng

// Multiplier and increment of the generator.
const (
	multiplier = 1664525
	increment  = 1013904223
)

// Generator is a 32-bit LCG. The zero value is a valid generator seeded
// with 0. It is not safe for concurrent use.
type Generator struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Generator {
	return &Generator{state: seed}
}

// State returns the raw generator state.
func (g *Generator) State() uint32 {
	return g.state
}

// Seed replaces the generator state.
func (g *Generator) Seed(state uint32) {
	g.state = state
}

// Next advances the generator and returns a value in [0, 32767].
func (g *Generator) Next() int {
	g.state = multiplier*g.state + increment
	return int(g.state>>16) & 0x7FFF
}

// Choice returns a value in [0, n). n must be positive.
func (g *Generator) Choice(n int) int {
	return g.Next() % n
}

// Sample returns v moved up or down by a value in [0, offset). An offset of
// zero or less returns v and leaves the generator untouched.
func (g *Generator) Sample(v, offset int) int {
	if offset <= 0 {
		return v
	}
	if g.Choice(2) == 1 {
		return v + g.Choice(offset)
	}
	return v - g.Choice(offset)
}

// Shuffle permutes the n elements addressed by swap, Fisher-Yates style.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, g.Next()%(i+1))
	}
}
