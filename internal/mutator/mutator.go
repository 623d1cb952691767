// Package mutator draws point mutations for one genome per generation.
// Switch is the only event kind this core supports, but Event is a tagged
// variant so an insert/delete kind could slot in later without touching
// callers.
package mutator

import "miniaevol/internal/rng"

// Kind identifies a mutation event type. SWITCH is the only kind this core
// draws; the type exists so a later INSERT/DELETE kind doesn't change the
// Event shape.
type Kind int

const (
	Switch Kind = iota
)

// Event is one ordered mutation. Application is order-independent for
// SWITCH since each event only toggles one bit, but the list is kept
// ordered for determinism and to match how richer kinds would need it.
type Event struct {
	Kind     Kind
	Position int
}

// Mutator draws a Poisson-count of point mutations for one genome using a
// dedicated RNG substream.
type Mutator struct {
	stream     *rng.Stream
	genomeLen  int
	rate       float64
	HasMutated bool
	Events     []Event
}

// New returns a Mutator bound to the given genome length and per-base rate,
// drawing from stream (already scoped to one cell/generation/PurposeMutation
// triple by the caller).
func New(stream *rng.Stream, genomeLen int, rate float64) *Mutator {
	return &Mutator{stream: stream, genomeLen: genomeLen, rate: rate}
}

// Draw samples n ~ Poisson(rate * genomeLen) and appends n SWITCH events at
// independently drawn positions. Safe to call at most once per Mutator;
// callers build a fresh Mutator per generation per cell.
func (m *Mutator) Draw() {
	lambda := m.rate * float64(m.genomeLen)
	n := m.stream.Poisson(lambda)
	if n == 0 {
		return
	}
	m.HasMutated = true
	m.Events = make([]Event, 0, n)
	for k := 0; k < n; k++ {
		p := m.stream.UniformInt(0, m.genomeLen)
		m.Events = append(m.Events, Event{Kind: Switch, Position: p})
	}
}

// Positions extracts the bit positions of all SWITCH events, in draw order,
// for genome.ApplySwitches.
func (m *Mutator) Positions() []int {
	positions := make([]int, 0, len(m.Events))
	for _, e := range m.Events {
		if e.Kind == Switch {
			positions = append(positions, e.Position)
		}
	}
	return positions
}
