// Package rng implements a counter-based pseudo-random generator so that a
// per-cell, per-purpose random substream can be requested deterministically
// regardless of the order or concurrency of the callers.
//
// The Threefry-4x64 round function is implemented directly against the
// published constants; see DESIGN.md.
package rng

import "math"

// Purpose selects which logical substream a caller draws from, so that a
// mutation draw and a reproduction draw for the same cell never collide.
type Purpose uint64

const (
	PurposeMutation Purpose = iota
	PurposeReproduction
)

// threefry4x64 round constants (Salmon et al., "Parallel Random Numbers:
// As Easy as 1, 2, 3").
var rotation = [8][2]uint64{
	{14, 16}, {52, 57}, {23, 40}, {5, 37},
	{25, 33}, {46, 12}, {58, 22}, {32, 32},
}

const threefryRounds = 20

// threefry4x64 runs the block cipher over one 4x64 counter block keyed by a
// 4x64 key. It is the deterministic core that every Stream draw reduces to.
func threefry4x64(counter, key [4]uint64) [4]uint64 {
	const parity = 0x1BD11BDAA9FC1A22

	ks := [5]uint64{key[0], key[1], key[2], key[3], parity ^ key[0] ^ key[1] ^ key[2] ^ key[3]}

	x := [4]uint64{counter[0] + ks[0], counter[1] + ks[1], counter[2] + ks[2], counter[3] + ks[3]}

	for round := 0; round < threefryRounds; round++ {
		r := rotation[round%8][0]
		x[0] += x[1]
		x[1] = rotl64(x[1], r) ^ x[0]
		r = rotation[round%8][1]
		x[2] += x[3]
		x[3] = rotl64(x[3], r) ^ x[2]
		x[1], x[3] = x[3], x[1]

		if round%4 == 3 {
			s := round/4 + 1
			x[0] += ks[s%5]
			x[1] += ks[(s+1)%5]
			x[2] += ks[(s+2)%5]
			x[3] += ks[(s+3)%5] + uint64(s)
		}
	}
	return x
}

func rotl64(v uint64, r uint64) uint64 {
	return (v << r) | (v >> (64 - r))
}

// Key is the global key for a run, derived once from (seed, W, H) and shared
// read-only for the lifetime of the run.
type Key struct {
	k0, k1 uint64
}

// NewKey derives the global RNG key from the run's seed and grid shape.
func NewKey(seed int64, width, height int) Key {
	return Key{
		k0: uint64(seed),
		k1: uint64(width)<<32 ^ uint64(height),
	}
}

// Stream is a per-cell, per-purpose substream. It holds no mutable state
// beyond an internal draw counter, which only advances within the single
// goroutine driving one cell's work for one generation — never shared.
type Stream struct {
	key        [4]uint64
	counter    uint64
	generation uint64
	buf        [4]uint64
	bufIdx     int
}

// NewStream builds the deterministic substream for (cellIndex, purpose,
// generation) under the run's global key. Identical inputs always yield an
// identical stream, independent of host thread interleaving.
func NewStream(k Key, cellIndex int, purpose Purpose, generation uint64) *Stream {
	return &Stream{
		key:        [4]uint64{k.k0, k.k1, uint64(cellIndex), uint64(purpose)},
		generation: generation,
		bufIdx:     4, // force a refill on first draw
	}
}

func (s *Stream) nextWord() uint64 {
	if s.bufIdx >= 4 {
		s.buf = threefry4x64([4]uint64{s.counter, s.generation, 0, 0}, s.key)
		s.counter++
		s.bufIdx = 0
	}
	w := s.buf[s.bufIdx]
	s.bufIdx++
	return w
}

// Uniform draws a real number in [0,1).
func (s *Stream) Uniform() float64 {
	// Keep the top 53 bits, matching the precision of a float64 mantissa.
	return float64(s.nextWord()>>11) / (1 << 53)
}

// UniformInt draws an integer in [a,b).
func (s *Stream) UniformInt(a, b int) int {
	if b <= a {
		return a
	}
	span := uint64(b - a)
	return a + int(s.nextWord()%span)
}

// Poisson draws a non-negative integer from a Poisson distribution with
// mean lambda, using Knuth's multiplicative algorithm. Adequate for the
// lambda = mu*L range used by the mutator (a handful of expected events per
// genome); large-lambda callers are out of scope for this core.
func (s *Stream) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= s.Uniform()
		if p <= l {
			return k
		}
		k++
	}
}

// Roulette draws an index in [0,len(probs)) with P(k) = probs[k]. probs is
// expected to sum to 1 within floating point tolerance.
func (s *Stream) Roulette(probs []float64) int {
	if len(probs) == 0 {
		return 0
	}
	draw := s.Uniform()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if draw < acc {
			return i
		}
	}
	return len(probs) - 1
}
