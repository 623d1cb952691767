// Package genome implements the circular binary genome and its pattern-match
// queries. The windows involved are only 22 bits wide, so a direct per-bit
// comparison is the simplest correct primitive; see DESIGN.md.
package genome

import (
	"errors"
	"fmt"
)

// PromSize is the width of the promoter consensus window, and the minimum
// genome length the core can address.
const PromSize = 22

// TermSize is the width of the terminator palindrome window.
const TermSize = 10

// PromSeq is the 22-bit promoter consensus sequence. Bit i of the window
// is compared against PromSeq's bit i.
var PromSeq = [PromSize]byte{
	0, 1, 0, 0, 1, 1, 0, 1, 0, 0,
	1, 1, 0, 1, 0, 0, 1, 1, 0, 1,
	0, 1,
}

// ShineDalgarno is the 6-bit ribosome-binding pattern preceding the start
// codon by a 4-bit gap.
var ShineDalgarno = [6]byte{0, 0, 1, 0, 1, 1}

// StartCodon is the 3-bit ATG-equivalent start pattern, found at offset 10
// from the Shine-Dalgarno window (a 4-bit gap after the 6-bit SD pattern).
var StartCodon = [3]byte{1, 1, 0}

// StopCodon is the 3-bit stop pattern: 0b111, the one 3-bit value not
// assigned to any of the seven meanings below, so a stop window never
// aliases an M/W/H codon.
var StopCodon = [3]byte{1, 1, 1}

// Codon values, decoded from the 3-bit window returned by CodonAt. Together
// with StopCodon these cover all eight 3-bit patterns exactly once.
const (
	CodonM0    = 0b000
	CodonM1    = 0b001
	CodonW0    = 0b010
	CodonW1    = 0b011
	CodonH0    = 0b100
	CodonH1    = 0b101
	CodonStart = 0b110
)

// ErrTooShort is returned when a genome would be built with fewer than
// PromSize bits.
var ErrTooShort = errors.New("genome: length below minimum")

// Genome is an ordered, circularly-indexed sequence of bits, packed one bit
// per byte for simplicity of indexing.
type Genome struct {
	bits []byte
}

// New builds a genome from an explicit bit sequence (each byte 0 or 1).
func New(b []byte) (*Genome, error) {
	if len(b) < PromSize {
		return nil, fmt.Errorf("%w: got length %d, need >= %d", ErrTooShort, len(b), PromSize)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Genome{bits: cp}, nil
}

// NewRandom builds a genome of the given length with each bit drawn
// uniformly, using the supplied draw function (kept generator-agnostic so
// callers pass an rng.Stream.UniformInt-backed closure).
func NewRandom(length int, drawBit func() byte) (*Genome, error) {
	if length < PromSize {
		return nil, fmt.Errorf("%w: got length %d, need >= %d", ErrTooShort, length, PromSize)
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = drawBit()
	}
	return &Genome{bits: b}, nil
}

// Len returns the genome's length L.
func (g *Genome) Len() int {
	return len(g.bits)
}

// Clone returns an independent copy of the genome.
func (g *Genome) Clone() *Genome {
	cp := make([]byte, len(g.bits))
	copy(cp, g.bits)
	return &Genome{bits: cp}
}

// Bits returns a read-only view of the underlying bit sequence, for
// serialization by the storage layer. Callers must not mutate the result.
func (g *Genome) Bits() []byte {
	return g.bits
}

func (g *Genome) at(p int) byte {
	l := len(g.bits)
	p %= l
	if p < 0 {
		p += l
	}
	return g.bits[p]
}

// PromoterDistance returns the Hamming distance between the 22-bit window
// starting at p and PromSeq. A promoter exists at p iff the result is <= 4.
func (g *Genome) PromoterDistance(p int) int {
	dist := 0
	for i := 0; i < PromSize; i++ {
		if g.at(p+i) != PromSeq[i] {
			dist++
		}
	}
	return dist
}

// TerminatorDistance tests the 10-bit palindrome at p: positions (p+0..p+3)
// against the reverse of (p+6..p+9). A value of 4 means all four pairs
// match (a terminator).
func (g *Genome) TerminatorDistance(p int) int {
	score := 0
	for i := 0; i < 4; i++ {
		left := g.at(p + i)
		right := g.at(p + 9 - i)
		if left == right {
			score++
		}
	}
	return score
}

// ShineDalStart reports whether positions p..p+5 match the Shine-Dalgarno
// pattern and positions p+10..p+12 match the start codon.
func (g *Genome) ShineDalStart(p int) bool {
	for i := 0; i < 6; i++ {
		if g.at(p+i) != ShineDalgarno[i] {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if g.at(p+10+i) != StartCodon[i] {
			return false
		}
	}
	return true
}

// ProteinStop reports whether the 3-bit window at p matches the stop codon.
func (g *Genome) ProteinStop(p int) bool {
	for i := 0; i < 3; i++ {
		if g.at(p+i) != StopCodon[i] {
			return false
		}
	}
	return true
}

// CodonAt returns the integer value (0..7) of the 3-bit window at p,
// bit p as the most significant bit.
func (g *Genome) CodonAt(p int) int {
	return int(g.at(p))<<2 | int(g.at(p+1))<<1 | int(g.at(p+2))
}

// ApplySwitches flips the bit at each listed position, in place.
func (g *Genome) ApplySwitches(positions []int) {
	l := len(g.bits)
	for _, p := range positions {
		idx := p % l
		if idx < 0 {
			idx += l
		}
		g.bits[idx] ^= 1
	}
}
