package rng

import (
	"math"
	"testing"
)

func TestStreamDeterministic(t *testing.T) {
	key := NewKey(42, 32, 32)

	s1 := NewStream(key, 17, PurposeMutation, 3)
	s2 := NewStream(key, 17, PurposeMutation, 3)

	for i := 0; i < 10; i++ {
		a := s1.Uniform()
		b := s2.Uniform()
		if a != b {
			t.Fatalf("draw %d diverged: %f != %f", i, a, b)
		}
	}
}

func TestStreamDiffersByPurposeAndCell(t *testing.T) {
	key := NewKey(1, 4, 4)

	base := NewStream(key, 0, PurposeMutation, 0).Uniform()
	otherCell := NewStream(key, 1, PurposeMutation, 0).Uniform()
	otherPurpose := NewStream(key, 0, PurposeReproduction, 0).Uniform()
	otherGen := NewStream(key, 0, PurposeMutation, 1).Uniform()

	if base == otherCell || base == otherPurpose || base == otherGen {
		t.Fatalf("expected distinct substreams to diverge: %f %f %f %f", base, otherCell, otherPurpose, otherGen)
	}
}

func TestUniformRange(t *testing.T) {
	key := NewKey(7, 8, 8)
	s := NewStream(key, 5, PurposeMutation, 0)
	for i := 0; i < 10000; i++ {
		v := s.Uniform()
		if v < 0 || v >= 1 {
			t.Fatalf("uniform out of range: %f", v)
		}
	}
}

func TestUniformIntRange(t *testing.T) {
	key := NewKey(7, 8, 8)
	s := NewStream(key, 5, PurposeMutation, 0)
	for i := 0; i < 1000; i++ {
		v := s.UniformInt(10, 20)
		if v < 10 || v >= 20 {
			t.Fatalf("uniform_int out of range: %d", v)
		}
	}
}

func TestPoissonMeanApproximatesLambda(t *testing.T) {
	key := NewKey(9, 8, 8)
	s := NewStream(key, 2, PurposeMutation, 0)
	const lambda = 3.0
	const n = 20000
	total := 0
	for i := 0; i < n; i++ {
		total += s.Poisson(lambda)
	}
	mean := float64(total) / n
	if math.Abs(mean-lambda) > 0.15 {
		t.Fatalf("poisson mean %f too far from lambda %f", mean, lambda)
	}
}

func TestPoissonZeroLambdaAlwaysZero(t *testing.T) {
	key := NewKey(9, 8, 8)
	s := NewStream(key, 2, PurposeMutation, 0)
	for i := 0; i < 100; i++ {
		if got := s.Poisson(0); got != 0 {
			t.Fatalf("poisson(0) = %d, want 0", got)
		}
	}
}

func TestRouletteUniformity(t *testing.T) {
	key := NewKey(42, 8, 8)
	s := NewStream(key, 3, PurposeReproduction, 0)

	probs := make([]float64, 9)
	for i := range probs {
		probs[i] = 1.0 / 9.0
	}

	counts := make([]int, 9)
	const trials = 90000
	for i := 0; i < trials; i++ {
		counts[s.Roulette(probs)]++
	}

	expected := float64(trials) / 9.0
	chiSq := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chiSq += d * d / expected
	}
	// chi-square critical value for df=8 at p=0.01 is 20.09.
	if chiSq > 20.09 {
		t.Fatalf("roulette distribution not uniform enough: chiSq=%f counts=%v", chiSq, counts)
	}
}

func TestRouletteProbsSumToOne(t *testing.T) {
	probs := []float64{0.1, 0.2, 0.3, 0.4}
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("probs do not sum to 1: %f", sum)
	}
}
