// Package target builds the fixed fitness-landscape curve that every
// organism's phenotype is compared against: a sum of three Gaussians
// sampled across the phenotype resolution and clipped to a fixed range.
package target

import "math"

// Gaussian is one term of the target curve.
type Gaussian struct {
	Mu, Sigma, Amplitude float64
}

// Eval evaluates the Gaussian at x.
func (g Gaussian) Eval(x float64) float64 {
	d := x - g.Mu
	return g.Amplitude * math.Exp(-(d*d)/(2*g.Sigma*g.Sigma))
}

// DefaultGaussians are the three fixed terms used to build the target curve.
func DefaultGaussians() [3]Gaussian {
	return [3]Gaussian{
		{Mu: 1.2, Sigma: 0.52, Amplitude: 0.12},
		{Mu: -1.4, Sigma: 0.5, Amplitude: 0.07},
		{Mu: 0.3, Sigma: 0.8, Amplitude: 0.03},
	}
}

// Build samples the sum of gaussians at resolution points across [0,1],
// clipped to [yMin, yMax].
func Build(resolution int, gaussians [3]Gaussian, yMin, yMax float64) []float64 {
	curve := make([]float64, resolution)
	for i := 0; i < resolution; i++ {
		x := float64(i) / float64(resolution)
		v := 0.0
		for _, g := range gaussians {
			v += g.Eval(x)
		}
		curve[i] = clamp(v, yMin, yMax)
	}
	return curve
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
