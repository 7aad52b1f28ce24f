package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var ErrTooShort = errors.New("series too short")

type Spectrum struct {
	Freqs     []float64
	Amplitude []float64
}

// ComputeSpectrum removes the mean, applies a Hann window and returns the
// one-sided amplitude spectrum. dt is the sample spacing.
func ComputeSpectrum(samples []float64, dt float64) (*Spectrum, error) {
	n := len(samples)
	if n < 4 {
		return nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, errors.New("sample spacing must be positive")
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range samples {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	bins := n/2 + 1
	s := &Spectrum{
		Freqs:     make([]float64, bins),
		Amplitude: make([]float64, bins),
	}
	for i := 0; i < bins; i++ {
		s.Freqs[i] = float64(i) / (float64(n) * dt)
		s.Amplitude[i] = cmplx.Abs(coeffs[i]) / float64(n)
	}
	return s, nil
}

// DominantFrequency returns the frequency and amplitude of the strongest
// non-DC bin.
func DominantFrequency(samples []float64, dt float64) (float64, float64, error) {
	s, err := ComputeSpectrum(samples, dt)
	if err != nil {
		return 0, 0, err
	}

	best := 1
	for i := 2; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > s.Amplitude[best] {
			best = i
		}
	}
	return s.Freqs[best], s.Amplitude[best], nil
}

// SettleIndex returns the first index from which every sample stays within
// tol of zero, or -1 if the series never settles.
func SettleIndex(samples []float64, tol float64) int {
	idx := -1
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(samples[i]) > tol {
			break
		}
		idx = i
	}
	return idx
}

// Extent returns the smallest and largest sample.
func Extent(samples []float64) (lo, hi float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	lo, hi = samples[0], samples[0]
	for _, v := range samples[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
