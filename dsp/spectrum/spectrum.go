// Package spectrum provides a small magnitude-spectrum analyzer used to
// verify filter response and to drive spectrum printouts.
package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Analyzer computes Hann-windowed magnitude spectra of real signals.
// Work buffers are allocated once; Magnitudes is allocation-free in steady
// state apart from its result slice.
type Analyzer struct {
	size int
	plan *algofft.Plan[complex128]

	window []float64
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
}

// NewAnalyzer creates an analyzer for the given FFT size, which must be a
// power of two and at least 2.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum analyzer size must be a power of two >= 2: %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum analyzer: failed to create FFT plan: %w", err)
	}

	bins := size/2 + 1

	a := &Analyzer{
		size:   size,
		plan:   plan,
		window: make([]float64, size),
		in:     make([]complex128, size),
		out:    make([]complex128, size),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
	}

	for i := range a.window {
		a.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}

	return a, nil
}

// Size returns the FFT size.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of non-negative-frequency bins (size/2 + 1).
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// Magnitudes computes |X[k]| for the non-negative-frequency bins of the
// signal. Signals shorter than the FFT size are zero-padded; longer ones
// are truncated.
func (a *Analyzer) Magnitudes(signal []float64) []float64 {
	n := len(signal)
	if n > a.size {
		n = a.size
	}

	for i := 0; i < n; i++ {
		a.in[i] = complex(signal[i]*a.window[i], 0)
	}
	for i := n; i < a.size; i++ {
		a.in[i] = 0
	}

	err := a.plan.Forward(a.out, a.in)
	if err != nil {
		return nil
	}

	bins := a.Bins()
	for i := 0; i < bins; i++ {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}

	mags := make([]float64, bins)
	vecmath.Magnitude(mags, a.re, a.im)

	return mags
}

// BinIndex returns the bin closest to freq at the given sample rate,
// clamped to the valid range.
func (a *Analyzer) BinIndex(freq, sampleRate float64) int {
	if sampleRate <= 0 {
		return 0
	}

	bin := int(math.Round(freq * float64(a.size) / sampleRate))
	if bin < 0 {
		bin = 0
	}
	if bin > a.size/2 {
		bin = a.size / 2
	}

	return bin
}

// BinFrequency returns the center frequency of a bin in Hz.
func (a *Analyzer) BinFrequency(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(a.size)
}

// LevelAround returns the RMS magnitude over the 2*halfWidth+1 bins
// centered on freq. Used to compare band energy between two frequencies.
func (a *Analyzer) LevelAround(mags []float64, freq, sampleRate float64, halfWidth int) float64 {
	if len(mags) == 0 || halfWidth < 0 {
		return 0
	}

	center := a.BinIndex(freq, sampleRate)

	lo := center - halfWidth
	if lo < 0 {
		lo = 0
	}
	hi := center + halfWidth
	if hi > len(mags)-1 {
		hi = len(mags) - 1
	}

	var sum float64
	for i := lo; i <= hi; i++ {
		sum += mags[i] * mags[i]
	}

	return math.Sqrt(sum / float64(hi-lo+1))
}
