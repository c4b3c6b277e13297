// Package biquad provides second-order IIR filter runtime primitives for
// interleaved multichannel blocks.
//
// A [Filter] implements Direct Form I processing with independent state per
// channel, so a single instance filters an interleaved block coherently.
// Coefficient design follows the RBJ audio EQ cookbook (see [Design]).
package biquad

import "math"

// FilterType selects the RBJ coefficient variant.
type FilterType int

const (
	LowShelf FilterType = iota
	Peaking
	HighShelf
)

const (
	// maxChannels bounds the per-channel state arrays.
	maxChannels = 8

	// gainDeadZoneDB is the minimum gain change that triggers a
	// coefficient recompute. Smaller deltas are absorbed so UI slider
	// jitter does not churn coefficients.
	gainDeadZoneDB = 0.01
)

// Filter is a single tunable biquad section with per-channel Direct Form I
// state for up to 8 channels.
//
// SetParams and UpdateGain recompute coefficients and must not be called
// concurrently with Process; callers serialize through their own stage lock.
type Filter struct {
	typ        FilterType
	freq       float64
	q          float64
	gainDB     float64
	sampleRate float64

	coeffs Coefficients

	x1, x2 [maxChannels]float64
	y1, y2 [maxChannels]float64
}

// NewFilter returns a Filter tuned to the given parameters.
func NewFilter(typ FilterType, freq, q, gainDB, sampleRate float64) *Filter {
	f := &Filter{}
	f.SetParams(typ, freq, q, gainDB, sampleRate)
	return f
}

// SetParams retunes the filter and recomputes coefficients.
func (f *Filter) SetParams(typ FilterType, freq, q, gainDB, sampleRate float64) {
	f.typ = typ
	f.freq = freq
	f.q = q
	f.gainDB = gainDB
	f.sampleRate = sampleRate
	f.coeffs = Design(typ, freq, q, gainDB, sampleRate)
}

// UpdateGain recomputes coefficients for a new gain. Changes smaller than
// 0.01 dB are ignored.
func (f *Filter) UpdateGain(gainDB float64) {
	if math.Abs(f.gainDB-gainDB) < gainDeadZoneDB {
		return
	}

	f.gainDB = gainDB
	f.coeffs = Design(f.typ, f.freq, f.q, f.gainDB, f.sampleRate)
}

// GainDB returns the current gain in dB.
func (f *Filter) GainDB() float64 { return f.gainDB }

// SetSampleRate retunes the filter for a new sample rate, keeping all other
// parameters. State is preserved.
func (f *Filter) SetSampleRate(sampleRate float64) {
	f.sampleRate = sampleRate
	f.coeffs = Design(f.typ, f.freq, f.q, f.gainDB, f.sampleRate)
}

// Process filters an interleaved block in place. Channels beyond the eighth
// are passed through untouched; their presence never aliases state of the
// processed channels.
func (f *Filter) Process(buf []float64, frames, channels int) {
	if len(buf) == 0 || frames <= 0 || channels <= 0 {
		return
	}

	n := channels
	if n > maxChannels {
		n = maxChannels
	}

	b0, b1, b2 := f.coeffs.B0, f.coeffs.B1, f.coeffs.B2
	a1, a2 := f.coeffs.A1, f.coeffs.A2

	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 0; ch < n; ch++ {
			x := buf[base+ch]

			y := b0*x + b1*f.x1[ch] + b2*f.x2[ch] - a1*f.y1[ch] - a2*f.y2[ch]

			f.x2[ch] = f.x1[ch]
			f.x1[ch] = x
			f.y2[ch] = f.y1[ch]
			f.y1[ch] = y

			buf[base+ch] = y
		}
	}
}

// Reset zeroes all per-channel state and recomputes coefficients.
func (f *Filter) Reset() {
	for ch := 0; ch < maxChannels; ch++ {
		f.x1[ch] = 0
		f.x2[ch] = 0
		f.y1[ch] = 0
		f.y2[ch] = 0
	}
	f.coeffs = Design(f.typ, f.freq, f.q, f.gainDB, f.sampleRate)
}
