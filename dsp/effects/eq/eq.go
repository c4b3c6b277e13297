// Package eq implements a fixed 10-band graphic equalizer on ISO center
// frequencies, built as a cascade of tunable biquad sections.
package eq

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-headfx/dsp/core"
	"github.com/cwbudde/algo-headfx/dsp/filter/biquad"
)

const (
	// BandCount is the fixed number of bands.
	BandCount = 10

	// bandQ is the per-band quality factor.
	bandQ = 1.41

	// maxBandGainDB bounds each band's gain to +/-15 dB.
	maxBandGainDB = 15.0
)

// bandFrequencies are the ISO center frequencies in Hz.
var bandFrequencies = [BandCount]float64{31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// GraphicEQ is a cascade of 10 biquads: a low shelf at 31 Hz, a high shelf
// at 16 kHz, and peaking sections in between. Band gains retune on the
// control thread; Process runs the cascade on the audio thread under the
// same lock, so retunes land on block boundaries.
type GraphicEQ struct {
	enabled atomic.Bool

	mu         sync.Mutex
	sampleRate float64
	bands      [BandCount]*biquad.Filter
}

// New returns a GraphicEQ tuned for the given sample rate with all band
// gains at 0 dB and the stage disabled.
func New(sampleRate float64) *GraphicEQ {
	e := &GraphicEQ{sampleRate: sampleRate}
	for i := range e.bands {
		e.bands[i] = biquad.NewFilter(bandType(i), bandFrequencies[i], bandQ, 0, sampleRate)
	}
	return e
}

func bandType(index int) biquad.FilterType {
	switch index {
	case 0:
		return biquad.LowShelf
	case BandCount - 1:
		return biquad.HighShelf
	default:
		return biquad.Peaking
	}
}

// SetEnabled toggles the stage.
func (e *GraphicEQ) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

// Enabled reports whether the stage is active.
func (e *GraphicEQ) Enabled() bool {
	return e.enabled.Load()
}

// SetBandGain updates one band's gain in dB, clamped to +/-15 dB.
// Out-of-range band indices are ignored.
func (e *GraphicEQ) SetBandGain(index int, gainDB float64) {
	if index < 0 || index >= BandCount {
		return
	}

	if !core.IsFinite(gainDB) {
		gainDB = 0
	}

	e.mu.Lock()
	e.bands[index].UpdateGain(core.Clamp(gainDB, -maxBandGainDB, maxBandGainDB))
	e.mu.Unlock()
}

// BandGain returns the current gain of a band in dB, or 0 for out-of-range
// indices.
func (e *GraphicEQ) BandGain(index int) float64 {
	if index < 0 || index >= BandCount {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bands[index].GainDB()
}

// BandFrequency returns the ISO center frequency of a band in Hz, or 0 for
// out-of-range indices.
func BandFrequency(index int) float64 {
	if index < 0 || index >= BandCount {
		return 0
	}
	return bandFrequencies[index]
}

// SetSampleRate retunes all bands for a new sample rate, keeping their
// stored gains.
func (e *GraphicEQ) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if sampleRate == e.sampleRate {
		return
	}

	e.sampleRate = sampleRate
	for _, b := range e.bands {
		b.SetSampleRate(sampleRate)
	}
}

// Process runs the cascade over an interleaved block in place.
func (e *GraphicEQ) Process(buf []float64, frames, channels int) {
	if !e.enabled.Load() {
		return
	}

	if len(buf) == 0 || frames <= 0 || channels <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.bands {
		b.Process(buf, frames, channels)
	}
}

// Reset clears all band filter state.
func (e *GraphicEQ) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.bands {
		b.Reset()
	}
}
