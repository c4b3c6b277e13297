// Package chain assembles the headphone post-processing pipeline:
// crossfeed, 10-band equalizer, binaural spatializer, and lookahead
// limiter, in that fixed order. The ordering is audible and part of the
// contract.
//
// A Chain is driven by two threads: the host's audio callback invokes the
// Process entry points at block rate, and a control thread retunes stages
// through the setters. Stage enables are atomics. The crossfeed and limiter
// snapshot their grouped parameters under short per-stage locks at the top
// of each block; the equalizer holds its lock for the whole cascade over the
// block. Either way, updates land on block boundaries.
package chain

import (
	"github.com/cwbudde/algo-headfx/dsp/effects/crossfeed"
	"github.com/cwbudde/algo-headfx/dsp/effects/dynamics"
	"github.com/cwbudde/algo-headfx/dsp/effects/eq"
	"github.com/cwbudde/algo-headfx/dsp/effects/pitch"
	"github.com/cwbudde/algo-headfx/dsp/effects/spatial"
)

// defaultSampleRate seeds the equalizer before the first block reveals the
// host's true rate; the first Process call retunes if they differ.
const defaultSampleRate = 44100.0

// Chain owns one instance of each stage. Create one per host session; the
// zero value is not usable, use New.
type Chain struct {
	crossfeed   *crossfeed.Crossfeed
	eq          *eq.GraphicEQ
	spatializer *spatial.Spatializer
	limiter     *dynamics.Limiter

	// The pitch shifter ships with the chain but is not part of the
	// pipeline; hosts drive it separately.
	pitch *pitch.Shifter

	// Audio-thread state: scratch grows monotonically and never shrinks,
	// trading resident memory for allocation-free steady state.
	scratch    []float64
	sampleRate float64
}

// New returns a Chain with all stages allocated and disabled.
func New() *Chain {
	sp, _ := spatial.New()

	return &Chain{
		crossfeed:   crossfeed.New(),
		eq:          eq.New(defaultSampleRate),
		spatializer: sp,
		limiter:     dynamics.New(),
		pitch:       pitch.NewShifter(),
	}
}

// SetSpatializerEnabled toggles the spatializer stage.
func (c *Chain) SetSpatializerEnabled(enabled bool) {
	c.spatializer.SetEnabled(enabled)
}

// SetLimiterEnabled toggles the limiter stage; disabling resets its state.
func (c *Chain) SetLimiterEnabled(enabled bool) {
	c.limiter.SetEnabled(enabled)
}

// SetLimiterParams updates the limiter's threshold (dB), ratio, attack and
// release times (ms), and makeup gain (dB).
func (c *Chain) SetLimiterParams(thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) {
	c.limiter.SetParams(thresholdDB, ratio, attackMs, releaseMs, makeupDB)
}

// SetLimiterBalance sets the stereo balance in [-1, 1], clamped.
func (c *Chain) SetLimiterBalance(balance float64) {
	c.limiter.SetBalance(balance)
}

// SetEqEnabled toggles the equalizer stage.
func (c *Chain) SetEqEnabled(enabled bool) {
	c.eq.SetEnabled(enabled)
}

// SetEqBand sets one equalizer band's gain in dB, clamped to +/-15.
func (c *Chain) SetEqBand(bandIndex int, gainDB float64) {
	c.eq.SetBandGain(bandIndex, gainDB)
}

// SetCrossfeedParams updates the crossfeed enable and strength in [0, 1].
func (c *Chain) SetCrossfeedParams(enabled bool, strength float64) {
	c.crossfeed.SetParams(enabled, strength)
}

// SetPitchRatio configures the standalone pitch shifter for hosts that run
// it outside the chain.
func (c *Chain) SetPitchRatio(ratio float64, sampleRate int) {
	c.pitch.SetParams(ratio, sampleRate)
}

// Pitch exposes the standalone pitch shifter.
func (c *Chain) Pitch() *pitch.Shifter {
	return c.pitch
}

// Reset clears the state of every stage.
func (c *Chain) Reset() {
	c.crossfeed.Reset()
	c.eq.Reset()
	c.spatializer.Reset()
	c.limiter.Reset()
	c.pitch.Reset()
}

// anyEnabled reports whether any pipeline stage would touch the block.
func (c *Chain) anyEnabled() bool {
	return c.crossfeed.Enabled() || c.eq.Enabled() ||
		c.spatializer.Enabled() || c.limiter.Enabled()
}

// ensureScratch returns the scratch slice sized to n samples, growing the
// backing array if needed. This is the only audio-thread allocation apart
// from the limiter's sample-rate rebuild.
func (c *Chain) ensureScratch(n int) []float64 {
	if cap(c.scratch) < n {
		c.scratch = make([]float64, n)
	}
	return c.scratch[:n]
}

// trackSampleRate retunes the equalizer when the host sample rate changes;
// the other stages watch the per-call rate themselves.
func (c *Chain) trackSampleRate(sampleRate float64) {
	if sampleRate == c.sampleRate {
		return
	}
	c.sampleRate = sampleRate
	c.eq.SetSampleRate(sampleRate)
}

// run invokes the pipeline stages in their fixed order over an interleaved
// scratch block.
func (c *Chain) run(buf []float64, frames, channels int, azimuth, elevation, sampleRate float64) {
	c.crossfeed.Process(buf, frames, channels, sampleRate)
	c.eq.Process(buf, frames, channels)
	if channels == 2 {
		c.spatializer.Process(buf, frames, azimuth, elevation, sampleRate)
	}
	c.limiter.Process(buf, frames, channels, sampleRate)
}
