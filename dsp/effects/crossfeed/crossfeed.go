// Package crossfeed implements a headphone-listening correction that feeds a
// delayed, low-passed copy of the opposite channel into each ear, softening
// the exaggerated stereo separation of headphones.
package crossfeed

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-headfx/dsp/core"
	"github.com/cwbudde/algo-headfx/dsp/delay"
)

const (
	// delayLineSize fixes both channel delay lines at 128 samples.
	delayLineSize = 128

	// crossDelaySeconds is the interaural path delay applied to the
	// opposite channel, about 300 us around the head.
	crossDelaySeconds = 300e-6

	// lowpassHz shapes the crossfeed with a one-pole low-pass,
	// modelling head shadowing of high frequencies.
	lowpassHz = 700.0

	maxDelaySamples = delayLineSize - 1
)

// Crossfeed is a stereo-only stage. The control thread drives SetParams;
// the audio thread drives Process.
type Crossfeed struct {
	enabled atomic.Bool

	mu       sync.Mutex
	strength float64

	sampleRate   float64
	delaySamples int
	lpA0, lpB1   float64

	lineL, lineR       *delay.Line
	lpStateL, lpStateR float64
}

// New returns a Crossfeed with both delay lines allocated and the stage
// disabled.
func New() *Crossfeed {
	lineL, _ := delay.New(delayLineSize)
	lineR, _ := delay.New(delayLineSize)

	return &Crossfeed{
		strength: 0,
		lineL:    lineL,
		lineR:    lineR,
	}
}

// SetParams updates the enable flag and strength. Strength is clamped to
// [0, 1]; non-finite values fall back to 0.
func (c *Crossfeed) SetParams(enabled bool, strength float64) {
	if !core.IsFinite(strength) {
		strength = 0
	}

	c.mu.Lock()
	c.strength = core.Clamp(strength, 0, 1)
	c.mu.Unlock()

	c.enabled.Store(enabled)
}

// Enabled reports whether the stage is active.
func (c *Crossfeed) Enabled() bool {
	return c.enabled.Load()
}

// Strength returns the current crossfeed strength in [0, 1].
func (c *Crossfeed) Strength() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strength
}

// Process applies crossfeed to an interleaved block in place. Non-stereo
// blocks are left untouched. A sample-rate change retunes the delay and
// low-pass and clears all state.
func (c *Crossfeed) Process(buf []float64, frames, channels int, sampleRate float64) {
	if !c.enabled.Load() {
		return
	}

	if len(buf) == 0 || frames <= 0 || channels != 2 {
		return
	}

	c.mu.Lock()
	s := c.strength
	c.mu.Unlock()

	if sampleRate != c.sampleRate {
		c.configure(sampleRate)
	}

	dry := 1 - 0.5*s
	a0, b1 := c.lpA0, c.lpB1
	d := c.delaySamples

	for i := 0; i < frames; i++ {
		l := buf[2*i]
		r := buf[2*i+1]

		dl := c.lineL.Read(d)
		dr := c.lineR.Read(d)
		c.lineL.Write(l)
		c.lineR.Write(r)

		c.lpStateL = a0*dr + b1*c.lpStateL
		c.lpStateR = a0*dl + b1*c.lpStateR

		buf[2*i] = l*dry + c.lpStateL*s
		buf[2*i+1] = r*dry + c.lpStateR*s
	}
}

// Reset clears delay lines and low-pass state.
func (c *Crossfeed) Reset() {
	c.lineL.Reset()
	c.lineR.Reset()
	c.lpStateL = 0
	c.lpStateR = 0
}

func (c *Crossfeed) configure(sampleRate float64) {
	c.sampleRate = sampleRate

	d := int(math.Round(crossDelaySeconds * sampleRate))
	if d < 1 {
		d = 1
	}
	if d > maxDelaySamples {
		d = maxDelaySamples
	}
	c.delaySamples = d

	x := math.Exp(-2 * math.Pi * lowpassHz / sampleRate)
	c.lpA0 = 1 - x
	c.lpB1 = x

	c.Reset()
}
