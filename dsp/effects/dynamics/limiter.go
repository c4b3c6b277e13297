// Package dynamics implements the lookahead peak limiter that terminates
// the processing chain.
package dynamics

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-headfx/dsp/core"
)

const (
	// lookaheadMs is the program-path delay; the gain computer sees each
	// peak this long before it reaches the output.
	lookaheadMs = 5.0

	maxChannels = 8

	// gainSmoothing is the one-pole coefficient suppressing zipper noise
	// on the applied gain.
	gainSmoothing = 0.95

	// softClipKnee is the level above which the cubic soft clipper gives
	// way to a hard clamp.
	softClipKnee  = 1.5
	softClipCubic = 0.1481

	defaultThresholdDB = -0.1
	defaultRatio       = 20.0
	defaultAttackMs    = 0.1
	defaultReleaseMs   = 100.0
	defaultMakeupDB    = 0.0

	envelopeFloor = 1e-6
)

// Limiter is a lookahead peak limiter with makeup gain, stereo balance,
// envelope smoothing, and a cubic soft clipper. It admits up to 8 channels;
// channels beyond the eighth pass through untouched.
//
// Control-thread setters snapshot under a mutex that Process takes only
// briefly at the top of each block.
type Limiter struct {
	enabled atomic.Bool

	mu           sync.Mutex
	thresholdLin float64
	ratio        float64
	makeupLin    float64
	balance      float64
	attackMs     float64
	releaseMs    float64

	// Audio-thread state.
	sampleRate     float64
	channels       int
	coeffAttackMs  float64
	coeffReleaseMs float64
	attackCoeff    float64
	releaseCoeff   float64

	delayBuf      []float64
	delayWritePos int
	delayFrames   int

	envelope     float64
	smoothedGain float64
}

// New returns a Limiter with hard protection defaults (threshold -0.1 dB,
// ratio 20, attack 0.1 ms, release 100 ms, makeup 0 dB) and the stage
// disabled.
func New() *Limiter {
	l := &Limiter{smoothedGain: 1}
	l.SetParams(defaultThresholdDB, defaultRatio, defaultAttackMs, defaultReleaseMs, defaultMakeupDB)
	return l
}

// SetEnabled toggles the stage. Disabling resets all state so a later
// enable starts clean.
func (l *Limiter) SetEnabled(enabled bool) {
	l.enabled.Store(enabled)
	if !enabled {
		l.Reset()
	}
}

// Enabled reports whether the stage is active.
func (l *Limiter) Enabled() bool {
	return l.enabled.Load()
}

// SetParams updates threshold, ratio, attack, release, and makeup gain.
// Non-finite values keep the previous setting; ratio is floored at 1 and
// times at 0.
func (l *Limiter) SetParams(thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if core.IsFinite(thresholdDB) {
		l.thresholdLin = core.DBToLinear(thresholdDB)
	}
	if core.IsFinite(ratio) {
		l.ratio = math.Max(1, ratio)
	}
	if core.IsFinite(attackMs) {
		l.attackMs = math.Max(0, attackMs)
	}
	if core.IsFinite(releaseMs) {
		l.releaseMs = math.Max(0, releaseMs)
	}
	if core.IsFinite(makeupDB) {
		l.makeupLin = core.DBToLinear(makeupDB)
	}
}

// SetBalance sets the stereo balance in [-1, 1]; -1 is full left, 0
// centered. Values outside the range are clamped, non-finite values reset
// to center.
func (l *Limiter) SetBalance(balance float64) {
	if !core.IsFinite(balance) {
		balance = 0
	}

	l.mu.Lock()
	l.balance = core.Clamp(balance, -1, 1)
	l.mu.Unlock()
}

// Balance returns the current stereo balance.
func (l *Limiter) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Process limits an interleaved block in place. A sample-rate or
// channel-count change rebuilds the lookahead buffer and recomputes the
// envelope coefficients before the block runs.
func (l *Limiter) Process(buf []float64, frames, channels int, sampleRate float64) {
	if !l.enabled.Load() {
		return
	}

	if len(buf) == 0 || frames <= 0 || channels <= 0 || sampleRate <= 0 {
		return
	}

	l.mu.Lock()
	threshold := l.thresholdLin
	ratio := l.ratio
	makeup := l.makeupLin
	balance := l.balance
	attackMs := l.attackMs
	releaseMs := l.releaseMs
	l.mu.Unlock()

	if sampleRate != l.sampleRate || channels != l.channels {
		l.rebuildDelayBuffer(sampleRate, channels)
	}

	if attackMs != l.coeffAttackMs || releaseMs != l.coeffReleaseMs {
		l.updateCoefficients(attackMs, releaseMs)
	}

	if l.delayFrames == 0 {
		return
	}

	balGainL := 1 - math.Max(0, balance)
	balGainR := 1 + math.Min(0, balance)

	threshDB := 20 * math.Log10(threshold+envelopeFloor)
	slope := 1/ratio - 1

	n := channels
	if n > maxChannels {
		n = maxChannels
	}

	var frame [maxChannels]float64

	for i := 0; i < frames; i++ {
		base := i * channels

		maxAbs := 0.0
		for ch := 0; ch < n; ch++ {
			v := buf[base+ch] * makeup

			if ch == 0 {
				v *= balGainL
			}
			if ch == 1 {
				v *= balGainR
			}

			frame[ch] = v
			if a := math.Abs(v); a > maxAbs {
				maxAbs = a
			}
		}

		if maxAbs > l.envelope {
			l.envelope = l.attackCoeff*l.envelope + (1-l.attackCoeff)*maxAbs
		} else {
			l.envelope = l.releaseCoeff*l.envelope + (1-l.releaseCoeff)*maxAbs
		}

		gain := 1.0
		if l.envelope > threshold {
			envDB := 20 * math.Log10(l.envelope+envelopeFloor)
			gain = math.Pow(10, (envDB-threshDB)*slope/20)
		}

		l.smoothedGain = gainSmoothing*l.smoothedGain + (1-gainSmoothing)*gain

		for ch := 0; ch < n; ch++ {
			pos := l.delayWritePos*channels + ch
			delayed := l.delayBuf[pos]
			l.delayBuf[pos] = frame[ch]

			buf[base+ch] = softClip(delayed * l.smoothedGain)
		}

		l.delayWritePos++
		if l.delayWritePos >= l.delayFrames {
			l.delayWritePos = 0
		}
	}
}

// softClip applies the output stage: a cubic soft knee below 1.5, a hard
// clamp above, and a final clamp to [-1, 1].
func softClip(raw float64) float64 {
	if raw > softClipKnee {
		return 1
	}
	if raw < -softClipKnee {
		return -1
	}

	out := raw - softClipCubic*raw*raw*raw

	return core.Clamp(out, -1, 1)
}

// Reset zeroes the envelope and lookahead buffer and restores unity
// smoothed gain.
func (l *Limiter) Reset() {
	l.envelope = 0
	l.smoothedGain = 1
	l.delayWritePos = 0
	for i := range l.delayBuf {
		l.delayBuf[i] = 0
	}
}

func (l *Limiter) rebuildDelayBuffer(sampleRate float64, channels int) {
	l.sampleRate = sampleRate
	l.channels = channels

	l.delayFrames = int(math.Round(lookaheadMs * sampleRate / 1000))
	if l.delayFrames < 1 {
		l.delayFrames = 1
	}

	l.delayBuf = make([]float64, l.delayFrames*channels)
	l.delayWritePos = 0
	l.envelope = 0
	l.smoothedGain = 1

	// Coefficients depend on the sample rate; force a recompute.
	l.coeffAttackMs = math.NaN()
	l.coeffReleaseMs = math.NaN()
}

func (l *Limiter) updateCoefficients(attackMs, releaseMs float64) {
	l.coeffAttackMs = attackMs
	l.coeffReleaseMs = releaseMs

	attackSamples := attackMs * l.sampleRate / 1000
	if attackSamples < 1 {
		l.attackCoeff = 0
	} else {
		l.attackCoeff = math.Exp(-1 / attackSamples)
	}

	releaseSamples := releaseMs * l.sampleRate / 1000
	if releaseSamples < 1 {
		l.releaseCoeff = 0
	} else {
		l.releaseCoeff = math.Exp(-1 / releaseSamples)
	}
}
