// Package pitch implements a dual delay-line pitch shifter with triangular
// crossfading. It is a standalone effect that the default chain does not
// include; the chain offers no hook to run it between its stages, and the
// headfx command applies it to the chain's output.
package pitch

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-headfx/dsp/core"
)

const (
	// windowSamples is the sweep range of the two read taps; the
	// crossfade hides the discontinuity when a tap wraps.
	windowSamples = 4096.0

	// bufferFrames sizes the shared delay buffer, large enough for the
	// lowest supported ratio.
	bufferFrames = 8192

	minRatio = 0.1
	maxRatio = 5.0

	// identityEpsilon disables the shifter when the ratio is close
	// enough to 1 that shifting would only add artifacts.
	identityEpsilon = 0.01
)

// Shifter shifts pitch by resampling two delay-line taps that sweep at the
// ratio-dependent rate, crossfaded to mask wrap glitches. Mono and stereo
// only; blocks with more channels are left untouched.
type Shifter struct {
	enabled atomic.Bool

	mu         sync.Mutex
	ratio      float64
	sampleRate int

	buf        []float64
	writeIndex int
	pos1, pos2 float64
}

// NewShifter returns a Shifter at unity ratio (disabled).
func NewShifter() *Shifter {
	s := &Shifter{
		ratio:      1,
		sampleRate: 44100,
		buf:        make([]float64, bufferFrames*2),
	}
	s.resetLocked()
	return s
}

// SetParams updates the pitch ratio (clamped to [0.1, 5]) and sample rate.
// The shifter auto-enables only when the ratio differs from unity by more
// than 0.01.
func (s *Shifter) SetParams(ratio float64, sampleRate int) {
	if !core.IsFinite(ratio) {
		ratio = 1
	}

	s.mu.Lock()
	s.ratio = core.Clamp(ratio, minRatio, maxRatio)
	if sampleRate > 0 {
		s.sampleRate = sampleRate
	}
	enabled := math.Abs(s.ratio-1) > identityEpsilon
	s.mu.Unlock()

	s.enabled.Store(enabled)
}

// Ratio returns the current pitch ratio.
func (s *Shifter) Ratio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio
}

// Enabled reports whether the shifter is active.
func (s *Shifter) Enabled() bool {
	return s.enabled.Load()
}

// Process shifts an interleaved block in place. Channel counts above 2 are
// rejected as a silent no-op.
func (s *Shifter) Process(buf []float64, frames, channels int) {
	if !s.enabled.Load() {
		return
	}

	if len(buf) == 0 || frames <= 0 || channels <= 0 || channels > 2 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rate := 1 - s.ratio
	bufferSize := len(s.buf) / channels

	for i := 0; i < frames; i++ {
		// Triangular crossfade between the two taps, maximal when a tap
		// is near its wrap point.
		crossfade := math.Abs(s.pos1-windowSamples/2) / (windowSamples / 2)

		for ch := 0; ch < channels; ch++ {
			in := buf[i*channels+ch]
			s.buf[s.writeIndex*channels+ch] = in

			out1 := s.readTap(ch, s.pos1, channels, bufferSize)
			out2 := s.readTap(ch, s.pos2, channels, bufferSize)

			buf[i*channels+ch] = out1*(1-crossfade) + out2*crossfade
		}

		s.pos1 += rate
		for s.pos1 >= windowSamples {
			s.pos1 -= windowSamples
		}
		for s.pos1 < 0 {
			s.pos1 += windowSamples
		}

		s.pos2 = s.pos1 + windowSamples/2
		for s.pos2 >= windowSamples {
			s.pos2 -= windowSamples
		}

		s.writeIndex++
		if s.writeIndex >= bufferSize {
			s.writeIndex = 0
		}
	}
}

// readTap reads a fractional offset behind the write index with linear
// interpolation.
func (s *Shifter) readTap(channel int, offset float64, channels, bufferSize int) float64 {
	readIdx := float64(s.writeIndex) - offset
	for readIdx < 0 {
		readIdx += float64(bufferSize)
	}

	i1 := int(readIdx) % bufferSize
	i2 := (i1 + 1) % bufferSize
	frac := readIdx - math.Floor(readIdx)

	v1 := s.buf[i1*channels+channel]
	v2 := s.buf[i2*channels+channel]

	return v1 + frac*(v2-v1)
}

// Reset clears the delay buffer and tap positions.
func (s *Shifter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Shifter) resetLocked() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.writeIndex = 0
	s.pos1 = 0
	s.pos2 = windowSamples / 2
}
