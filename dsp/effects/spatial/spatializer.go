// Package spatial implements a binaural positioner that renders a stereo
// source at an (azimuth, elevation) direction using an interaural time
// difference from the Woodworth spherical-head model and a head-shadow
// level difference.
package spatial

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-headfx/dsp/delay"
)

const (
	// delayLineSize fixes both ear delay lines at 4096 samples; the ITD
	// is clamped to delayLineSize-1.
	delayLineSize = 4096

	defaultHeadRadius   = 0.0875
	defaultSpeedOfSound = 343.0

	minHeadRadius   = 0.05
	maxHeadRadius   = 0.15
	minSpeedOfSound = 300.0
	maxSpeedOfSound = 370.0

	// farEarShadow scales the head-shadow attenuation of the far ear:
	// gain = 1 - farEarShadow * sin|azimuth|.
	farEarShadow = 0.6
)

// Option mutates spatializer construction parameters.
type Option func(*config) error

type config struct {
	headRadius   float64
	speedOfSound float64
}

// WithHeadRadius sets the spherical-head radius in meters.
func WithHeadRadius(radius float64) Option {
	return func(cfg *config) error {
		if radius < minHeadRadius || radius > maxHeadRadius ||
			math.IsNaN(radius) || math.IsInf(radius, 0) {
			return fmt.Errorf("spatializer head radius must be in [%g, %g]: %f",
				minHeadRadius, maxHeadRadius, radius)
		}

		cfg.headRadius = radius

		return nil
	}
}

// WithSpeedOfSound sets the speed-of-sound model in m/s.
func WithSpeedOfSound(speed float64) Option {
	return func(cfg *config) error {
		if speed < minSpeedOfSound || speed > maxSpeedOfSound ||
			math.IsNaN(speed) || math.IsInf(speed, 0) {
			return fmt.Errorf("spatializer speed of sound must be in [%g, %g]: %f",
				minSpeedOfSound, maxSpeedOfSound, speed)
		}

		cfg.speedOfSound = speed

		return nil
	}
}

// Spatializer is a stereo-only stage. Azimuth 0 is straight ahead, positive
// to the right; both angles are in radians.
type Spatializer struct {
	enabled atomic.Bool

	headRadius   float64
	speedOfSound float64

	lineL, lineR *delay.Line
}

// New creates a spatializer with both ear delay lines allocated and the
// stage disabled.
func New(opts ...Option) (*Spatializer, error) {
	cfg := config{
		headRadius:   defaultHeadRadius,
		speedOfSound: defaultSpeedOfSound,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	lineL, _ := delay.New(delayLineSize)
	lineR, _ := delay.New(delayLineSize)

	return &Spatializer{
		headRadius:   cfg.headRadius,
		speedOfSound: cfg.speedOfSound,
		lineL:        lineL,
		lineR:        lineR,
	}, nil
}

// SetEnabled toggles the stage.
func (s *Spatializer) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// Enabled reports whether the stage is active.
func (s *Spatializer) Enabled() bool {
	return s.enabled.Load()
}

// Process renders the block at the given direction in place. The buffer is
// interleaved stereo; frames is the number of stereo frames.
//
// The contralateral ear (facing away from the source) receives the
// Woodworth ITD delay and the head-shadow attenuation; the elevation
// factor cos(elevation) scales both ears.
func (s *Spatializer) Process(buf []float64, frames int, azimuth, elevation, sampleRate float64) {
	if !s.enabled.Load() {
		return
	}

	if len(buf) == 0 || frames <= 0 || len(buf) < frames*2 || sampleRate <= 0 {
		return
	}

	absAz := math.Abs(azimuth)

	itd := (s.headRadius / s.speedOfSound) * (math.Sin(absAz) + absAz) * sampleRate
	if itd > delayLineSize-1 {
		itd = delayLineSize - 1
	}
	if itd < 0 || math.IsNaN(itd) {
		itd = 0
	}

	shadow := 1 - farEarShadow*math.Sin(absAz)

	delayL, delayR := 0.0, 0.0
	gainL, gainR := 1.0, 1.0
	switch {
	case azimuth > 0: // source on the right: left ear is far
		delayL = itd
		gainL = shadow
	case azimuth < 0: // source on the left: right ear is far
		delayR = itd
		gainR = shadow
	}

	elevationGain := math.Cos(elevation)
	gainL *= elevationGain
	gainR *= elevationGain

	for i := 0; i < frames; i++ {
		s.lineL.Write(buf[2*i])
		s.lineR.Write(buf[2*i+1])

		// Line reads are relative to the last write, so delay+1
		// addresses the sample written this frame at delay 0.
		buf[2*i] = s.lineL.ReadFractional(delayL+1) * gainL
		buf[2*i+1] = s.lineR.ReadFractional(delayR+1) * gainR
	}
}

// Reset clears both ear delay lines.
func (s *Spatializer) Reset() {
	s.lineL.Reset()
	s.lineR.Reset()
}
