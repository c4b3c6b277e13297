package chain

import "encoding/binary"

const (
	pcm16Scale    = 32768.0
	pcm16MaxOut   = 32767.0
	bytesPerPCM16 = 2
)

// ProcessFloat runs the chain in place over an interleaved stereo float32
// block. Angles are in radians. Empty or odd-length blocks are no-ops, as
// is a block with every stage disabled.
func (c *Chain) ProcessFloat(block []float32, azimuth, elevation float32, sampleRate int) {
	if len(block) == 0 || len(block)%2 != 0 || sampleRate <= 0 {
		return
	}

	if !c.anyEnabled() {
		return
	}

	sr := float64(sampleRate)
	c.trackSampleRate(sr)

	frames := len(block) / 2
	buf := c.ensureScratch(len(block))
	for i, v := range block {
		buf[i] = float64(v)
	}

	c.run(buf, frames, 2, float64(azimuth), float64(elevation), sr)

	for i, v := range buf {
		block[i] = float32(v)
	}
}

// ProcessPCM16 runs the chain in place over an interleaved int16 block.
// Samples are converted to float via /32768, processed, clamped to [-1, 1],
// scaled by 32767, and truncated back to int16.
func (c *Chain) ProcessPCM16(block []int16, frames, channels, sampleRate int, azimuth, elevation float32) {
	if len(block) == 0 || frames <= 0 || channels <= 0 || sampleRate <= 0 {
		return
	}

	n := frames * channels
	if len(block) < n {
		return
	}

	if !c.anyEnabled() {
		return
	}

	sr := float64(sampleRate)
	c.trackSampleRate(sr)

	buf := c.ensureScratch(n)
	for i := 0; i < n; i++ {
		buf[i] = float64(block[i]) / pcm16Scale
	}

	c.run(buf, frames, channels, float64(azimuth), float64(elevation), sr)

	for i := 0; i < n; i++ {
		block[i] = clampToPCM16(buf[i])
	}
}

// ProcessPCM16Bytes is ProcessPCM16 over a little-endian byte view of the
// int16 block, matching hosts that hand over raw byte buffers.
func (c *Chain) ProcessPCM16Bytes(block []byte, frames, channels, sampleRate int, azimuth, elevation float32) {
	if len(block) == 0 || frames <= 0 || channels <= 0 || sampleRate <= 0 {
		return
	}

	n := frames * channels
	if len(block) < n*bytesPerPCM16 {
		return
	}

	if !c.anyEnabled() {
		return
	}

	sr := float64(sampleRate)
	c.trackSampleRate(sr)

	buf := c.ensureScratch(n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(block[i*bytesPerPCM16:]))
		buf[i] = float64(s) / pcm16Scale
	}

	c.run(buf, frames, channels, float64(azimuth), float64(elevation), sr)

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(block[i*bytesPerPCM16:], uint16(clampToPCM16(buf[i])))
	}
}

// clampToPCM16 clamps a float sample to [-1, 1] and truncates to int16.
func clampToPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * pcm16MaxOut)
}
