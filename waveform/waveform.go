// Package waveform extracts peak-bucket summaries from raw 16-bit PCM
// files for scrub-bar previews. Files are treated as headerless
// little-endian mono PCM16; no format parsing is attempted.
//
// On unix the file is accessed through a read-only private memory mapping,
// so multi-megabyte files are never copied into user memory and the page
// cache absorbs repeated scans while the user scrubs.
package waveform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	bytesPerSample = 2

	// scanStride sub-samples each bucket. Scrub previews do not need
	// every sample, and the stride keeps extraction latency flat for
	// long files.
	scanStride = 100
)

// ErrFileTooSmall is returned for files shorter than one PCM16 sample.
var ErrFileTooSmall = errors.New("waveform: file smaller than one sample")

// Extract returns up to points peak values in [0, 1] summarizing the file.
// The result length is min(points, sample count). The mapping (or fallback
// read) is released before return on every path.
func Extract(path string, points int) ([]float64, error) {
	if path == "" {
		return nil, errors.New("waveform: empty path")
	}

	if points <= 0 {
		return nil, fmt.Errorf("waveform: point count must be > 0: %d", points)
	}

	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer release()

	if len(data) < bytesPerSample {
		return nil, ErrFileTooSmall
	}

	return extractPeaks(data, points), nil
}

// extractPeaks scans bucket peak values from a raw little-endian PCM16
// byte view.
func extractPeaks(data []byte, points int) []float64 {
	samples := len(data) / bytesPerSample

	actual := points
	if samples < actual {
		actual = samples
	}

	peaks := make([]float64, actual)
	perPoint := samples / actual
	if perPoint == 0 {
		return peaks
	}

	for i := 0; i < actual; i++ {
		start := i * perPoint
		end := (i + 1) * perPoint
		if end > samples {
			end = samples
		}

		maxVal := 0.0
		for j := start; j < end; j += scanStride {
			s := int16(binary.LittleEndian.Uint16(data[j*bytesPerSample:]))
			v := math.Abs(float64(s)) / 32768.0
			if v > maxVal {
				maxVal = v
			}
		}

		peaks[i] = maxVal
	}

	return peaks
}
