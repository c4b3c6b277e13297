package waveform

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writePCM16(t *testing.T, samples []int16) string {
	t.Helper()

	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}

	path := filepath.Join(t.TempDir(), "raw.pcm")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractSinePeaks(t *testing.T) {
	// 200 000 samples of a full-scale sine, 100 points: every bucket
	// spans many cycles, so every peak lands in [0.9, 1.0]. The tone sits
	// at 997 Hz so the coarse scan stride sweeps the full cycle instead
	// of beating against the period.
	samples := make([]int16, 200000)
	for i := range samples {
		samples[i] = int16(32767 * math.Sin(2*math.Pi*997*float64(i)/44100))
	}
	path := writePCM16(t, samples)

	peaks, err := Extract(path, 100)
	if err != nil {
		t.Fatal(err)
	}

	if len(peaks) != 100 {
		t.Fatalf("len = %d, want 100", len(peaks))
	}

	for i, p := range peaks {
		if p < 0.9 || p > 1.0 {
			t.Fatalf("peak %d = %v, want in [0.9, 1.0]", i, p)
		}
	}
}

func TestExtractFewerSamplesThanPoints(t *testing.T) {
	samples := []int16{16384, -32768, 8192}
	path := writePCM16(t, samples)

	peaks, err := Extract(path, 100)
	if err != nil {
		t.Fatal(err)
	}

	if len(peaks) != 3 {
		t.Fatalf("len = %d, want 3", len(peaks))
	}

	// One sample per bucket; stride lands on each bucket start.
	if math.Abs(peaks[0]-0.5) > 1e-9 {
		t.Fatalf("peaks[0] = %v, want 0.5", peaks[0])
	}
	if peaks[1] != 1.0 {
		t.Fatalf("peaks[1] = %v, want 1.0", peaks[1])
	}
}

func TestExtractSilence(t *testing.T) {
	path := writePCM16(t, make([]int16, 5000))

	peaks, err := Extract(path, 10)
	if err != nil {
		t.Fatal(err)
	}

	for i, p := range peaks {
		if p != 0 {
			t.Fatalf("peak %d = %v for silence", i, p)
		}
	}
}

func TestExtractInvalidArguments(t *testing.T) {
	if _, err := Extract("", 10); err == nil {
		t.Fatal("expected error for empty path")
	}

	path := writePCM16(t, []int16{1, 2, 3})
	if _, err := Extract(path, 0); err == nil {
		t.Fatal("expected error for zero points")
	}
	if _, err := Extract(path, -5); err == nil {
		t.Fatal("expected error for negative points")
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := Extract(filepath.Join(t.TempDir(), "absent.pcm"), 10); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractTooSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.pcm")
	if err := os.WriteFile(path, []byte{0x7f}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Extract(path, 10); err == nil {
		t.Fatal("expected error for sub-sample file")
	}

	empty := filepath.Join(t.TempDir(), "empty.pcm")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Extract(empty, 10); err == nil {
		t.Fatal("expected error for empty file")
	}
}
