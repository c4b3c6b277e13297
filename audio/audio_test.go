package audio

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.flac")
	if err := os.WriteFile(path, []byte("fLaC"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := OpenFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOpenFileMissing(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenFileInvalidWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("this is not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected error for invalid WAV")
	}
}

func TestOpenFileInvalidMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.mp3")
	if err := os.WriteFile(path, []byte{0, 1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected error for invalid MP3")
	}
}

func TestOpenFileInvalidOgg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.ogg")
	if err := os.WriteFile(path, []byte("OggS but not really"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected error for invalid Ogg")
	}
}

func TestWavWriteReadRoundTrip(t *testing.T) {
	const (
		sampleRate = 44100
		channels   = 2
		frames     = 4410
	)

	samples := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(12000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
		samples[2*i] = v
		samples[2*i+1] = -v
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteWAV16(f, sampleRate, channels, samples); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != sampleRate {
		t.Fatalf("SampleRate = %d, want %d", src.SampleRate(), sampleRate)
	}
	if src.Channels() != channels {
		t.Fatalf("Channels = %d, want %d", src.Channels(), channels)
	}

	got := make([]float32, 0, len(samples))
	buf := make([]float32, 1024)
	for {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}

	for i, v := range got {
		want := float32(samples[i]) / 32768.0
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestWriteWAV16InvalidFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := WriteWAV16(f, 0, 2, nil); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if err := WriteWAV16(f, 44100, 0, nil); err == nil {
		t.Fatal("expected error for zero channels")
	}
}
