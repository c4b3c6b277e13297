// Package audio provides file decode and encode plumbing for the command
// line tools: a small Source abstraction over WAV, MP3, and Ogg Vorbis
// decoders plus a 16-bit WAV writer.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source is a pull-based stream of interleaved float32 samples in [-1, 1].
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1 = mono, 2 = stereo).
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns the
	// number of values written. io.EOF ends the stream; it may arrive
	// together with the final n > 0 values or alone with n == 0.
	ReadSamples(dst []float32) (int, error)
	// Close releases any resources.
	Close() error
}

// ErrUnsupportedFormat is returned for file extensions without a decoder.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// OpenFile opens path with the decoder matching its extension
// (.wav, .mp3, .ogg).
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}

	var src Source

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		src, err = newWavSource(f)
	case ".mp3":
		src, err = newMP3Source(f)
	case ".ogg":
		src, err = newVorbisSource(f)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if err != nil {
		f.Close()
		return nil, err
	}

	return src, nil
}
