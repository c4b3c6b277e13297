//go:build !unix

package waveform

import (
	"fmt"
	"os"
)

// mapFile reads the whole file on platforms without unix mmap. The release
// function is a no-op; the buffer is garbage collected.
func mapFile(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("waveform: read %s: %w", path, err)
	}

	return data, func() {}, nil
}
