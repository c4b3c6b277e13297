//go:build unix

package waveform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps path read-only and private. The returned release function
// unmaps and closes; callers must invoke it on every path.
func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("waveform: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("waveform: stat %s: %w", path, err)
	}

	size := info.Size()
	if size == 0 {
		f.Close()
		return nil, nil, ErrFileTooSmall
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("waveform: mmap %s: %w", path, err)
	}

	release := func() {
		_ = unix.Munmap(data)
		_ = f.Close()
	}

	return data, release, nil
}
