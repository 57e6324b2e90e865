package cleaner

import (
	"fmt"
	"os"
)

// IsSpecialFile reports whether path is a device, socket or named pipe.
// Symlinks are judged as links: their targets are never removed.
func IsSpecialFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeCharDevice != 0:
		return true, fmt.Errorf("is a character device")
	case mode&os.ModeDevice != 0:
		return true, fmt.Errorf("is a device file")
	case mode&os.ModeSocket != 0:
		return true, fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return true, fmt.Errorf("is a named pipe (FIFO)")
	}
	return false, nil
}

// IsSafeToDelete returns an error when path is a special file. A missing
// path is not an error here; the caller treats it as already removed.
func IsSafeToDelete(path string) error {
	special, err := IsSpecialFile(path)
	if special {
		return fmt.Errorf("refusing to delete special file: %w", err)
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
