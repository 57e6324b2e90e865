package utils

import (
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const blockSize = 512

// SizeOf returns the allocated size of path in bytes.
//
// A file (or symlink) contributes its own allocated blocks as reported by
// lstat. A directory contributes the sum over every non-directory entry in
// its tree. Symlinks are never followed, so cycles cannot occur. Entries that
// cannot be listed or stat'ed count as zero and a missing path returns 0.
func SizeOf(path string) int64 {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0
	}
	if uint32(st.Mode)&unix.S_IFMT != unix.S_IFDIR {
		return allocated(&st)
	}

	var total int64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entry or directory: skip, keep walking
			return nil
		}
		if d.IsDir() {
			return nil
		}
		var est unix.Stat_t
		if unix.Lstat(p, &est) != nil {
			return nil
		}
		total += allocated(&est)
		return nil
	})
	return total
}

// FileSize returns the allocated size of a single entry without descending
// into it.
func FileSize(path string) int64 {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0
	}
	return allocated(&st)
}

func allocated(st *unix.Stat_t) int64 {
	n := int64(st.Blocks) * blockSize
	if n < 0 {
		return 0
	}
	return n
}
