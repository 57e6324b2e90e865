package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Trash moves items into a recovery folder instead of deleting them.
type Trash struct {
	Dir    string
	Runner Runner
}

// NewTrash creates a Trash rooted at dir. runner is used for the Finder
// fallback when an item lives on another volume.
func NewTrash(dir string, runner Runner) *Trash {
	return &Trash{Dir: dir, Runner: runner}
}

// Move relocates path into the Trash and returns its new location. Items on
// a different volume are handed to Finder, in which case the returned path
// is empty.
func (t *Trash) Move(ctx context.Context, path string) (string, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", err
	}
	if err := os.MkdirAll(t.Dir, 0700); err != nil {
		return "", fmt.Errorf("failed to prepare trash: %w", err)
	}

	dest := t.uniqueName(filepath.Base(path))
	err := os.Rename(path, dest)
	if err == nil {
		return dest, nil
	}
	if !errors.Is(err, unix.EXDEV) || t.Runner == nil {
		return "", err
	}

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	res, runErr := t.Runner.Run(ctx, nil, "osascript", "-e", script)
	if runErr != nil {
		return "", runErr
	}
	if !res.Success() {
		return "", fmt.Errorf("finder could not trash %s: %s", path, res.Stderr)
	}
	return "", nil
}

func (t *Trash) uniqueName(base string) string {
	dest := filepath.Join(t.Dir, base)
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		dest = filepath.Join(t.Dir, stem+" "+strconv.Itoa(i)+ext)
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}
