// Package platform wraps the operating-system collaborators the engine relies
// on: well-known macOS locations, external commands, bundle manifests, the
// Trash, the process table and volume statistics.
package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Unknown Platform = "unknown"
)

// Detect returns the current platform
func Detect() Platform {
	if runtime.GOOS == "darwin" {
		return MacOS
	}
	return Unknown
}

// Layout resolves the locations the scanner and cleaner work with.
//
// Home is the user's home directory. Root is prepended to every system-wide
// absolute location and is empty outside tests.
type Layout struct {
	Home     string
	Username string
	Root     string
	TempDir  string
}

// CurrentLayout returns the layout for the running user.
func CurrentLayout() (*Layout, error) {
	if Detect() != MacOS {
		return nil, ErrUnsupportedPlatform
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	return &Layout{
		Home:     currentUser.HomeDir,
		Username: currentUser.Username,
		TempDir:  os.TempDir(),
	}, nil
}

// HomePath joins elements onto the home directory.
func (l *Layout) HomePath(elem ...string) string {
	return filepath.Join(append([]string{l.Home}, elem...)...)
}

// SystemPath maps an absolute system location into the layout.
func (l *Layout) SystemPath(abs string) string {
	if l.Root == "" {
		return abs
	}
	return filepath.Join(l.Root, abs)
}

// Unroot is the inverse of SystemPath: it returns the system location a
// path inside the layout stands for.
func (l *Layout) Unroot(path string) string {
	if l.Root == "" {
		return path
	}
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return path
	}
	if rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

// TrashDir returns the user's Trash.
func (l *Layout) TrashDir() string {
	return l.HomePath(".Trash")
}

// ApplicationDirs lists the directories holding installed .app bundles.
func (l *Layout) ApplicationDirs() []string {
	return []string{
		l.SystemPath("/Applications"),
		l.HomePath("Applications"),
	}
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform: only macOS is supported"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
