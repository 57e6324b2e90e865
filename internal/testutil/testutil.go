// Package testutil provides fixtures that lay out a fake macOS home and
// system tree under t.TempDir().
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

// Fixture holds a temporary root and the Layout that points into it.
type Fixture struct {
	T      *testing.T
	Root   string
	Layout *platform.Layout
}

// NewFixture creates an empty layout rooted in a temp directory. The home
// directory is <root>/Users/tester and system locations live under <root>.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	root := t.TempDir()
	layout := &platform.Layout{
		Home:     filepath.Join(root, "Users", "tester"),
		Username: "tester",
		Root:     root,
		TempDir:  filepath.Join(root, "T"),
	}
	if err := os.MkdirAll(layout.Home, 0755); err != nil {
		t.Fatalf("failed to create home %s: %v", layout.Home, err)
	}

	return &Fixture{T: t, Root: root, Layout: layout}
}

// =============================================================================
// Path Helpers
// =============================================================================

// Home returns a path inside the fake home directory.
func (f *Fixture) Home(elem ...string) string {
	return f.Layout.HomePath(elem...)
}

// System maps an absolute system location into the fixture.
func (f *Fixture) System(abs string) string {
	return f.Layout.SystemPath(abs)
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile writes size bytes at path, creating parents.
func (f *Fixture) CreateFile(path string, size int) string {
	f.T.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", path, err)
	}
	return path
}

// CreateFileWithAge writes a file and backdates its modification time.
func (f *Fixture) CreateFileWithAge(path string, size int, age time.Duration) string {
	f.T.Helper()

	f.CreateFile(path, size)
	f.Age(path, age)
	return path
}

// CreateDir creates a directory and its parents.
func (f *Fixture) CreateDir(path string) string {
	f.T.Helper()

	if err := os.MkdirAll(path, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", path, err)
	}
	return path
}

// Age sets the modification time of path to age ago.
func (f *Fixture) Age(path string, age time.Duration) {
	f.T.Helper()

	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		f.T.Fatalf("failed to set time for %s: %v", path, err)
	}
}

// CreateApp writes a minimal .app bundle with an Info.plist.
func (f *Fixture) CreateApp(dir, name, bundleID string) string {
	f.T.Helper()

	app := filepath.Join(dir, name+".app")
	manifest := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
<key>CFBundleIdentifier</key><string>` + bundleID + `</string>
<key>CFBundleName</key><string>` + name + `</string>
<key>CFBundleShortVersionString</key><string>1.0</string>
<key>CFBundleExecutable</key><string>` + name + `</string>
</dict></plist>`
	path := filepath.Join(app, "Contents", "Info.plist")
	f.CreateFile(path, 0)
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		f.T.Fatalf("failed to write manifest %s: %v", path, err)
	}
	f.CreateFile(filepath.Join(app, "Contents", "MacOS", name), 4096)
	return app
}

// CreateReadOnlyDir creates a directory holding one file and removes write
// permission so the file cannot be deleted.
func (f *Fixture) CreateReadOnlyDir(path string) string {
	f.T.Helper()

	f.CreateFile(filepath.Join(path, "trapped.txt"), 16)
	if err := os.Chmod(path, 0555); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", path, err)
	}
	f.T.Cleanup(func() {
		os.Chmod(path, 0755)
	})
	return path
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// Exists reports whether path exists without following a final symlink.
func (f *Fixture) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertExists fails the test if path is missing.
func (f *Fixture) AssertExists(path string) {
	f.T.Helper()
	if !f.Exists(path) {
		f.T.Errorf("expected path to exist: %s", path)
	}
}

// AssertNotExists fails the test if path is present.
func (f *Fixture) AssertNotExists(path string) {
	f.T.Helper()
	if f.Exists(path) {
		f.T.Errorf("expected path to not exist: %s", path)
	}
}

// =============================================================================
// Environment Helpers
// =============================================================================

// IsRoot returns true if running as root
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}
