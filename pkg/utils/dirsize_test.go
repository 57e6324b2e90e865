package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSizeOfMissingPath(t *testing.T) {
	if got := SizeOf(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("SizeOf(missing) = %d, want 0", got)
	}
	if got := FileSize(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("FileSize(missing) = %d, want 0", got)
	}
}

func TestSizeOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.bin")
	writeFile(t, path, 64*KB)

	got := SizeOf(path)
	if got < 64*KB {
		t.Errorf("SizeOf(file) = %d, want >= %d", got, 64*KB)
	}
	if got != FileSize(path) {
		t.Errorf("SizeOf(file) = %d, FileSize = %d", got, FileSize(path))
	}
}

func TestSizeOfDirectorySumsChildren(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.bin")
	b := filepath.Join(root, "nested", "deeper", "b.bin")
	writeFile(t, a, 32*KB)
	writeFile(t, b, 16*KB)

	want := FileSize(a) + FileSize(b)
	if got := SizeOf(root); got != want {
		t.Errorf("SizeOf(dir) = %d, want %d", got, want)
	}
}

func TestSizeOfIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x"), 10*KB)
	writeFile(t, filepath.Join(root, "y", "z"), 20*KB)

	first := SizeOf(root)
	second := SizeOf(root)
	if first != second {
		t.Errorf("SizeOf changed between runs: %d then %d", first, second)
	}
}

func TestSizeOfDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	writeFile(t, filepath.Join(target, "big.bin"), 256*KB)

	linkDir := filepath.Join(root, "links")
	if err := os.MkdirAll(linkDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(linkDir, "to-target")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	// self-referencing loop
	if err := os.Symlink(linkDir, filepath.Join(linkDir, "loop")); err != nil {
		t.Fatal(err)
	}

	if got := SizeOf(linkDir); got >= 256*KB {
		t.Errorf("SizeOf followed a symlink: %d", got)
	}
}
