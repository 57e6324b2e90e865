// Package security guards deletions against paths that must never be removed.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// systemOwnedPrefixes are locations writable only by root. Removing anything
// under them goes straight to the elevated primitive.
var systemOwnedPrefixes = []string{
	"/Library/",
	"/private/",
	"/usr/",
}

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	// protectedPaths may not be removed, nor may their immediate children.
	protectedPaths []string
	// anchors may not be removed themselves; their contents may.
	anchors []string
	// protectedTrees may not be touched at any depth.
	protectedTrees []string
}

// NewPathValidator creates a PathValidator with the default protected
// system paths. When home is non-empty the home folder and its standard
// top-level folders are protected from removal as a whole.
func NewPathValidator(home string) *PathValidator {
	pv := &PathValidator{
		protectedPaths: []string{
			"/",
			"/bin",
			"/dev",
			"/etc",
			"/sbin",
			"/usr",
			"/var",
			"/private/etc",
			"/private/var",
			"/System",
			"/Applications",
			"/Library",
			"/Users",
			"/Volumes",
		},
		anchors: []string{
			"/Library/Application Support",
			"/Library/Caches",
			"/Library/LaunchAgents",
			"/Library/LaunchDaemons",
			"/Library/Logs",
			"/Library/Preferences",
			"/Library/PrivilegedHelperTools",
			"/private/tmp",
			"/private/var/db/receipts",
			"/private/var/folders",
			"/private/var/log",
			"/private/var/tmp",
		},
		protectedTrees: []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/usr/lib",
			"/bin",
			"/sbin",
			"/Library/Apple",
		},
	}

	if home != "" {
		for _, rel := range []string{
			"", "Library", "Library/Application Support", "Library/Caches",
			"Library/Containers", "Library/Logs", "Library/Preferences",
			"Library/LaunchAgents", "Library/Developer", "Applications",
			"Desktop", "Documents", "Downloads", "Movies", "Music", "Pictures",
			".Trash",
		} {
			pv.anchors = append(pv.anchors, filepath.Join(home, rel))
		}
	}

	return pv
}

// ValidatePathForDeletion performs comprehensive validation on a path before deletion
// This is the single source of truth for all path validation in the application
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	for _, r := range path {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("path contains control characters: %q", path)
		}
	}

	if err := pv.checkProtected(path); err != nil {
		return err
	}

	// The entry itself is removed, never its target, but a link pointing
	// into a protected tree is still refused.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			if pv.inProtectedTree(resolved) {
				return fmt.Errorf("refusing to delete link into protected path: %s -> %s", path, resolved)
			}
		}
	}

	return nil
}

func (pv *PathValidator) checkProtected(cleanPath string) error {
	for _, anchor := range pv.anchors {
		if cleanPath == anchor {
			return fmt.Errorf("refusing to delete protected folder: %s", cleanPath)
		}
	}

	if pv.inProtectedTree(cleanPath) {
		return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
	}

	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}

		// /usr/foo is refused, /usr/local/cache/foo is not
		prefix := strings.TrimSuffix(protected, "/") + "/"
		if strings.HasPrefix(cleanPath, prefix) && !strings.Contains(cleanPath[len(prefix):], "/") {
			return fmt.Errorf("refusing to delete critical system path: %s", cleanPath)
		}
	}

	return nil
}

func (pv *PathValidator) inProtectedTree(path string) bool {
	for _, tree := range pv.protectedTrees {
		if path == tree || strings.HasPrefix(path, tree+"/") {
			return true
		}
	}
	return false
}

// IsProtectedPath checks if a path is a protected system path
func (pv *PathValidator) IsProtectedPath(path string) bool {
	return pv.checkProtected(filepath.Clean(path)) != nil
}

// AddProtectedPath protects path and everything beneath it.
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedTrees = append(pv.protectedTrees, filepath.Clean(path))
}

// IsSystemOwned reports whether path lives under a root-owned prefix where
// user-level removal is expected to fail.
func IsSystemOwned(path string) bool {
	for _, prefix := range systemOwnedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
