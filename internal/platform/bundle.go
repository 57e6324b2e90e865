package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// Bundle is the subset of an application's Info.plist the engine uses.
type Bundle struct {
	Path       string
	Name       string
	BundleID   string
	Version    string
	Executable string
}

type infoPlist struct {
	Identifier   string `plist:"CFBundleIdentifier"`
	Name         string `plist:"CFBundleName"`
	DisplayName  string `plist:"CFBundleDisplayName"`
	ShortVersion string `plist:"CFBundleShortVersionString"`
	Version      string `plist:"CFBundleVersion"`
	Executable   string `plist:"CFBundleExecutable"`
}

// ReadBundle reads Contents/Info.plist of the .app at appPath. Both XML and
// binary property lists are accepted.
func ReadBundle(appPath string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Join(appPath, "Contents", "Info.plist"))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle manifest: %w", err)
	}

	var info infoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse bundle manifest %s: %w", appPath, err)
	}

	b := &Bundle{
		Path:       appPath,
		BundleID:   info.Identifier,
		Executable: info.Executable,
		Name:       firstNonEmpty(info.DisplayName, info.Name, BundleBaseName(appPath)),
		Version:    firstNonEmpty(info.ShortVersion, info.Version),
	}
	return b, nil
}

// BundleBaseName returns the file name of a bundle without its .app suffix.
func BundleBaseName(appPath string) string {
	return strings.TrimSuffix(filepath.Base(appPath), ".app")
}

// ListBundles returns the .app bundles directly under each directory.
// Unreadable directories are skipped.
func ListBundles(dirs ...string) []string {
	var bundles []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".app") {
				bundles = append(bundles, filepath.Join(dir, e.Name()))
			}
		}
	}
	return bundles
}

// BundleFromExecutable maps ".../Foo.app/Contents/MacOS/foo" to
// ".../Foo.app". The outermost bundle wins.
func BundleFromExecutable(exe string) (string, bool) {
	idx := strings.Index(exe, ".app/")
	if idx < 0 {
		return "", false
	}
	return exe[:idx+len(".app")], true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
