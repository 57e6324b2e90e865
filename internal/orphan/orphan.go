// Package orphan decides whether a Library entry still belongs to an
// installed application.
package orphan

import (
	"strings"
)

// genericSegments are reverse-DNS components too common to identify an app.
var genericSegments = map[string]bool{
	"com": true,
	"org": true,
	"net": true,
	"app": true,
}

// protectedNamespace is the vendor-reserved identifier prefix.
const protectedNamespace = "com.apple."

// allowedVendorApps are user-installed applications inside the protected
// namespace whose leftovers may be cleaned.
var allowedVendorApps = []string{
	"com.apple.garageband",
	"com.apple.imovie",
	"com.apple.logic",
	"com.apple.finalcutpro",
	"com.apple.motionapp",
	"com.apple.compressor",
	"com.apple.mainstagemac",
	"com.apple.numbers",
	"com.apple.pages",
	"com.apple.keynote",
}

// systemBinaryPrefixes are core OS directories, lower-cased.
var systemBinaryPrefixes = []string{
	"/system/",
	"/usr/bin/",
	"/usr/sbin/",
	"/usr/lib/",
	"/bin/",
	"/sbin/",
	"/library/apple/",
}

// Normalize lower-cases name and strips the property list and saved state
// suffixes.
func Normalize(name string) string {
	n := strings.ToLower(name)
	n = strings.TrimSuffix(n, ".plist")
	n = strings.TrimSuffix(n, ".savedstate")
	return n
}

// IsProtected reports whether name falls in the protected system namespace
// and is not one of the allowed vendor applications.
func IsProtected(name string) bool {
	n := Normalize(name)

	if strings.HasPrefix(n, protectedNamespace) {
		for _, allowed := range allowedVendorApps {
			if strings.HasPrefix(n, allowed) {
				return false
			}
		}
		return true
	}

	for _, prefix := range systemBinaryPrefixes {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// LooksAppLike reports whether a preferences entry is named like an
// application artifact: reverse-DNS or a .plist/.savedState file.
func LooksAppLike(entry string) bool {
	e := strings.ToLower(entry)
	if !strings.Contains(e, ".") {
		return false
	}
	return strings.HasPrefix(e, "com.") ||
		strings.HasPrefix(e, "org.") ||
		strings.HasPrefix(e, "net.") ||
		strings.HasSuffix(e, ".savedstate") ||
		strings.HasSuffix(e, ".plist")
}

// IdentifierSegments returns the lower-cased components of a bundle
// identifier that are specific enough to name an application.
func IdentifierSegments(bundleID string) []string {
	var out []string
	for _, seg := range strings.Split(strings.ToLower(bundleID), ".") {
		if len(seg) > 2 && !genericSegments[seg] {
			out = append(out, seg)
		}
	}
	return out
}

// Detector applies the orphan rules against an inventory.
type Detector struct {
	inv *Inventory
}

// NewDetector creates a Detector over inv.
func NewDetector(inv *Inventory) *Detector {
	if inv == nil {
		inv = NewInventory()
	}
	return &Detector{inv: inv}
}

// Inventory returns the inventory the detector matches against.
func (d *Detector) Inventory() *Inventory {
	return d.inv
}

// IsOrphaned reports whether a directory entry can be attributed to no
// installed application. Protection always wins over matching.
func (d *Detector) IsOrphaned(entry string) bool {
	if IsProtected(entry) {
		return false
	}

	n := Normalize(entry)

	for id := range d.inv.bundleIDs {
		if n == id || strings.HasPrefix(n, id) || strings.HasPrefix(id, n) {
			return false
		}
	}

	for name := range d.inv.names {
		if strings.Contains(n, name) || strings.Contains(name, n) {
			return false
		}
	}

	return true
}
