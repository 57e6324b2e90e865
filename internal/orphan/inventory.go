package orphan

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

// Inventory is the set of installed bundle identifiers and names, all
// lower-cased.
type Inventory struct {
	bundleIDs map[string]struct{}
	names     map[string]struct{}
}

// NewInventory creates an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{
		bundleIDs: make(map[string]struct{}),
		names:     make(map[string]struct{}),
	}
}

// AddBundle records an installed application. Its identifier, the specific
// identifier segments and its display name are all remembered.
func (inv *Inventory) AddBundle(bundleID, name string) {
	inv.addID(bundleID)
	for _, seg := range IdentifierSegments(bundleID) {
		inv.addName(seg)
	}
	inv.addName(name)
}

// AddRunning records a running application by identifier and name.
func (inv *Inventory) AddRunning(bundleID, name string) {
	inv.addID(bundleID)
	inv.addName(name)
}

func (inv *Inventory) addID(id string) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id != "" {
		inv.bundleIDs[id] = struct{}{}
	}
}

func (inv *Inventory) addName(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" {
		inv.names[name] = struct{}{}
	}
}

// BundleIDs returns the recorded identifiers, sorted.
func (inv *Inventory) BundleIDs() []string {
	return sortedKeys(inv.bundleIDs)
}

// Names returns the recorded names, sorted.
func (inv *Inventory) Names() []string {
	return sortedKeys(inv.names)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Collector builds an Inventory from the application folders and the
// process table.
type Collector struct {
	Layout    *platform.Layout
	Processes platform.ProcessTable
	Logger    *slog.Logger
}

// Collect scans the application folders and running applications. Bundles
// without a readable manifest still contribute their file name.
func (c *Collector) Collect(ctx context.Context) *Inventory {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inv := NewInventory()
	for _, app := range platform.ListBundles(c.Layout.ApplicationDirs()...) {
		name := platform.BundleBaseName(app)
		b, err := platform.ReadBundle(app)
		if err != nil {
			logger.Debug("unreadable bundle", "path", app, "error", err)
			inv.addName(name)
			continue
		}
		inv.AddBundle(b.BundleID, name)
	}

	if c.Processes == nil {
		return inv
	}

	procs, err := c.Processes.List(ctx)
	if err != nil {
		logger.Warn("could not list running applications", "error", err)
		return inv
	}

	seen := make(map[string]bool)
	for _, p := range procs {
		app, ok := platform.BundleFromExecutable(p.Exe)
		if !ok || seen[app] {
			continue
		}
		seen[app] = true
		if b, err := platform.ReadBundle(app); err == nil {
			inv.AddRunning(b.BundleID, b.Name)
		} else {
			inv.AddRunning("", platform.BundleBaseName(app))
		}
	}

	return inv
}
