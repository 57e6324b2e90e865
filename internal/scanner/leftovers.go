package scanner

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/orphan"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

const (
	leftoverFloor = utils.KB
	launchFloor   = 100
	crashFloor    = utils.KB
)

var (
	crashSuffixes   = []string{".crash", ".ips", ".spin"}
	receiptSuffixes = []string{".plist", ".bom"}
)

// Location is a folder whose entries are reported as one junk type.
type Location struct {
	Dir  string
	Type junk.Type
}

// leftoverTypes maps each LeftoverDirs entry to the type it reports.
var leftoverTypes = []junk.Type{
	junk.AppSupportLeftovers,
	junk.AppPreferences,
	junk.AppCaches,
	junk.AppLogs,
	junk.AppContainers,
	junk.AppSavedStates,
	junk.AppSupportLeftovers,
	junk.AppSupportLeftovers,
	junk.AppSupportLeftovers,
	junk.AppSupportLeftovers,
	junk.AppPreferences,
	junk.AppCaches,
	junk.AppLogs,
}

// LibraryLocations pairs every per-application Library folder of the
// layout with the type its entries are reported as.
func LibraryLocations(l *platform.Layout) []Location {
	dirs := l.LeftoverDirs()
	locs := make([]Location, 0, len(dirs))
	for i, dir := range dirs {
		locs = append(locs, Location{Dir: dir, Type: leftoverTypes[i]})
	}
	return locs
}

// LaunchLocations returns the launch agent, launch daemon and privileged
// helper folders.
func LaunchLocations(l *platform.Layout) []Location {
	var locs []Location
	for _, dir := range l.LaunchAgentDirs() {
		locs = append(locs, Location{dir, junk.AppLaunchAgents})
	}
	return append(locs,
		Location{l.LaunchDaemonDir(), junk.AppLaunchDaemons},
		Location{l.HelperToolsDir(), junk.AppHelperTools},
	)
}

// scanAppLeftovers reports Library entries, launch items, helper tools and
// receipts that belong to no installed application, plus crash reports.
func (s *Scanner) scanAppLeftovers(ctx context.Context) []junk.Item {
	detector := s.detector(ctx)
	var items []junk.Item

	for _, loc := range LibraryLocations(s.layout) {
		dir, t := loc.Dir, loc.Type
		if len(s.system(dir)) == 0 {
			continue
		}
		for _, e := range s.list(dir) {
			name := e.Name()
			if !detector.IsOrphaned(name) {
				continue
			}
			if t == junk.AppPreferences && !orphan.LooksAppLike(name) {
				continue
			}
			path := filepath.Join(dir, name)
			size := utils.SizeOf(path)
			if size < leftoverFloor {
				continue
			}
			items = append(items, junk.NewItem(t, path, name, size, junk.RelatedAppFromEntry(name)))
		}
	}

	for _, ld := range LaunchLocations(s.layout) {
		if len(s.system(ld.Dir)) == 0 {
			continue
		}
		for _, e := range s.list(ld.Dir) {
			name := e.Name()
			if !detector.IsOrphaned(name) {
				continue
			}
			path := filepath.Join(ld.Dir, name)
			size := utils.FileSize(path)
			if size < launchFloor {
				continue
			}
			items = append(items, junk.NewItem(ld.Type, path, name, size, junk.RelatedAppFromEntry(name)))
		}
	}

	for _, dir := range s.system(s.layout.CrashReportDirs()...) {
		for _, e := range s.list(dir) {
			name := e.Name()
			if !hasAnySuffix(name, crashSuffixes) {
				continue
			}
			path := filepath.Join(dir, name)
			size := utils.FileSize(path)
			if size < crashFloor {
				continue
			}
			items = append(items, junk.NewItem(junk.AppCrashReports, path, name, size, ""))
		}
	}

	for _, dir := range s.system(s.layout.ReceiptsDir()) {
		for _, e := range s.list(dir) {
			name := e.Name()
			if !hasAnySuffix(name, receiptSuffixes) || !detector.IsOrphaned(name) {
				continue
			}
			path := filepath.Join(dir, name)
			size := utils.FileSize(path)
			if size < launchFloor {
				continue
			}
			items = append(items, junk.NewItem(junk.AppReceipts, path, name, size, ""))
		}
	}

	return items
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
