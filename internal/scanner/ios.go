package scanner

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// scanIOSRelated reports superseded device backups and old device support
// files.
func (s *Scanner) scanIOSRelated(_ context.Context) []junk.Item {
	var items []junk.Item

	type dated struct {
		path string
		mod  time.Time
	}
	backupDir := s.layout.MobileSyncBackupDir()
	var backups []dated
	for _, e := range s.list(backupDir) {
		path := filepath.Join(backupDir, e.Name())
		if mod, ok := modTime(path); ok {
			backups = append(backups, dated{path, mod})
		}
	}
	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].mod.After(backups[j].mod)
	})
	keep := max(s.opts.KeepBackups, 0)
	if len(backups) > keep {
		for _, b := range backups[keep:] {
			name := filepath.Base(b.path)
			items = append(items, junk.NewItem(junk.IOSBackups, b.path, "iOS Backup: "+name, utils.SizeOf(b.path), "Finder"))
		}
	}

	xcode := filepath.Join(s.layout.DeveloperDir(), "Xcode")
	for _, label := range []string{"iOS DeviceSupport", "watchOS DeviceSupport", "tvOS DeviceSupport"} {
		dir := filepath.Join(xcode, label)
		for _, ver := range dropNewest(names(s.list(dir)), s.opts.KeepDeviceSupport) {
			path := filepath.Join(dir, ver)
			if size := utils.SizeOf(path); size > 0 {
				items = append(items, junk.NewItem(junk.IOSDeviceSupport, path, label+": "+ver, size, "Xcode"))
			}
		}
	}

	return items
}
