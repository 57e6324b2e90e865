package scanner

import (
	"context"
	"path/filepath"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

const tempFloor = utils.KB

// scanTempFiles reports the Trash folders, stale temporary entries and the
// Finder TemporaryItems cache.
func (s *Scanner) scanTempFiles(_ context.Context) []junk.Item {
	var items []junk.Item

	trash := s.layout.TrashDir()
	if size := utils.SizeOf(trash); size > 0 {
		items = append(items, junk.NewItem(junk.TrashContents, trash, "Trash", size, ""))
	}

	for _, volumes := range s.system(s.layout.VolumesDir()) {
		for _, vol := range s.list(volumes) {
			path := filepath.Join(volumes, vol.Name(), ".Trashes")
			if size := utils.SizeOf(path); size > 0 {
				items = append(items, junk.NewItem(junk.TrashContents, path, "Trash ("+vol.Name()+")", size, ""))
			}
		}
	}

	now := s.now()
	for _, dir := range s.system(s.layout.TempDirs()...) {
		for _, e := range s.list(dir) {
			path := filepath.Join(dir, e.Name())
			mod, ok := modTime(path)
			if !ok || now.Sub(mod) <= s.opts.TempAge {
				continue
			}
			size := utils.SizeOf(path)
			if size < tempFloor {
				continue
			}
			items = append(items, junk.NewItem(junk.SystemTempFiles, path, e.Name(), size, ""))
		}
	}

	tempItems := s.layout.HomePath("Library/Caches/TemporaryItems")
	if size := utils.SizeOf(tempItems); size > 0 {
		items = append(items, junk.NewItem(junk.SystemTempFiles, tempItems, "TemporaryItems", size, ""))
	}

	return items
}
