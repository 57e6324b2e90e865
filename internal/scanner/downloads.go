package scanner

import (
	"context"
	"path/filepath"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

const downloadsFloor = 100 * utils.KB

// scanOldDownloads reports Downloads entries untouched for DownloadsAge.
func (s *Scanner) scanOldDownloads(_ context.Context) []junk.Item {
	var items []junk.Item
	cutoff := s.now().Add(-s.opts.DownloadsAge)

	dir := s.layout.DownloadsDir()
	for _, e := range s.list(dir) {
		path := filepath.Join(dir, e.Name())
		mod, ok := modTime(path)
		if !ok || !mod.Before(cutoff) {
			continue
		}
		size := utils.SizeOf(path)
		if size < downloadsFloor {
			continue
		}
		items = append(items, junk.NewItem(junk.DownloadsOld, path, e.Name(), size, ""))
	}
	return items
}
