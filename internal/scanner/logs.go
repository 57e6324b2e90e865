package scanner

import (
	"context"
	"path/filepath"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/orphan"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

const logFloor = utils.KB

// scanLogs reports log folders and files that have not been written to
// within LogAge.
func (s *Scanner) scanLogs(_ context.Context) []junk.Item {
	var items []junk.Item
	now := s.now()

	for _, dir := range s.system(s.layout.LogDirs()...) {
		for _, e := range s.list(dir) {
			name := e.Name()
			if orphan.IsProtected(name) {
				continue
			}
			path := filepath.Join(dir, name)
			if mod, ok := modTime(path); ok && now.Sub(mod) < s.opts.LogAge {
				continue
			}
			size := utils.SizeOf(path)
			if size < logFloor {
				continue
			}
			items = append(items, junk.NewItem(junk.SystemLogs, path, name, size, ""))
		}
	}
	return items
}
