package scanner

import (
	"bufio"
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/orphan"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

const systemCacheFloor = 10 * utils.KB

// scanSystemCaches reports large entries of the Safari and Xcode caches and
// the per-user temporary caches under /private/var/folders.
func (s *Scanner) scanSystemCaches(ctx context.Context) []junk.Item {
	var items []junk.Item

	for _, dir := range []string{
		s.layout.HomePath("Library/Caches/com.apple.Safari"),
		s.layout.HomePath("Library/Caches/com.apple.dt.Xcode"),
	} {
		for _, e := range s.list(dir) {
			name := e.Name()
			if orphan.IsProtected(name) {
				continue
			}
			path := filepath.Join(dir, name)
			size := utils.SizeOf(path)
			if size < systemCacheFloor {
				continue
			}
			items = append(items, junk.NewItem(junk.SystemCaches, path, name, size, ""))
		}
	}

	if s.opts.IncludeSystemLocations {
		items = append(items, s.perUserCaches(ctx)...)
	}
	return items
}

// perUserCaches sizes the per-user cache folders with du, which can read
// folders a plain walk would be denied.
func (s *Scanner) perUserCaches(ctx context.Context) []junk.Item {
	if s.runner == nil {
		return nil
	}

	res, err := s.runner.Run(ctx, nil, "/bin/sh", "-c", "du -s "+s.layout.PerUserCacheGlob()+" 2>/dev/null")
	if err != nil {
		s.logger.Debug("du failed", "error", err)
		return nil
	}
	return parseDuOutput(res.Stdout, systemCacheFloor)
}

// parseDuOutput turns "blocks<TAB>path" lines into system cache items of at
// least floor bytes. du reports 512-byte blocks.
func parseDuOutput(out string, floor int64) []junk.Item {
	var items []junk.Item

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		blocks, path, ok := strings.Cut(sc.Text(), "\t")
		if !ok || path == "" {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(blocks), 10, 64)
		if err != nil {
			continue
		}
		size := n * 512
		if size < floor {
			continue
		}
		items = append(items, junk.NewItem(junk.SystemCaches, path, filepath.Base(path), size, ""))
	}
	return items
}
