package scanner

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// devLocation is a fixed developer-tool cache location.
type devLocation struct {
	path       string
	t          junk.Type
	name       string
	relatedApp string
}

func (s *Scanner) devLocations() []devLocation {
	dev := s.layout.DeveloperDir()
	home := s.layout.HomePath

	return []devLocation{
		{filepath.Join(dev, "Xcode/DerivedData"), junk.XcodeDerivedData, "Xcode DerivedData", "Xcode"},
		{filepath.Join(dev, "CoreSimulator/Caches"), junk.XcodeSimulators, "Simulator Caches", "Xcode"},
		{filepath.Join(dev, "Xcode/iOS Device Logs"), junk.AppLogs, "iOS Device Logs", "Xcode"},
		{filepath.Join(dev, "Xcode/DocumentationCache"), junk.XcodeDocsets, "Xcode Documentation Cache", "Xcode"},
		{home("Library/Caches/Homebrew"), junk.BrewCache, "Homebrew Cache", "Homebrew"},
		{s.layout.BrewSystemCache(), junk.BrewCache, "Homebrew Cache (opt)", "Homebrew"},
		{home(".npm/_cacache"), junk.NpmCache, "npm Cache", "npm"},
		{home(".npm/tmp"), junk.NpmCache, "npm Temp", "npm"},
		{home("Library/Caches/node-gyp"), junk.NpmCache, "node-gyp Cache", "npm"},
		{home(".yarn/cache"), junk.YarnCache, "Yarn Cache", "Yarn"},
		{home(".cache/yarn"), junk.YarnCache, "Yarn Cache", "Yarn"},
		{home("Library/Caches/pip"), junk.PipCache, "pip Cache", "pip"},
		{home(".cache/pip"), junk.PipCache, "pip Cache", "pip"},
		{home(".gradle/caches"), junk.GradleCache, "Gradle Cache", "Gradle"},
		{home(".gradle/wrapper/dists"), junk.GradleCache, "Gradle Wrapper Dists", "Gradle"},
		{home(".m2/repository"), junk.MavenCache, "Maven Repository", "Maven"},
		{home("Library/Caches/CocoaPods"), junk.PodCache, "CocoaPods Cache", "CocoaPods"},
		{home(".cocoapods/repos"), junk.PodCache, "CocoaPods Repos Index", "CocoaPods"},
		{home(".gem/specs"), junk.GemCache, "Ruby Gem Specs", "Ruby"},
		{home("Library/Caches/JetBrains"), junk.AppCaches, "JetBrains Cache", "JetBrains"},
		{home("Library/Logs/JetBrains"), junk.AppLogs, "JetBrains Logs", "JetBrains"},
		{home("Library/Containers/com.docker.docker/Data/vms"), junk.DockerImages, "Docker VM Data", "Docker"},
	}
}

// scanDeveloperJunk reports developer tool caches and all but the newest
// Xcode archives of each year.
func (s *Scanner) scanDeveloperJunk(_ context.Context) []junk.Item {
	var items []junk.Item

	for _, loc := range s.devLocations() {
		if len(s.system(loc.path)) == 0 {
			continue
		}
		if size := utils.SizeOf(loc.path); size > 0 {
			items = append(items, junk.NewItem(loc.t, loc.path, loc.name, size, loc.relatedApp))
		}
	}

	archives := filepath.Join(s.layout.DeveloperDir(), "Xcode/Archives")
	for _, year := range s.list(archives) {
		yearDir := filepath.Join(archives, year.Name())
		for _, name := range dropNewest(names(s.list(yearDir)), s.opts.KeepArchives) {
			path := filepath.Join(yearDir, name)
			if size := utils.SizeOf(path); size > 0 {
				items = append(items, junk.NewItem(junk.XcodeArchives, path, name, size, "Xcode"))
			}
		}
	}

	return items
}

// dropNewest sorts names and returns all but the last keep of them.
func dropNewest(entries []string, keep int) []string {
	sort.Strings(entries)
	if keep < 0 {
		keep = 0
	}
	if len(entries) <= keep {
		return nil
	}
	return entries[:len(entries)-keep]
}
