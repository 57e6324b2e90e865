package scanner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/testutil"
)

const fileSize = 8192

func newTestScanner(f *testutil.Fixture, opts Options) (*Scanner, *platform.FakeRunner) {
	runner := platform.NewFakeRunner()
	s := New(opts, f.Layout, runner)
	s.SetProcessTable(&platform.StaticProcesses{})
	s.SetProgressReporter(progress.NewReporter())
	return s, runner
}

func onlyTypes(types ...junk.Type) Options {
	opts := DefaultOptions()
	opts.SelectedTypes = types
	return opts
}

func paths(items []junk.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Path)
	}
	return out
}

func findItem(items []junk.Item, path string) (junk.Item, bool) {
	for _, item := range items {
		if item.Path == path {
			return item, true
		}
	}
	return junk.Item{}, false
}

func TestScanEmptyLayout(t *testing.T) {
	f := testutil.NewFixture(t)
	s, _ := newTestScanner(f, DefaultOptions())

	result, err := s.Start(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.False(t, result.Cancelled)
	assert.Zero(t, s.TotalJunkGB())
	assert.Equal(t, StateIdle, s.State())
	assert.Same(t, result, s.Result())

	u := s.reporter.Current(progress.OpScan)
	assert.Equal(t, progress.PhaseComplete, u.Phase)
	assert.Equal(t, TaskComplete, u.Task)
	assert.Equal(t, 1.0, u.Fraction)
}

func TestFilterMinimumSize(t *testing.T) {
	f := testutil.NewFixture(t)
	trash := junk.NewItem(junk.TrashContents, f.Layout.TrashDir(), "Trash", 524288000, "")

	tests := []struct {
		minMB float64
		want  int
	}{
		{0.1, 1},
		{500, 1},
		{1000, 0},
	}

	for _, tt := range tests {
		opts := DefaultOptions()
		opts.MinimumFileSizeMB = tt.minMB
		s, _ := newTestScanner(f, opts)
		assert.Len(t, s.filter([]junk.Item{trash}), tt.want, "minimum %v MB", tt.minMB)
	}
}

func TestFilterSelectedTypes(t *testing.T) {
	f := testutil.NewFixture(t)
	s, _ := newTestScanner(f, onlyTypes(junk.SystemLogs))

	items := []junk.Item{
		junk.NewItem(junk.SystemLogs, "/a", "a", fileSize, ""),
		junk.NewItem(junk.AppLogs, "/b", "b", fileSize, ""),
	}
	got := s.filter(items)
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Path)
}

func TestScanAppLeftovers(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateApp(f.System("/Applications"), "Slack", "com.tinyspeck.slackmacgap")

	support := f.Home("Library/Application Support")
	f.CreateFile(filepath.Join(support, "Slack", "data.db"), fileSize)
	orphaned := f.CreateFile(filepath.Join(support, "OldEditor", "state.json"), fileSize)
	f.CreateDir(filepath.Join(support, "Tiny"))

	prefs := f.Home("Library/Preferences")
	f.CreateFile(filepath.Join(prefs, "ByHost", "settings"), fileSize)
	orphanPref := f.CreateFile(filepath.Join(prefs, "com.olde.thing.plist"), fileSize)
	f.CreateFile(filepath.Join(prefs, "com.tinyspeck.slackmacgap.plist"), fileSize)
	f.CreateFile(f.Home("Library/Caches/com.apple.Safari/Cache.db"), fileSize)

	agent := f.CreateFile(f.Home("Library/LaunchAgents/com.olde.agent.plist"), 512)
	daemon := f.CreateFile(f.System("/Library/LaunchDaemons/com.olde.daemon.plist"), 512)
	crash := f.CreateFile(f.Home("Library/Logs/DiagnosticReports/Old_2024.ips"), fileSize)
	f.CreateFile(f.Home("Library/Logs/DiagnosticReports/notes.txt"), fileSize)
	receipt := f.CreateFile(f.System("/private/var/db/receipts/com.olde.pkg.bom"), 512)
	f.CreateFile(f.System("/private/var/db/receipts/com.tinyspeck.slackmacgap.bom"), 512)

	s, _ := newTestScanner(f, DefaultOptions())
	items := s.scanAppLeftovers(context.Background())
	got := paths(items)

	assert.Contains(t, got, filepath.Dir(orphaned))
	assert.NotContains(t, got, filepath.Join(support, "Slack"))
	assert.NotContains(t, got, filepath.Join(support, "Tiny"), "below the size floor")
	assert.NotContains(t, got, filepath.Join(prefs, "ByHost"), "not app-like")
	assert.Contains(t, got, orphanPref)
	assert.NotContains(t, got, filepath.Join(prefs, "com.tinyspeck.slackmacgap.plist"))
	assert.NotContains(t, got, f.Home("Library/Caches/com.apple.Safari"))
	assert.Contains(t, got, crash)
	assert.NotContains(t, got, f.Home("Library/Logs/DiagnosticReports/notes.txt"))
	assert.Contains(t, got, receipt)
	assert.NotContains(t, got, f.System("/private/var/db/receipts/com.tinyspeck.slackmacgap.bom"))

	item, ok := findItem(items, agent)
	require.True(t, ok)
	assert.Equal(t, junk.AppLaunchAgents, item.Type)
	assert.Equal(t, "agent", item.RelatedApp)

	item, ok = findItem(items, daemon)
	require.True(t, ok)
	assert.Equal(t, junk.AppLaunchDaemons, item.Type)

	item, ok = findItem(items, orphanPref)
	require.True(t, ok)
	assert.Equal(t, junk.AppPreferences, item.Type)
	assert.Equal(t, "thing", item.RelatedApp)
}

func TestScanLogsSkipsRecent(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateFileWithAge(f.System("/private/var/log/install.log"), fileSize, 48*time.Hour)
	recent := f.CreateFile(f.System("/private/var/log/system.log"), fileSize)
	f.CreateFileWithAge(f.System("/private/var/log/com.apple.xpc.launchd"), fileSize, 48*time.Hour)

	s, _ := newTestScanner(f, DefaultOptions())
	got := paths(s.scanLogs(context.Background()))

	assert.Contains(t, got, old)
	assert.NotContains(t, got, recent)
	assert.NotContains(t, got, f.System("/private/var/log/com.apple.xpc.launchd"))
}

func TestScanTempFilesAndTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile(f.Home(".Trash/old.zip"), fileSize)
	volTrash := f.CreateFile(f.System("/Volumes/Ext/.Trashes/501/file"), fileSize)
	stale := f.CreateFileWithAge(f.System("/private/tmp/stale.bin"), fileSize, 2*time.Hour)
	fresh := f.CreateFile(f.System("/private/tmp/fresh.bin"), fileSize)
	f.CreateFile(f.Home("Library/Caches/TemporaryItems/x"), fileSize)

	s, _ := newTestScanner(f, DefaultOptions())
	items := s.scanTempFiles(context.Background())

	item, ok := findItem(items, f.Layout.TrashDir())
	require.True(t, ok)
	assert.Equal(t, junk.TrashContents, item.Type)
	assert.Equal(t, "Trash", item.DisplayName)

	item, ok = findItem(items, filepath.Join(f.System("/Volumes/Ext"), ".Trashes"))
	require.True(t, ok, "volume trash %s", volTrash)
	assert.Equal(t, "Trash (Ext)", item.DisplayName)

	got := paths(items)
	assert.Contains(t, got, stale)
	assert.NotContains(t, got, fresh)
	assert.Contains(t, got, f.Home("Library/Caches/TemporaryItems"))
}

func TestScanDeveloperJunk(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile(f.Home("Library/Developer/Xcode/DerivedData/App-abc/Build/x"), fileSize)
	f.CreateFile(f.Home(".npm/_cacache/index"), fileSize)

	archives := f.Home("Library/Developer/Xcode/Archives/2024")
	for _, name := range []string{"a.xcarchive", "b.xcarchive", "c.xcarchive", "d.xcarchive", "e.xcarchive"} {
		f.CreateFile(filepath.Join(archives, name, "Info.plist"), fileSize)
	}

	s, _ := newTestScanner(f, DefaultOptions())
	items := s.scanDeveloperJunk(context.Background())

	item, ok := findItem(items, f.Home("Library/Developer/Xcode/DerivedData"))
	require.True(t, ok)
	assert.Equal(t, junk.XcodeDerivedData, item.Type)
	assert.Equal(t, "Xcode", item.RelatedApp)

	item, ok = findItem(items, f.Home(".npm/_cacache"))
	require.True(t, ok)
	assert.Equal(t, junk.NpmCache, item.Type)

	var archived []string
	for _, item := range items {
		if item.Type == junk.XcodeArchives {
			archived = append(archived, item.DisplayName)
		}
	}
	assert.ElementsMatch(t, []string{"a.xcarchive", "b.xcarchive"}, archived)
}

func TestScanIOSRelated(t *testing.T) {
	f := testutil.NewFixture(t)
	backups := f.Home("Library/Application Support/MobileSync/Backup")
	for i, name := range []string{"newest", "middle", "oldest"} {
		dir := filepath.Dir(f.CreateFile(filepath.Join(backups, name, "Manifest.db"), fileSize))
		f.Age(dir, time.Duration(i+1)*24*time.Hour)
	}

	support := f.Home("Library/Developer/Xcode/iOS DeviceSupport")
	for _, ver := range []string{"16.0", "16.1", "17.0", "17.1"} {
		f.CreateFile(filepath.Join(support, ver, "Symbols", "x"), fileSize)
	}

	s, _ := newTestScanner(f, DefaultOptions())
	items := s.scanIOSRelated(context.Background())

	var backupNames, versions []string
	for _, item := range items {
		switch item.Type {
		case junk.IOSBackups:
			backupNames = append(backupNames, item.DisplayName)
			assert.Equal(t, "Finder", item.RelatedApp)
		case junk.IOSDeviceSupport:
			versions = append(versions, item.DisplayName)
		}
	}
	assert.ElementsMatch(t, []string{"iOS Backup: middle", "iOS Backup: oldest"}, backupNames)
	assert.ElementsMatch(t, []string{"iOS DeviceSupport: 16.0", "iOS DeviceSupport: 16.1"}, versions)
}

func TestScanOldDownloads(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateFileWithAge(f.Home("Downloads/installer.dmg"), 200*1024, 100*24*time.Hour)
	f.CreateFileWithAge(f.Home("Downloads/tiny.txt"), 10, 100*24*time.Hour)
	recent := f.CreateFile(f.Home("Downloads/new.dmg"), 200*1024)

	s, _ := newTestScanner(f, DefaultOptions())
	got := paths(s.scanOldDownloads(context.Background()))

	assert.Equal(t, []string{old}, got)
	assert.NotContains(t, got, recent)
}

func TestScanMailAndBrowsers(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile(f.Home("Library/Mail/V9/Attachments/1/file.pdf"), fileSize)
	f.CreateFile(f.Home("Library/Mail/V8/Attachments/1/file.pdf"), fileSize)
	f.CreateFile(f.Home("Library/Caches/Google/Chrome/Default/Cache/data_0"), fileSize)

	s, _ := newTestScanner(f, DefaultOptions())

	mail := s.scanMailCache(context.Background())
	require.Len(t, mail, 1)
	assert.Equal(t, f.Home("Library/Mail/V9/Attachments"), mail[0].Path)
	assert.Equal(t, "Mail Attachment Downloads", mail[0].DisplayName)

	browsers := s.scanBrowserCaches(context.Background())
	require.Len(t, browsers, 1)
	assert.Equal(t, junk.ChromeCache, browsers[0].Type)
	assert.Equal(t, "Chrome: Chrome", browsers[0].DisplayName)
	assert.Equal(t, "Chrome", browsers[0].RelatedApp)

	assert.Empty(t, s.scanLanguagePacks(context.Background()))
}

func TestPerUserCachesUsesDu(t *testing.T) {
	f := testutil.NewFixture(t)
	s, runner := newTestScanner(f, DefaultOptions())
	runner.On("/bin/sh -c du -s", platform.CommandResult{
		Stdout: "40\t/private/var/folders/ab/xyz/C/com.vendor.tool\n" +
			"4\t/private/var/folders/ab/xyz/C/small\n" +
			"garbage line\n",
	}, nil)

	items := s.perUserCaches(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "com.vendor.tool", items[0].DisplayName)
	assert.Equal(t, int64(40*512), items[0].SizeBytes)
	assert.Equal(t, junk.SystemCaches, items[0].Type)
}

func TestScanDedupFirstProbeWins(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile(f.Home("Library/Caches/Homebrew/downloads/pkg.tar.gz"), fileSize)

	s, _ := newTestScanner(f, DefaultOptions())
	result, err := s.Start(context.Background())
	require.NoError(t, err)

	var matches []junk.Item
	for _, item := range result.Items {
		if item.Path == f.Home("Library/Caches/Homebrew") {
			matches = append(matches, item)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, junk.AppCaches, matches[0].Type)
}

func TestScanWithoutSystemLocations(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileWithAge(f.System("/private/tmp/stale.bin"), fileSize, 2*time.Hour)
	f.CreateFile(f.Home("Library/Caches/TemporaryItems/x"), fileSize)

	opts := DefaultOptions()
	opts.IncludeSystemLocations = false
	s, runner := newTestScanner(f, opts)

	result, err := s.Start(context.Background())
	require.NoError(t, err)

	got := paths(result.Items)
	assert.NotContains(t, got, f.System("/private/tmp/stale.bin"))
	assert.Contains(t, got, f.Home("Library/Caches/TemporaryItems"))
	assert.False(t, runner.Ran("/bin/sh"))
}

func TestCancelStopsLaterProbes(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile(f.Home("Library/Application Support/OldEditor/state.json"), fileSize)
	f.CreateFileWithAge(f.System("/private/var/log/install.log"), fileSize, 48*time.Hour)

	opts := DefaultOptions()
	opts.Concurrency = 1
	s, runner := newTestScanner(f, opts)
	runner.OnFunc("/bin/sh", func(platform.Call) (platform.CommandResult, error) {
		s.Cancel()
		return platform.CommandResult{}, nil
	})

	result, err := s.Start(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Equal(t, StateCancelled, s.State())
	got := paths(result.Items)
	assert.Contains(t, got, f.Home("Library/Application Support/OldEditor"))
	assert.NotContains(t, got, f.System("/private/var/log/install.log"))

	u := s.reporter.Current(progress.OpScan)
	assert.Equal(t, progress.PhaseCancelled, u.Phase)
	assert.Equal(t, TaskCancelled, u.Task)
	assert.Less(t, u.Fraction, 1.0)

	result, err = s.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.Equal(t, StateIdle, s.State())
}

func TestStartIsNotReentrant(t *testing.T) {
	f := testutil.NewFixture(t)
	s, runner := newTestScanner(f, DefaultOptions())

	entered := make(chan struct{})
	release := make(chan struct{})
	runner.OnFunc("/bin/sh", func(platform.Call) (platform.CommandResult, error) {
		close(entered)
		<-release
		return platform.CommandResult{}, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background())
		done <- err
	}()

	<-entered
	assert.Equal(t, StateScanning, s.State())
	result, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)
	assert.Nil(t, result)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, s.State())
}

func TestProgressIsMonotonic(t *testing.T) {
	f := testutil.NewFixture(t)
	s, _ := newTestScanner(f, DefaultOptions())
	updates := s.reporter.Subscribe()

	_, err := s.Start(context.Background())
	require.NoError(t, err)
	s.reporter.Unsubscribe(updates)

	last := 0.0
	for u := range updates {
		assert.GreaterOrEqual(t, u.Fraction, last, u.Task)
		last = u.Fraction
	}
	assert.Equal(t, 1.0, last)
}

func TestDropNewest(t *testing.T) {
	tests := []struct {
		in   []string
		keep int
		want []string
	}{
		{[]string{"c", "a", "b"}, 2, []string{"a"}},
		{[]string{"a", "b"}, 2, nil},
		{[]string{"a"}, 0, []string{"a"}},
		{nil, 3, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dropNewest(tt.in, tt.keep))
	}
}
