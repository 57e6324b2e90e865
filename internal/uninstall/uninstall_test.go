package uninstall

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/testutil"
)

const (
	bundleID       = "com.examplevendor.example"
	fileSize       = 8192
	spotlightQuery = "/usr/bin/mdfind kMDItemCFBundleIdentifier == '" + bundleID + "'"
)

type harness struct {
	f        *testutil.Fixture
	u        *Uninstaller
	runner   *platform.FakeRunner
	procs    *platform.StaticProcesses
	reporter *progress.Reporter
	app      string
	waited   []time.Duration
}

func newHarness(t *testing.T) *harness {
	f := testutil.NewFixture(t)
	h := &harness{
		f:        f,
		runner:   platform.NewFakeRunner(),
		procs:    &platform.StaticProcesses{},
		reporter: progress.NewReporter(),
	}
	h.app = f.CreateApp(f.System("/Applications"), "Example", bundleID)

	c := cleaner.New(cleaner.Options{}, f.Layout, h.runner, nil)
	h.u = New(DefaultOptions(), f.Layout, h.runner, c)
	h.u.SetProcessTable(h.procs)
	h.u.SetProgressReporter(h.reporter)
	h.u.sleep = func(_ context.Context, d time.Duration) { h.waited = append(h.waited, d) }
	return h
}

func pathsOf(items []junk.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Path)
	}
	return out
}

func typeOf(items []junk.Item, path string) junk.Type {
	for _, item := range items {
		if item.Path == path {
			return item.Type
		}
	}
	return ""
}

type failingElevator struct{ calls int }

func (e *failingElevator) EnsureReady(context.Context) error {
	e.calls++
	return cleaner.ErrElevationDeclined
}

func TestSearchTerms(t *testing.T) {
	terms := SearchTerms(AppInfo{BundleID: "com.examplevendor.oldapp", Name: "Old App"})
	assert.Equal(t, []string{"com.examplevendor.oldapp", "old app", "examplevendor", "oldapp"}, terms)

	terms = SearchTerms(AppInfo{BundleID: "org.go.app", Name: "Go"})
	assert.Equal(t, []string{"org.go.app"}, terms)
}

func TestReadApp(t *testing.T) {
	h := newHarness(t)

	app, err := ReadApp(h.app)
	require.NoError(t, err)
	assert.Equal(t, "Example", app.Name)
	assert.Equal(t, bundleID, app.BundleID)
	assert.Equal(t, "1.0", app.Version)
	assert.Positive(t, app.SizeBytes)

	_, err = ReadApp(h.f.System("/Applications/Missing.app"))
	assert.Error(t, err)
}

func TestInstalledApps(t *testing.T) {
	h := newHarness(t)
	h.f.CreateApp(h.f.Home("Applications"), "alpha", "com.alpha.app")
	broken := h.f.CreateDir(h.f.System("/Applications/Broken.app"))
	h.f.CreateDir(h.f.System("/Applications/NotAnApp"))

	apps := h.u.InstalledApps(context.Background())

	var names []string
	for _, app := range apps {
		names = append(names, app.Name)
	}
	assert.Equal(t, []string{"alpha", "Broken", "Example"}, names)
	assert.Equal(t, broken, apps[1].Path)
	assert.Empty(t, apps[1].BundleID)
	assert.Equal(t, bundleID, apps[2].BundleID)
}

func TestListAppsSkipsSizing(t *testing.T) {
	h := newHarness(t)
	h.f.CreateFile(filepath.Join(h.app, "Contents/MacOS/Example"), fileSize)

	listed := h.u.ListApps(context.Background())
	require.Len(t, listed, 1)
	assert.Equal(t, "Example", listed[0].Name)
	assert.Equal(t, bundleID, listed[0].BundleID)
	assert.Zero(t, listed[0].SizeBytes)

	sized := h.u.InstalledApps(context.Background())
	require.Len(t, sized, 1)
	assert.Positive(t, sized[0].SizeBytes)
}

func TestAnalyzeAppFindsLeftovers(t *testing.T) {
	h := newHarness(t)

	prefs := h.f.CreateFile(h.f.Home("Library/Preferences", bundleID+".plist"), fileSize)
	support := h.f.CreateFile(h.f.Home("Library/Application Support/Example/data.db"), fileSize)
	cache := h.f.CreateFile(h.f.Home("Library/Caches", bundleID, "Cache.db"), fileSize)
	agent := h.f.CreateFile(h.f.Home("Library/LaunchAgents", bundleID+".agent.plist"), fileSize)
	daemon := h.f.CreateFile(h.f.System("/Library/LaunchDaemons/"+bundleID+".helper.plist"), fileSize)
	receipt := h.f.CreateFile(h.f.System("/private/var/db/receipts/"+bundleID+".pkg.bom"), fileSize)
	dotfile := h.f.CreateFile(h.f.Home(".example/settings"), fileSize)
	tagged := h.f.CreateFile(h.f.Home("Library/Application Support/evsync.db"), fileSize)
	plugin := h.f.CreateFile(h.f.Home("Library/Internet Plug-Ins/ExampleKit.plugin"), fileSize)
	unrelated := h.f.CreateFile(h.f.Home("Library/Application Support/Shared/config.json"), fileSize)

	// Not attributable to the app
	h.f.CreateFile(h.f.Home("Library/Preferences/com.other.thing.plist"), fileSize)
	h.f.CreateFile(h.f.Home("Library/Preferences/com.apple.example.plist"), fileSize)
	h.f.CreateFile(h.f.Home(".ssh/example_key"), fileSize)
	h.f.CreateFile(h.f.Home("Documents/example notes.txt"), fileSize)

	h.runner.On(spotlightQuery, platform.CommandResult{Stdout: strings.Join([]string{
		tagged,
		plugin,
		unrelated,
		filepath.Join(h.app, "Contents", "Info.plist"),
		h.f.Home("Documents/example notes.txt"),
		filepath.Join(cache, "..", "Cache.db"),
		"",
	}, "\n")}, nil)

	result, err := h.u.AnalyzeApp(context.Background(), h.app)
	require.NoError(t, err)

	assert.Equal(t, "Example", result.App.Name)
	assert.ElementsMatch(t, []string{
		prefs,
		filepath.Dir(support),
		filepath.Dir(cache),
		agent,
		daemon,
		receipt,
		filepath.Dir(dotfile),
		tagged,
		plugin,
	}, pathsOf(result.Items))

	assert.Equal(t, junk.AppPreferences, typeOf(result.Items, prefs))
	assert.Equal(t, junk.AppLaunchAgents, typeOf(result.Items, agent))
	assert.Equal(t, junk.AppLaunchDaemons, typeOf(result.Items, daemon))
	assert.Equal(t, junk.AppReceipts, typeOf(result.Items, receipt))
	assert.Equal(t, junk.AppSupportLeftovers, typeOf(result.Items, tagged))
	for _, item := range result.Items {
		assert.Equal(t, "Example", item.RelatedApp)
		assert.True(t, item.Selected)
	}

	assert.Equal(t, "Found 9 items (0.00 GB)", result.Summary)
	assert.Same(t, result, h.u.Result())
	assert.False(t, h.u.IsAnalyzing())

	u := h.reporter.Current(progress.OpAnalyze)
	assert.Equal(t, progress.PhaseComplete, u.Phase)
	assert.Equal(t, 1.0, u.Fraction)
	assert.Equal(t, result.Summary, u.Task)
}

func TestAnalyzeAppIgnoresUserDocuments(t *testing.T) {
	h := newHarness(t)

	hits := []string{
		h.f.CreateFile(h.f.Home("Library/Mobile Documents/com~apple~CloudDocs/Thesis.txt"), fileSize),
		h.f.CreateFile(h.f.Home("Library/Mobile Documents/com~apple~CloudDocs/Example/Export.txt"), fileSize),
		h.f.CreateFile(h.f.Home("Library/Mail/V10/INBOX.mbox/Messages/123.emlx"), fileSize),
		h.f.CreateFile(h.f.Home("Library/Messages/Attachments/example.png"), fileSize),
		h.f.CreateFile(h.f.Home("Library/Application Support/Shared/config.json"), fileSize),
		h.f.CreateFile(h.f.Home("Documents/Example Report.pdf"), fileSize),
	}
	h.runner.On(spotlightQuery, platform.CommandResult{Stdout: strings.Join(hits, "\n")}, nil)

	result, err := h.u.AnalyzeApp(context.Background(), h.app)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 1, h.runner.Count(spotlightQuery))
}

func TestAnalyzeAppWithoutContentIndex(t *testing.T) {
	h := newHarness(t)
	h.u.opts.UseContentIndex = false

	_, err := h.u.AnalyzeApp(context.Background(), h.app)
	require.NoError(t, err)
	assert.False(t, h.runner.Ran("/usr/bin/mdfind"))
}

func TestAnalyzeAppUnreadableBundle(t *testing.T) {
	h := newHarness(t)

	result, err := h.u.AnalyzeApp(context.Background(), h.f.System("/Applications/Gone.app"))
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, progress.PhaseError, h.reporter.Current(progress.OpAnalyze).Phase)
	assert.False(t, h.u.IsAnalyzing())
}

func TestAnalyzeAppIsNotReentrant(t *testing.T) {
	h := newHarness(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.runner.OnFunc("/usr/bin/mdfind", func(platform.Call) (platform.CommandResult, error) {
		close(entered)
		<-release
		return platform.CommandResult{}, nil
	})

	done := make(chan error)
	go func() {
		_, err := h.u.AnalyzeApp(context.Background(), h.app)
		done <- err
	}()
	<-entered

	assert.True(t, h.u.IsAnalyzing())
	result, err := h.u.AnalyzeApp(context.Background(), h.app)
	assert.ErrorIs(t, err, ErrAnalyzeInProgress)
	assert.Nil(t, result)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.runner.Count("/usr/bin/mdfind"))
}

func TestDeepUninstallContinuesPastFailedUnload(t *testing.T) {
	h := newHarness(t)
	h.runner.On("/bin/launchctl unload", platform.CommandResult{ExitCode: 5, Stderr: "Unload failed"}, nil)

	agent := h.f.CreateFile(h.f.Home("Library/LaunchAgents", bundleID+".agent.plist"), fileSize)
	prefs := h.f.CreateFile(h.f.Home("Library/Preferences", bundleID+".plist"), fileSize)
	cache := h.f.CreateFile(h.f.Home("Library/Caches", bundleID, "Cache.db"), fileSize)
	items := []junk.Item{
		junk.NewItem(junk.AppPreferences, prefs, filepath.Base(prefs), fileSize, "Example"),
		junk.NewItem(junk.AppCaches, filepath.Dir(cache), bundleID, fileSize, "Example"),
		junk.NewItem(junk.AppLaunchAgents, agent, filepath.Base(agent), fileSize, "Example"),
	}

	app, err := ReadApp(h.app)
	require.NoError(t, err)

	result, err := h.u.DeepUninstall(context.Background(), app, items)
	require.NoError(t, err)

	assert.True(t, h.runner.Ran("/bin/launchctl unload -w "+agent))
	assert.Equal(t, 3, result.Leftovers.DeletedCount)
	assert.Zero(t, result.Leftovers.FailedCount)
	assert.True(t, result.BundleRemoved)
	assert.Equal(t, int64(3*fileSize)+app.SizeBytes, result.FreedBytes())

	h.f.AssertNotExists(h.app)
	h.f.AssertExists(filepath.Join(h.f.Layout.TrashDir(), "Example.app"))
	for _, p := range []string{agent, prefs, filepath.Dir(cache)} {
		h.f.AssertNotExists(p)
	}

	u := h.reporter.Current(progress.OpClean)
	assert.Equal(t, progress.PhaseComplete, u.Phase)
	assert.Equal(t, 3, u.Items)
}

func TestDeepUninstallOrder(t *testing.T) {
	h := newHarness(t)
	h.runner.OnFunc("sudo -n /bin/rm -rf", func(c platform.Call) (platform.CommandResult, error) {
		os.RemoveAll(c.Args[len(c.Args)-1])
		return platform.CommandResult{}, nil
	})

	receipt := h.f.CreateFile(h.f.System("/private/var/db/receipts/"+bundleID+".bom"), fileSize)
	agent := h.f.CreateFile(h.f.Home("Library/LaunchAgents", bundleID+".plist"), fileSize)
	items := []junk.Item{
		junk.NewItem(junk.AppReceipts, receipt, filepath.Base(receipt), fileSize, "Example"),
		junk.NewItem(junk.AppLaunchAgents, agent, filepath.Base(agent), fileSize, "Example"),
	}
	h.procs.Procs = []platform.ProcessInfo{
		{PID: 42, Name: "Example", Exe: filepath.Join(h.app, "Contents/MacOS/Example")},
		{PID: 7, Name: "Finder", Exe: "/System/Library/CoreServices/Finder.app/Contents/MacOS/Finder"},
	}

	app, err := ReadApp(h.app)
	require.NoError(t, err)
	result, err := h.u.DeepUninstall(context.Background(), app, items)
	require.NoError(t, err)

	assert.Equal(t, []int32{42}, h.procs.Terminated)
	assert.Equal(t, 1, result.Terminated)
	assert.Equal(t, []time.Duration{time.Second}, h.waited)

	unload := h.runner.IndexOf("/bin/launchctl unload")
	forget := h.runner.IndexOf("sudo -n /usr/sbin/pkgutil --forget " + bundleID)
	require.NotEqual(t, -1, unload)
	require.NotEqual(t, -1, forget)
	assert.Less(t, unload, forget)
	assert.Equal(t, 2, result.Leftovers.DeletedCount)
}

func TestDeepUninstallElevationFailureTouchesNothing(t *testing.T) {
	h := newHarness(t)
	elevator := &failingElevator{}
	h.u.SetElevator(elevator)

	daemon := h.f.CreateFile(h.f.System("/Library/LaunchDaemons/"+bundleID+".plist"), fileSize)
	items := []junk.Item{junk.NewItem(junk.AppLaunchDaemons, daemon, filepath.Base(daemon), fileSize, "Example")}

	app, err := ReadApp(h.app)
	require.NoError(t, err)
	result, err := h.u.DeepUninstall(context.Background(), app, items)
	assert.ErrorIs(t, err, cleaner.ErrElevationDeclined)

	assert.Equal(t, 1, elevator.calls)
	assert.False(t, result.BundleRemoved)
	assert.Zero(t, result.Leftovers.DeletedCount)
	h.f.AssertExists(h.app)
	h.f.AssertExists(daemon)
	assert.Empty(t, h.runner.Calls())
}

func TestDeepUninstallSkipsElevationForUserItems(t *testing.T) {
	h := newHarness(t)
	elevator := &failingElevator{}
	h.u.SetElevator(elevator)

	prefs := h.f.CreateFile(h.f.Home("Library/Preferences", bundleID+".plist"), fileSize)
	items := []junk.Item{junk.NewItem(junk.AppPreferences, prefs, filepath.Base(prefs), fileSize, "Example")}

	app, err := ReadApp(h.app)
	require.NoError(t, err)
	result, err := h.u.DeepUninstall(context.Background(), app, items)
	require.NoError(t, err)

	assert.Zero(t, elevator.calls)
	assert.True(t, result.BundleRemoved)
	assert.Equal(t, 1, result.Leftovers.DeletedCount)
}
