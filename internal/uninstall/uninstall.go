// Package uninstall finds everything an application left outside its
// bundle and removes the application together with those leftovers.
package uninstall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/orphan"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/scanner"
	"github.com/fenilsonani/junk-cleaner/internal/security"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// ErrAnalyzeInProgress is returned by AnalyzeApp while another analysis is
// running. The second call does nothing.
var ErrAnalyzeInProgress = errors.New("analysis already in progress")

const mdfind = "/usr/bin/mdfind"

// dotfileSkip are home dotfiles never attributed to an application.
var dotfileSkip = map[string]bool{
	".Trash":              true,
	".DS_Store":           true,
	".CFUserTextEncoding": true,
	".ssh":                true,
	".config":             true,
	".local":              true,
	".cache":              true,
}

// AppInfo describes an installed application.
type AppInfo struct {
	Name      string `json:"name" yaml:"name"`
	BundleID  string `json:"bundle_id" yaml:"bundle_id"`
	Version   string `json:"version" yaml:"version"`
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}

// AnalyzeResult is what AnalyzeApp found for one application.
type AnalyzeResult struct {
	App     AppInfo     `json:"app" yaml:"app"`
	Items   []junk.Item `json:"items" yaml:"items"`
	Summary string      `json:"summary" yaml:"summary"`
}

// TotalSize sums the sizes of the leftovers.
func (r *AnalyzeResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.SizeBytes
	}
	return total
}

// Result summarises a DeepUninstall.
type Result struct {
	App           AppInfo           `json:"app" yaml:"app"`
	BundleRemoved bool              `json:"bundle_removed" yaml:"bundle_removed"`
	BundleError   string            `json:"bundle_error,omitempty" yaml:"bundle_error,omitempty"`
	Terminated    int               `json:"terminated" yaml:"terminated"`
	Leftovers     *junk.CleanResult `json:"leftovers" yaml:"leftovers"`
}

// FreedBytes counts the bundle (when removed) and every removed leftover.
func (r *Result) FreedBytes() int64 {
	freed := r.Leftovers.FreedBytes
	if r.BundleRemoved {
		freed += r.App.SizeBytes
	}
	return freed
}

// Remover removes single items and application bundles.
type Remover interface {
	RemoveItem(ctx context.Context, item junk.Item) error
	RemoveBundle(ctx context.Context, path string) error
}

// Options tune an Uninstaller.
type Options struct {
	// TerminateWait is how long to wait after asking running instances to
	// quit.
	TerminateWait time.Duration
	// UseContentIndex adds Spotlight matches to the location scan.
	UseContentIndex bool
}

// DefaultOptions returns the standard uninstaller options.
func DefaultOptions() Options {
	return Options{TerminateWait: time.Second, UseContentIndex: true}
}

// Uninstaller analyzes and removes applications.
type Uninstaller struct {
	opts      Options
	layout    *platform.Layout
	runner    platform.Runner
	remover   Remover
	elevator  cleaner.Elevator
	processes platform.ProcessTable
	reporter  *progress.Reporter
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration)

	mu        sync.Mutex
	analyzing bool
	result    *AnalyzeResult
}

// New creates an Uninstaller that removes through remover.
func New(opts Options, layout *platform.Layout, runner platform.Runner, remover Remover) *Uninstaller {
	return &Uninstaller{
		opts:      opts,
		layout:    layout,
		runner:    runner,
		remover:   remover,
		processes: platform.SystemProcesses{},
		logger:    slog.Default(),
		sleep:     sleepContext,
	}
}

// SetElevator sets the handshake run before leftovers that need elevated
// removal.
func (u *Uninstaller) SetElevator(e cleaner.Elevator) {
	u.elevator = e
}

// SetProcessTable replaces the process table used to quit the app.
func (u *Uninstaller) SetProcessTable(p platform.ProcessTable) {
	u.processes = p
}

// SetProgressReporter sets the reporter that receives analyze and
// uninstall progress.
func (u *Uninstaller) SetProgressReporter(r *progress.Reporter) {
	u.reporter = r
}

// SetLogger sets the logger
func (u *Uninstaller) SetLogger(l *slog.Logger) {
	if l != nil {
		u.logger = l
	}
}

// IsAnalyzing reports whether AnalyzeApp is running.
func (u *Uninstaller) IsAnalyzing() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.analyzing
}

// Result returns the last completed analysis.
func (u *Uninstaller) Result() *AnalyzeResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result
}

// =============================================================================
// Applications
// =============================================================================

// ReadApp describes the bundle at path using its manifest and allocated
// size.
func ReadApp(path string) (AppInfo, error) {
	b, err := platform.ReadBundle(path)
	if err != nil {
		return AppInfo{}, err
	}
	return AppInfo{
		Name:      b.Name,
		BundleID:  b.BundleID,
		Version:   b.Version,
		Path:      path,
		SizeBytes: utils.SizeOf(path),
	}, nil
}

// InstalledApps returns every application bundle in the application
// folders, sorted by name. Bundles without a readable manifest are listed
// under their file name.
func (u *Uninstaller) InstalledApps(ctx context.Context) []AppInfo {
	return u.listApps(ctx, true)
}

// ListApps is InstalledApps without the size of each bundle, for callers
// that only match names.
func (u *Uninstaller) ListApps(ctx context.Context) []AppInfo {
	return u.listApps(ctx, false)
}

func (u *Uninstaller) listApps(ctx context.Context, sized bool) []AppInfo {
	paths := platform.ListBundles(u.layout.ApplicationDirs()...)
	apps := make([]AppInfo, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			app := AppInfo{Name: platform.BundleBaseName(path), Path: path}
			b, err := platform.ReadBundle(path)
			if err != nil {
				u.logger.Debug("unreadable bundle manifest", "path", path, "error", err)
			} else {
				app.Name, app.BundleID, app.Version = b.Name, b.BundleID, b.Version
			}
			if sized {
				app.SizeBytes = utils.SizeOf(path)
			}
			apps[i] = app
			return nil
		})
	}
	g.Wait()

	listed := apps[:0]
	for _, app := range apps {
		if app.Path != "" {
			listed = append(listed, app)
		}
	}
	apps = listed

	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	return apps
}

// SearchTerms returns the lower-cased strings an artifact name must
// contain to be attributed to app: the identifier, the name and the
// specific identifier segments.
func SearchTerms(app AppInfo) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if len(term) <= 2 || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	add(app.BundleID)
	add(app.Name)
	for _, seg := range orphan.IdentifierSegments(app.BundleID) {
		add(seg)
	}
	return terms
}

func matches(name string, terms []string) bool {
	n := orphan.Normalize(name)
	for _, term := range terms {
		if strings.Contains(n, term) {
			return true
		}
	}
	return false
}

// =============================================================================
// Analysis
// =============================================================================

// AnalyzeApp reads the bundle at path and collects its leftovers from the
// Library folders, Spotlight, package receipts and home dotfiles.
func (u *Uninstaller) AnalyzeApp(ctx context.Context, path string) (*AnalyzeResult, error) {
	u.mu.Lock()
	if u.analyzing {
		u.mu.Unlock()
		return nil, ErrAnalyzeInProgress
	}
	u.analyzing = true
	u.result = nil
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		u.analyzing = false
		u.mu.Unlock()
	}()

	u.reporter.Start(progress.OpAnalyze, "Reading "+filepath.Base(path))

	app, err := ReadApp(path)
	if err != nil {
		u.reporter.Report(progress.Update{Op: progress.OpAnalyze, Phase: progress.PhaseError, Task: "Unreadable application", Err: err})
		return nil, err
	}

	terms := SearchTerms(app)
	locations := u.locations()
	steps := float64(len(locations) + 3)
	done := 0
	step := func(task string, found int) {
		done++
		u.reporter.Report(progress.Update{
			Op:       progress.OpAnalyze,
			Fraction: float64(done) / steps,
			Task:     task,
			Items:    found,
		})
	}

	var items []junk.Item
	for _, loc := range locations {
		if ctx.Err() != nil {
			break
		}
		items = append(items, u.scanLocation(loc, app, terms)...)
		step("Searching "+u.layout.Unroot(loc.Dir), len(items))
	}

	if ctx.Err() == nil {
		items = append(items, u.contentIndex(ctx, app, locations, terms, items)...)
		step("Searching Spotlight", len(items))
		items = append(items, u.receipts(app, terms)...)
		step("Searching package receipts", len(items))
		items = append(items, u.dotfiles(app)...)
		step("Searching home folder", len(items))
	}

	result := &AnalyzeResult{App: app, Items: junk.Dedup(items)}
	result.Summary = fmt.Sprintf("Found %d items (%.2f GB)", len(result.Items), float64(result.TotalSize())/(1<<30))

	u.mu.Lock()
	u.result = result
	u.mu.Unlock()

	if ctx.Err() != nil {
		u.reporter.Finish(progress.OpAnalyze, progress.PhaseCancelled, "Cancelled")
		return result, ctx.Err()
	}
	u.reporter.Report(progress.Update{Op: progress.OpAnalyze, Task: result.Summary, Items: len(result.Items), Bytes: result.TotalSize()})
	u.reporter.Finish(progress.OpAnalyze, progress.PhaseComplete, result.Summary)
	u.logger.Info("analysis finished", "app", app.Name, "items", len(result.Items))
	return result, nil
}

// locations lists the folders searched for leftovers.
func (u *Uninstaller) locations() []scanner.Location {
	locs := scanner.LibraryLocations(u.layout)
	locs = append(locs,
		scanner.Location{Dir: u.layout.HomePath("Library/Group Containers"), Type: junk.AppContainers},
		scanner.Location{Dir: u.layout.HomePath("Library/Cookies"), Type: junk.AppPreferences},
	)
	locs = append(locs, scanner.LaunchLocations(u.layout)...)
	for _, dir := range u.layout.CrashReportDirs() {
		locs = append(locs, scanner.Location{Dir: dir, Type: junk.AppCrashReports})
	}
	return locs
}

func (u *Uninstaller) scanLocation(loc scanner.Location, app AppInfo, terms []string) []junk.Item {
	entries, err := os.ReadDir(loc.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			u.logger.Debug("skipping unreadable directory", "path", loc.Dir, "error", err)
		}
		return nil
	}

	var items []junk.Item
	for _, e := range entries {
		name := e.Name()
		if orphan.IsProtected(name) || !matches(name, terms) {
			continue
		}
		path := filepath.Join(loc.Dir, name)
		items = append(items, junk.NewItem(loc.Type, path, name, utils.SizeOf(path), app.Name))
	}
	return items
}

// contentIndex asks Spotlight for files tagged with the bundle identifier.
// A hit is kept only inside a Library folder, outside user document stores,
// and when a path component names the app or the hit sits directly in a
// searched location.
func (u *Uninstaller) contentIndex(ctx context.Context, app AppInfo, locations []scanner.Location, terms []string, found []junk.Item) []junk.Item {
	if !u.opts.UseContentIndex || app.BundleID == "" || strings.ContainsAny(app.BundleID, `'"\`) {
		return nil
	}

	res, err := u.runner.Run(ctx, nil, mdfind, contentIndexQuery(app.BundleID))
	if err != nil || !res.Success() {
		u.logger.Debug("spotlight query failed", "bundle_id", app.BundleID, "error", err, "stderr", res.Stderr)
		return nil
	}

	libraries := []string{u.layout.HomePath("Library"), u.layout.SystemPath("/Library")}
	var excluded []string
	for _, dir := range userDocumentDirs {
		excluded = append(excluded, u.layout.HomePath(dir))
	}

	var items []junk.Item
	for _, line := range strings.Split(res.Stdout, "\n") {
		path := filepath.Clean(strings.TrimSpace(line))
		if path == "." || !filepath.IsAbs(path) {
			continue
		}
		if within(path, app.Path) || withinAny(path, excluded) || coveredBy(path, found) || coveredBy(path, items) {
			continue
		}
		root := ""
		for _, lib := range libraries {
			if within(path, lib) {
				root = lib
			}
		}
		if root == "" || orphan.IsProtected(filepath.Base(path)) {
			continue
		}
		if !namesApp(path, root, terms) && !directlyUnder(path, locations) {
			u.logger.Debug("ignoring unattributable spotlight hit", "path", path)
			continue
		}
		items = append(items, junk.NewItem(typeFor(path, locations), path, filepath.Base(path), utils.SizeOf(path), app.Name))
	}
	return items
}

// userDocumentDirs hold user data that may be tagged with an app's
// identifier but never belongs to the app.
var userDocumentDirs = []string{
	"Library/Mobile Documents",
	"Library/Mail",
	"Library/Messages",
}

func contentIndexQuery(bundleID string) string {
	return "kMDItemCFBundleIdentifier == '" + bundleID + "'"
}

// namesApp reports whether a component of path below root matches terms.
func namesApp(path, root string, terms []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if matches(part, terms) {
			return true
		}
	}
	return false
}

func directlyUnder(path string, locations []scanner.Location) bool {
	dir := filepath.Dir(path)
	for _, loc := range locations {
		if dir == filepath.Clean(loc.Dir) {
			return true
		}
	}
	return false
}

// receipts returns package receipts naming the application.
func (u *Uninstaller) receipts(app AppInfo, terms []string) []junk.Item {
	dir := u.layout.ReceiptsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var items []junk.Item
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".plist") && !strings.HasSuffix(name, ".bom") {
			continue
		}
		if orphan.IsProtected(name) || !matches(cleaner.ReceiptID(name), terms) {
			continue
		}
		path := filepath.Join(dir, name)
		items = append(items, junk.NewItem(junk.AppReceipts, path, name, utils.FileSize(path), app.Name))
	}
	return items
}

// dotfiles returns top-level home dotfiles named after the application.
func (u *Uninstaller) dotfiles(app AppInfo) []junk.Item {
	entries, err := os.ReadDir(u.layout.Home)
	if err != nil {
		return nil
	}

	var terms []string
	for _, term := range SearchTerms(app) {
		if !strings.Contains(term, ".") {
			terms = append(terms, term)
		}
	}

	var items []junk.Item
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, ".") || dotfileSkip[name] {
			continue
		}
		if !matches(strings.TrimPrefix(name, "."), terms) {
			continue
		}
		path := filepath.Join(u.layout.Home, name)
		items = append(items, junk.NewItem(junk.AppSupportLeftovers, path, name, utils.SizeOf(path), app.Name))
	}
	return items
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, strings.TrimSuffix(dir, "/")+"/")
}

func withinAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if within(path, dir) {
			return true
		}
	}
	return false
}

func coveredBy(path string, items []junk.Item) bool {
	for _, item := range items {
		if within(path, item.Path) {
			return true
		}
	}
	return false
}

// typeFor classifies a path by the deepest searched location holding it.
func typeFor(path string, locations []scanner.Location) junk.Type {
	best, bestLen := junk.AppSupportLeftovers, 0
	for _, loc := range locations {
		if within(path, loc.Dir) && len(loc.Dir) > bestLen {
			best, bestLen = loc.Type, len(loc.Dir)
		}
	}
	return best
}

// =============================================================================
// Removal
// =============================================================================

// DeepUninstall quits app, stops its services, moves the bundle to the
// Trash and removes the leftovers, forgetting package receipts last. A
// failing item never stops the rest. When any item needs elevated removal
// the handshake runs once first; if it fails nothing is touched.
func (u *Uninstaller) DeepUninstall(ctx context.Context, app AppInfo, items []junk.Item) (*Result, error) {
	result := &Result{App: app, Leftovers: &junk.CleanResult{}}
	start := time.Now()
	u.reporter.Start(progress.OpClean, "Preparing...")

	if u.elevator != nil && u.NeedsElevation(items) {
		if err := u.elevator.EnsureReady(ctx); err != nil {
			u.reporter.Report(progress.Update{Op: progress.OpClean, Phase: progress.PhaseError, Task: "Elevation failed", Err: err})
			return result, fmt.Errorf("uninstall aborted: %w", err)
		}
	}

	result.Terminated = u.terminate(ctx, app)

	var services, receipts, rest []junk.Item
	for _, item := range items {
		switch {
		case item.Type.IsService():
			services = append(services, item)
		case item.Type == junk.AppReceipts:
			receipts = append(receipts, item)
		default:
			rest = append(rest, item)
		}
	}

	total := float64(len(items) + 1)
	done := 0
	report := func(task string) {
		u.reporter.Report(progress.Update{
			Op:       progress.OpClean,
			Fraction: float64(done) / total,
			Task:     task,
			Items:    len(result.Leftovers.Deleted),
			Bytes:    result.Leftovers.FreedBytes,
			Failed:   len(result.Leftovers.Failed),
		})
	}
	remove := func(batch []junk.Item) {
		for _, item := range batch {
			report("Removing: " + item.DisplayName)
			u.removeLeftover(ctx, item, result.Leftovers)
			done++
		}
	}

	remove(services)

	report("Removing: " + app.Name)
	if err := u.remover.RemoveBundle(ctx, app.Path); err != nil {
		u.logger.Warn("failed to remove application bundle", "path", app.Path, "error", err)
		result.BundleError = err.Error()
	} else {
		result.BundleRemoved = true
	}
	done++

	remove(rest)
	remove(receipts)

	lo := result.Leftovers
	lo.DeletedCount = len(lo.Deleted)
	lo.FailedCount = len(lo.Failed)
	lo.Duration = time.Since(start)

	u.reporter.Report(progress.Update{Op: progress.OpClean, Task: cleaner.TaskDone, Items: lo.DeletedCount, Bytes: result.FreedBytes(), Failed: lo.FailedCount})
	u.reporter.Finish(progress.OpClean, progress.PhaseComplete, cleaner.TaskDone)
	u.logger.Info("uninstall finished",
		"app", app.Name,
		"bundle_removed", result.BundleRemoved,
		"leftovers_removed", lo.DeletedCount,
		"leftovers_failed", lo.FailedCount)
	return result, nil
}

func (u *Uninstaller) removeLeftover(ctx context.Context, item junk.Item, into *junk.CleanResult) {
	if err := u.remover.RemoveItem(ctx, item); err != nil {
		reason := err.Error()
		var delErr *cleaner.DeletionError
		if errors.As(err, &delErr) {
			reason = delErr.UserMessage()
		}
		u.logger.Warn("failed to remove leftover", "path", item.Path, "type", item.Type, "error", err)
		into.Failed = append(into.Failed, junk.FailedItem{Item: item, Reason: reason})
		return
	}
	into.Deleted = append(into.Deleted, item)
	into.FreedBytes += item.SizeBytes
}

// terminate asks every running instance of app to quit and waits for them
// to exit. It returns how many were signalled.
func (u *Uninstaller) terminate(ctx context.Context, app AppInfo) int {
	if u.processes == nil {
		return 0
	}
	procs, err := u.processes.List(ctx)
	if err != nil {
		u.logger.Debug("failed to list processes", "error", err)
		return 0
	}

	n := 0
	for _, p := range platform.ProcessesInBundle(procs, app.Path) {
		if err := u.processes.Terminate(ctx, p.PID); err != nil {
			u.logger.Warn("failed to quit application", "pid", p.PID, "name", p.Name, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		u.sleep(ctx, u.opts.TerminateWait)
	}
	return n
}

// NeedsElevation reports whether any item will reach the elevated
// primitive without first trying user-level removal.
func (u *Uninstaller) NeedsElevation(items []junk.Item) bool {
	for _, item := range items {
		if item.Type == junk.AppReceipts || security.IsSystemOwned(u.layout.Unroot(item.Path)) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
