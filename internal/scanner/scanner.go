// Package scanner finds reclaimable items by running a fixed pipeline of
// location probes, then filters and deduplicates what they report.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/orphan"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
)

// ErrScanInProgress is returned by Start while another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// State is the scanner lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateCancelled State = "cancelled"
)

// Task labels published while scanning.
const (
	TaskStarting  = "Starting scan..."
	TaskComplete  = "Scan complete"
	TaskCancelled = "Cancelled"
)

// Options controls what a scan reports.
type Options struct {
	// SelectedTypes restricts results to these types. Empty selects all.
	SelectedTypes []junk.Type
	// MinimumFileSizeMB drops items smaller than this many MiB.
	MinimumFileSizeMB float64

	LogAge       time.Duration
	TempAge      time.Duration
	DownloadsAge time.Duration

	KeepArchives      int
	KeepDeviceSupport int
	KeepBackups       int

	// Concurrency bounds how many probes run at once.
	Concurrency int
	// IncludeSystemLocations enables probes of locations outside the home
	// directory.
	IncludeSystemLocations bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinimumFileSizeMB:      0.01,
		LogAge:                 24 * time.Hour,
		TempAge:                time.Hour,
		DownloadsAge:           90 * 24 * time.Hour,
		KeepArchives:           3,
		KeepDeviceSupport:      2,
		KeepBackups:            1,
		Concurrency:            4,
		IncludeSystemLocations: true,
	}
}

// Scanner runs the probe pipeline. At most one scan runs at a time.
type Scanner struct {
	opts      Options
	layout    *platform.Layout
	runner    platform.Runner
	processes platform.ProcessTable
	logger    *slog.Logger
	reporter  *progress.Reporter
	now       func() time.Time

	cancelled atomic.Bool

	mu      sync.Mutex
	state   State
	result  *junk.ScanResult
	totalGB float64
}

// New creates a Scanner for layout. Commands are run through runner.
func New(opts Options, layout *platform.Layout, runner platform.Runner) *Scanner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Scanner{
		opts:      opts,
		layout:    layout,
		runner:    runner,
		processes: platform.SystemProcesses{},
		logger:    slog.Default(),
		now:       time.Now,
		state:     StateIdle,
	}
}

// SetProgressReporter sets the reporter that receives scan progress
func (s *Scanner) SetProgressReporter(r *progress.Reporter) {
	s.reporter = r
}

// SetLogger sets the logger
func (s *Scanner) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetProcessTable sets the process table used to find running applications.
func (s *Scanner) SetProcessTable(p platform.ProcessTable) {
	s.processes = p
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last completed scan result, or nil.
func (s *Scanner) Result() *junk.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// TotalJunkGB returns the selected size of the last result in GiB.
func (s *Scanner) TotalJunkGB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalGB
}

// Cancel asks a running scan to stop. Probes already started run to
// completion; no further probe is started.
func (s *Scanner) Cancel() {
	if s.State() == StateScanning {
		s.cancelled.Store(true)
	}
}

// probe is one self-contained scan routine.
type probe struct {
	label string
	run   func(ctx context.Context) []junk.Item
}

func (s *Scanner) probes() []probe {
	return []probe{
		{"Scanning App Leftovers...", s.scanAppLeftovers},
		{"Scanning System Caches...", s.scanSystemCaches},
		{"Scanning Logs & Crash Reports...", s.scanLogs},
		{"Scanning Temporary Files & Trash...", s.scanTempFiles},
		{"Scanning Developer Junk...", s.scanDeveloperJunk},
		{"Scanning Language Packs...", s.scanLanguagePacks},
		{"Scanning iOS Backups...", s.scanIOSRelated},
		{"Scanning Old Downloads...", s.scanOldDownloads},
		{"Scanning Mail Cache...", s.scanMailCache},
		{"Scanning Browser Caches...", s.scanBrowserCaches},
	}
}

// probeEvent is sent by a probe goroutine to the collector.
type probeEvent struct {
	index   int
	started bool
	items   []junk.Item
}

// Start runs a scan and returns its result. A second call while a scan is
// running returns ErrScanInProgress and does nothing.
func (s *Scanner) Start(ctx context.Context) (*junk.ScanResult, error) {
	s.mu.Lock()
	if s.state == StateScanning {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.state = StateScanning
	s.result = nil
	s.totalGB = 0
	s.cancelled.Store(false)
	s.mu.Unlock()

	start := s.now()
	s.reporter.Start(progress.OpScan, TaskStarting)

	probes := s.probes()
	outputs := make([][]junk.Item, len(probes))
	events := make(chan probeEvent)
	collected := make(chan struct{})

	// Single writer: only the collector touches outputs and publishes
	// progress.
	go func() {
		defer close(collected)
		completed, found := 0, 0
		for ev := range events {
			if ev.started {
				s.reporter.Report(progress.Update{
					Op:       progress.OpScan,
					Fraction: float64(completed) / float64(len(probes)),
					Task:     probes[ev.index].label,
					Items:    found,
				})
				continue
			}
			outputs[ev.index] = ev.items
			completed++
			found += len(ev.items)
			s.reporter.Report(progress.Update{
				Op:       progress.OpScan,
				Fraction: float64(completed) / float64(len(probes)),
				Task:     probes[ev.index].label,
				Items:    found,
			})
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range probes {
		if s.stopped(ctx) {
			break
		}
		g.Go(func() error {
			if s.stopped(ctx) {
				return nil
			}
			events <- probeEvent{index: i, started: true}
			events <- probeEvent{index: i, items: p.run(ctx)}
			return nil
		})
	}
	_ = g.Wait()
	close(events)
	<-collected

	var all []junk.Item
	for _, items := range outputs {
		all = append(all, items...)
	}

	result := junk.NewScanResult(s.filter(all), s.now().Sub(start))
	result.Cancelled = s.stopped(ctx)

	s.mu.Lock()
	s.result = result
	s.totalGB = result.TotalGB()
	if result.Cancelled {
		s.state = StateCancelled
	} else {
		s.state = StateIdle
	}
	s.mu.Unlock()

	s.reporter.Report(progress.Update{
		Op:    progress.OpScan,
		Items: len(result.Items),
		Bytes: result.TotalSize(),
	})
	if result.Cancelled {
		s.reporter.Finish(progress.OpScan, progress.PhaseCancelled, TaskCancelled)
	} else {
		s.reporter.Finish(progress.OpScan, progress.PhaseComplete, TaskComplete)
	}

	s.logger.Info("scan finished",
		"items", len(result.Items),
		"bytes", result.TotalSize(),
		"duration", result.Duration,
		"cancelled", result.Cancelled)

	return result, nil
}

func (s *Scanner) stopped(ctx context.Context) bool {
	return s.cancelled.Load() || ctx.Err() != nil
}

// filter keeps selected types at or above the minimum size, in order.
func (s *Scanner) filter(items []junk.Item) []junk.Item {
	var selected map[junk.Type]bool
	if len(s.opts.SelectedTypes) > 0 {
		selected = make(map[junk.Type]bool, len(s.opts.SelectedTypes))
		for _, t := range s.opts.SelectedTypes {
			selected[t] = true
		}
	}

	out := make([]junk.Item, 0, len(items))
	for _, item := range items {
		if selected != nil && !selected[item.Type] {
			continue
		}
		if item.SizeMB() < s.opts.MinimumFileSizeMB {
			continue
		}
		out = append(out, item)
	}
	return out
}

// =============================================================================
// Probe helpers
// =============================================================================

// system filters out locations outside the home directory when system
// locations are disabled.
func (s *Scanner) system(dirs ...string) []string {
	if s.opts.IncludeSystemLocations {
		return dirs
	}
	var out []string
	for _, d := range dirs {
		if d == s.layout.Home || strings.HasPrefix(d, s.layout.Home+"/") {
			out = append(out, d)
		}
	}
	return out
}

// list returns the entry names of dir. Unreadable directories yield nothing.
func (s *Scanner) list(dir string) []os.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("skipping unreadable directory", "path", dir, "error", err)
		}
		return nil
	}
	return entries
}

// modTime returns the modification time of path without following symlinks.
func modTime(path string) (time.Time, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (s *Scanner) detector(ctx context.Context) *orphan.Detector {
	c := &orphan.Collector{Layout: s.layout, Processes: s.processes, Logger: s.logger}
	return orphan.NewDetector(c.Collect(ctx))
}

func names(entries []os.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}
