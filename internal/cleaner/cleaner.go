// Package cleaner removes junk items. Each batch runs one elevation
// handshake up front, stops background services before anything else and
// then removes every item with the strategy its type and location call for.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/security"
)

// ErrCleanInProgress is returned when Clean is called while a batch is
// already running. The second call does nothing.
var ErrCleanInProgress = errors.New("clean already in progress")

// Task labels published while cleaning.
const (
	TaskPreparing = "Preparing..."
	TaskDone      = "Done!"
	TaskCancelled = "Cancelled"
	cleaningLabel = "Cleaning: "
)

const (
	launchctl = "/bin/launchctl"
	pkgutil   = "/usr/sbin/pkgutil"
)

// State is the cleaner's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateDeleting State = "deleting"
)

// Options tune a Cleaner.
type Options struct {
	// ServiceSettle is how long to wait after unloading a service before
	// its definition file is removed.
	ServiceSettle time.Duration
	// Permanent skips the move-to-Trash step.
	Permanent bool
}

// DefaultOptions returns the standard cleaner options.
func DefaultOptions() Options {
	return Options{ServiceSettle: 300 * time.Millisecond}
}

// Trasher moves a path into a recovery location and returns where it went.
type Trasher interface {
	Move(ctx context.Context, path string) (string, error)
}

// Notifier delivers the completion message of a batch.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Cleaner deletes junk items.
type Cleaner struct {
	opts      Options
	layout    *platform.Layout
	runner    platform.Runner
	elevator  Elevator
	trash     Trasher
	validator *security.PathValidator
	reporter  *progress.Reporter
	notifier  Notifier
	logger    *slog.Logger
	manifest  *DeletionManifest
	sleep     func(ctx context.Context, d time.Duration)
	now       func() time.Time

	mu     sync.Mutex
	state  State
	errors []*DeletionError
}

// New creates a Cleaner. elevator may be nil when the process already runs
// with the rights it needs.
func New(opts Options, layout *platform.Layout, runner platform.Runner, elevator Elevator) *Cleaner {
	return &Cleaner{
		opts:      opts,
		layout:    layout,
		runner:    runner,
		elevator:  elevator,
		trash:     platform.NewTrash(layout.TrashDir(), runner),
		validator: security.NewPathValidator(layout.Home),
		logger:    slog.Default(),
		manifest:  NewDeletionManifest(),
		sleep:     sleepContext,
		now:       time.Now,
		state:     StateIdle,
	}
}

// SetProgressReporter sets the reporter that receives clean progress.
func (c *Cleaner) SetProgressReporter(r *progress.Reporter) {
	c.reporter = r
}

// SetNotifier sets where the completion message goes.
func (c *Cleaner) SetNotifier(n Notifier) {
	c.notifier = n
}

// SetLogger sets the logger
func (c *Cleaner) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// SetTrash replaces the Trash mover.
func (c *Cleaner) SetTrash(t Trasher) {
	c.trash = t
}

// Validator returns the path validator so callers can add protected paths.
func (c *Cleaner) Validator() *security.PathValidator {
	return c.validator
}

// State returns the current lifecycle state.
func (c *Cleaner) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Errors returns the categorized failures of the last batch.
func (c *Cleaner) Errors() []*DeletionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*DeletionError(nil), c.errors...)
}

// Manifest returns the record of everything removed so far.
func (c *Cleaner) Manifest() *DeletionManifest {
	return c.manifest
}

// =============================================================================
// Batch
// =============================================================================

// Clean removes items. It elevates once before touching anything; if that
// fails the batch is abandoned with an empty result and the error. Service
// items go first. A failing item is recorded and the batch continues. If
// ctx is cancelled between items the rest are recorded as cancelled.
func (c *Cleaner) Clean(ctx context.Context, items []junk.Item) (*junk.CleanResult, error) {
	c.mu.Lock()
	if c.state == StateDeleting {
		c.mu.Unlock()
		return nil, ErrCleanInProgress
	}
	c.state = StateDeleting
	c.errors = nil
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	start := c.now()
	result := &junk.CleanResult{}
	c.reporter.Start(progress.OpClean, TaskPreparing)

	if c.elevator != nil {
		if err := c.elevator.EnsureReady(ctx); err != nil {
			c.logger.Warn("elevation failed, nothing removed", "error", err)
			c.reporter.Report(progress.Update{Op: progress.OpClean, Phase: progress.PhaseError, Task: "Elevation failed", Err: err})
			result.Duration = c.now().Sub(start)
			return result, fmt.Errorf("clean aborted: %w", err)
		}
	}

	ordered := serviceFirst(items)
	total := len(ordered)
	var delErrs []*DeletionError

	for i, item := range ordered {
		if ctx.Err() != nil {
			for _, rest := range ordered[i:] {
				result.Failed = append(result.Failed, junk.FailedItem{Item: rest, Reason: ErrorCancelled.String()})
			}
			break
		}

		c.reporter.Report(progress.Update{
			Op:       progress.OpClean,
			Fraction: float64(i) / float64(total),
			Task:     cleaningLabel + item.DisplayName,
			Items:    len(result.Deleted),
			Bytes:    result.FreedBytes,
			Failed:   len(result.Failed),
		})

		if err := c.RemoveItem(ctx, item); err != nil {
			delErr := CategorizeError(item.Path, err)
			delErrs = append(delErrs, delErr)
			result.Failed = append(result.Failed, junk.FailedItem{Item: item, Reason: delErr.UserMessage()})
			c.logger.Warn("failed to remove item", "path", item.Path, "type", item.Type, "error", err)
			continue
		}
		result.Deleted = append(result.Deleted, item)
		result.FreedBytes += item.SizeBytes
	}

	result.DeletedCount = len(result.Deleted)
	result.FailedCount = len(result.Failed)
	result.Duration = c.now().Sub(start)

	c.mu.Lock()
	c.errors = delErrs
	c.mu.Unlock()

	phase, task := progress.PhaseComplete, TaskDone
	if ctx.Err() != nil {
		phase, task = progress.PhaseCancelled, TaskCancelled
	}
	c.reporter.Report(progress.Update{
		Op:     progress.OpClean,
		Task:   task,
		Items:  result.DeletedCount,
		Bytes:  result.FreedBytes,
		Failed: result.FailedCount,
	})
	c.reporter.Finish(progress.OpClean, phase, task)

	c.logger.Info("clean finished",
		"deleted", result.DeletedCount,
		"failed", result.FailedCount,
		"freed", result.FormattedFreed(),
		"duration", result.Duration)
	c.notify(ctx, result)

	return result, nil
}

// CompletionMessage renders the notification text for result.
func CompletionMessage(result *junk.CleanResult) string {
	msg := "Freed " + result.FormattedFreed()
	if result.FailedCount > 0 {
		msg += fmt.Sprintf(", %d failed", result.FailedCount)
	}
	return msg
}

func (c *Cleaner) notify(ctx context.Context, result *junk.CleanResult) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(context.WithoutCancel(ctx), "Cleanup Complete", CompletionMessage(result)); err != nil {
		c.logger.Debug("notification failed", "error", err)
	}
}

// =============================================================================
// Single item
// =============================================================================

// RemoveItem removes one item with the strategy chosen for it. A path that
// no longer exists counts as removed. It does not elevate; callers that
// need the elevated primitive run the handshake first.
func (c *Cleaner) RemoveItem(ctx context.Context, item junk.Item) error {
	systemOwned := security.IsSystemOwned(c.layout.Unroot(item.Path))
	strategy := StrategyFor(item, systemOwned)

	if strategy != StrategyEmptyTrash {
		if err := c.check(item.Path, strategy); err != nil {
			return err
		}
	}
	if _, err := os.Lstat(item.Path); os.IsNotExist(err) {
		c.logger.Debug("already gone", "path", item.Path)
		return nil
	}

	var (
		trashedTo string
		err       error
	)
	switch strategy {
	case StrategyUnloadService:
		c.unloadService(ctx, item.Path, systemOwned)
		trashedTo, err = c.removeChain(ctx, item.Path, systemOwned)
	case StrategyForgetReceipt:
		c.forgetReceipt(ctx, item.Path)
		err = c.removeElevated(ctx, item.Path)
	case StrategyEmptyTrash:
		err = c.emptyTrash(ctx, item.Path)
	case StrategyElevated:
		err = c.removeElevated(ctx, item.Path)
	default:
		trashedTo, err = c.removeChain(ctx, item.Path, false)
	}
	if err != nil {
		delErr := CategorizeError(item.Path, err)
		delErr.Strategy = strategy
		return delErr
	}

	c.manifest.Add(item, strategy, trashedTo)
	return nil
}

// RemoveBundle moves an application bundle to the Trash, removing it
// directly when that fails.
func (c *Cleaner) RemoveBundle(ctx context.Context, path string) error {
	if err := c.checkBundle(path); err != nil {
		return &DeletionError{Path: path, Reason: ErrorInvalidPath, Strategy: StrategyTrashFirst, Original: err}
	}
	if !c.opts.Permanent && c.trash != nil {
		dest, err := c.trash.Move(ctx, path)
		if err == nil {
			c.manifest.Add(junk.Item{Path: path, DisplayName: filepath.Base(path)}, StrategyTrashFirst, dest)
			return nil
		}
		c.logger.Debug("trash failed, removing bundle directly", "path", path, "error", err)
	}
	if err := c.removeDirect(ctx, path); err != nil {
		delErr := CategorizeError(path, err)
		delErr.Strategy = StrategyTrashFirst
		return delErr
	}
	c.manifest.Add(junk.Item{Path: path, DisplayName: filepath.Base(path)}, StrategyTrashFirst, "")
	return nil
}

// check refuses protected paths and special files.
func (c *Cleaner) check(path string, strategy Strategy) error {
	err := c.validator.ValidatePathForDeletion(path)
	if err == nil {
		if unrooted := c.layout.Unroot(path); unrooted != path && c.validator.IsProtectedPath(unrooted) {
			err = fmt.Errorf("refusing to delete protected path: %s", unrooted)
		}
	}
	if err == nil {
		err = IsSafeToDelete(path)
	}
	if err != nil {
		return &DeletionError{Path: path, Reason: ErrorInvalidPath, Strategy: strategy, Original: err}
	}
	return nil
}

// checkBundle accepts only .app bundles inside an application folder.
// Application folders refuse their direct children in the general check,
// so bundles are validated here instead.
func (c *Cleaner) checkBundle(path string) error {
	if !filepath.IsAbs(path) || filepath.Clean(path) != path {
		return fmt.Errorf("bundle path must be absolute and clean: %s", path)
	}
	if filepath.Ext(path) != ".app" {
		return fmt.Errorf("not an application bundle: %s", path)
	}
	inside := false
	for _, dir := range c.layout.ApplicationDirs() {
		if strings.HasPrefix(path, dir+"/") {
			inside = true
			break
		}
	}
	if !inside {
		return fmt.Errorf("bundle is outside the application folders: %s", path)
	}
	if unrooted := c.layout.Unroot(path); strings.HasPrefix(unrooted, "/System/") {
		return fmt.Errorf("refusing to remove system application: %s", unrooted)
	}
	return IsSafeToDelete(path)
}

// unloadService stops the launchd job defined by plist. Failure is logged
// and removal proceeds anyway. The rule only covers rm, so a system job is
// unloaded with sudo -n and succeeds only while a sudo timestamp is cached,
// which is the session that installed the rule.
func (c *Cleaner) unloadService(ctx context.Context, plist string, systemOwned bool) {
	args := []string{"unload", "-w", plist}
	name := launchctl
	if systemOwned {
		name = "sudo"
		args = append([]string{"-n", launchctl}, args...)
	}

	res, err := c.runner.Run(ctx, nil, name, args...)
	switch {
	case err != nil:
		c.logger.Warn("failed to unload service", "path", plist, "error", err)
	case !res.Success():
		c.logger.Warn("failed to unload service", "path", plist, "exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}
	c.sleep(ctx, c.opts.ServiceSettle)
}

// ReceiptID returns the package identifier a receipt file belongs to.
func ReceiptID(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".plist", ".bom"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// forgetReceipt removes the package from the installer database. pkgutil is
// not covered by the rule, so this succeeds only while a sudo timestamp is
// cached, which is the session that installed the rule. It is best-effort.
func (c *Cleaner) forgetReceipt(ctx context.Context, path string) {
	id := ReceiptID(path)
	res, err := c.runner.Run(ctx, nil, "sudo", "-n", pkgutil, "--forget", id)
	switch {
	case err != nil:
		c.logger.Warn("failed to forget package", "package", id, "error", err)
	case !res.Success():
		c.logger.Warn("failed to forget package", "package", id, "exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}
}

// emptyTrash removes the children of a Trash folder one at a time.
func (c *Cleaner) emptyTrash(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var failed []string
	var firstErr error
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		child := filepath.Join(dir, e.Name())
		err := c.check(child, StrategyEmptyTrash)
		if err == nil {
			if err = c.removeDirect(ctx, child); err != nil {
				err = c.removeElevated(ctx, child)
			}
		}
		if err != nil {
			c.logger.Debug("failed to remove trash entry", "path", child, "error", err)
			failed = append(failed, e.Name())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d trash entries left (%s): %w",
			len(failed), len(entries), strings.Join(failed, ", "), firstErr)
	}
	return nil
}

// removeChain tries the Trash, then direct removal, then the elevated
// primitive. systemOwned paths go straight to the elevated primitive.
func (c *Cleaner) removeChain(ctx context.Context, path string, systemOwned bool) (string, error) {
	if systemOwned {
		return "", c.removeElevated(ctx, path)
	}

	if !c.opts.Permanent && c.trash != nil {
		dest, err := c.trash.Move(ctx, path)
		if err == nil {
			return dest, nil
		}
		c.logger.Debug("trash failed, trying direct removal", "path", path, "error", err)
	}

	err := c.removeDirect(ctx, path)
	if err == nil {
		return "", nil
	}
	c.logger.Debug("direct removal failed, trying elevated removal", "path", path, "error", err)
	return "", c.removeElevated(ctx, path)
}

// removeDirect removes path as the current user, retrying while the file
// is busy.
func (c *Cleaner) removeDirect(ctx context.Context, path string) error {
	retryDelays := []time.Duration{
		100 * time.Millisecond,
		500 * time.Millisecond,
	}

	var lastErr *DeletionError
	for attempt := 0; ; attempt++ {
		err := os.RemoveAll(path)
		if err == nil {
			return nil
		}
		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable || attempt >= len(retryDelays) || ctx.Err() != nil {
			return lastErr
		}
		c.sleep(ctx, retryDelays[attempt])
	}
}

// removeElevated runs the elevated removal primitive non-interactively and
// checks that path is gone afterwards.
func (c *Cleaner) removeElevated(ctx context.Context, path string) error {
	res, err := c.runner.Run(ctx, nil, "sudo", "-n", elevatedRemove, "-rf", path)
	if err != nil {
		return err
	}
	if !res.Success() {
		return &DeletionError{
			Path:      path,
			Reason:    ErrorPermissionDenied,
			Strategy:  StrategyElevated,
			Original:  fmt.Errorf("elevated removal failed (exit %d): %s", res.ExitCode, strings.TrimSpace(res.Stderr)),
			NeedsSudo: true,
		}
	}
	if _, err := os.Lstat(path); err == nil {
		return &DeletionError{
			Path:     path,
			Reason:   ErrorUnknown,
			Strategy: StrategyElevated,
			Original: fmt.Errorf("path still present after elevated removal"),
		}
	}
	return nil
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

// =============================================================================
// Manifest
// =============================================================================

// DeletionManifest keeps track of removed items and where trashed ones went.
type DeletionManifest struct {
	mu        sync.Mutex
	Entries   []ManifestEntry
	Timestamp time.Time
	TotalSize int64
}

// ManifestEntry describes one removed item.
type ManifestEntry struct {
	Path      string
	Type      junk.Type
	Size      int64
	Strategy  Strategy
	TrashedTo string
	DeletedAt time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{Timestamp: time.Now()}
}

// Add records a removed item.
func (m *DeletionManifest) Add(item junk.Item, strategy Strategy, trashedTo string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, ManifestEntry{
		Path:      item.Path,
		Type:      item.Type,
		Size:      item.SizeBytes,
		Strategy:  strategy,
		TrashedTo: trashedTo,
		DeletedAt: time.Now(),
	})
	m.TotalSize += item.SizeBytes
}

// Len returns the number of recorded entries.
func (m *DeletionManifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

// Save saves the manifest to a file
func (m *DeletionManifest) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Items: %d\n\n", len(m.Entries))

	for _, e := range m.Entries {
		where := "removed"
		if e.TrashedTo != "" {
			where = "trashed to " + e.TrashedTo
		}
		fmt.Fprintf(file, "%s | %d bytes | %s | %s | %s | %s\n",
			e.Path, e.Size, string(e.Type), e.Strategy, where, e.DeletedAt.Format(time.RFC3339))
	}

	return file.Close()
}
