// Package notify delivers completion notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

const osascript = "/usr/bin/osascript"

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// =============================================================================
// Log
// =============================================================================

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, title, message string) error {
	n.logger.Info(title, "message", message)
	return nil
}

// =============================================================================
// Desktop
// =============================================================================

// DesktopNotifier posts a Notification Center banner through osascript.
type DesktopNotifier struct {
	runner platform.Runner
}

// NewDesktopNotifier creates a DesktopNotifier that runs osascript through
// runner.
func NewDesktopNotifier(runner platform.Runner) *DesktopNotifier {
	return &DesktopNotifier{runner: runner}
}

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(ctx context.Context, title, message string) error {
	script := fmt.Sprintf("display notification %s with title %s", quote(message), quote(title))
	res, err := n.runner.Run(ctx, nil, osascript, "-e", script)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("failed to post notification: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	return `"` + s + `"`
}

// =============================================================================
// Fan-out
// =============================================================================

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
