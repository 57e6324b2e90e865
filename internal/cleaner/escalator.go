package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

// ErrElevationDeclined is returned when passwordless elevation could not be
// set up. The whole deletion batch must be abandoned.
var ErrElevationDeclined = errors.New("elevation declined")

// DefaultSudoersDir is where the per-user elevation rule is installed.
const DefaultSudoersDir = "/private/etc/sudoers.d"

// elevatedRemove is the only command the rule grants.
const elevatedRemove = "/bin/rm"

var validUsername = regexp.MustCompile(`^[a-z_][a-z0-9_.-]*$`)

// PasswordPrompt asks the user for their password. An empty password or an
// error means the user declined.
type PasswordPrompt func() ([]byte, error)

// TerminalPrompt reads a password from the terminal without echo.
func TerminalPrompt(in *os.File, out io.Writer) PasswordPrompt {
	return func() ([]byte, error) {
		if !term.IsTerminal(int(in.Fd())) {
			return nil, fmt.Errorf("no terminal to read the password from")
		}
		fmt.Fprint(out, "\nRemoving some items requires administrator rights.\n")
		fmt.Fprint(out, "Password (asked once, Ctrl+C to cancel): ")
		pw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		return pw, err
	}
}

// Elevator grants the rights needed for elevated removal.
type Elevator interface {
	EnsureReady(ctx context.Context) error
}

// Escalator installs a sudoers rule that lets the current user run
// /bin/rm without a password, so one prompt covers every later deletion.
type Escalator struct {
	runner     platform.Runner
	username   string
	sudoersDir string
	prompt     PasswordPrompt
	logger     *slog.Logger
	euid       func() int

	mu    sync.Mutex
	ready bool
}

// NewEscalator creates an Escalator for username. An empty sudoersDir uses
// DefaultSudoersDir.
func NewEscalator(runner platform.Runner, username, sudoersDir string) *Escalator {
	if sudoersDir == "" {
		sudoersDir = DefaultSudoersDir
	}
	return &Escalator{
		runner:     runner,
		username:   username,
		sudoersDir: sudoersDir,
		logger:     slog.Default(),
		euid:       unix.Geteuid,
	}
}

// SetPrompt sets how the password is requested.
func (e *Escalator) SetPrompt(p PasswordPrompt) {
	e.prompt = p
}

// SetLogger sets the logger
func (e *Escalator) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// RulePath returns the location of the user's rule file. sudo skips
// included files whose name contains a dot, so dots become underscores.
func (e *Escalator) RulePath() string {
	return filepath.Join(e.sudoersDir, "junkcleaner_"+strings.ReplaceAll(e.username, ".", "_"))
}

// Rule returns the rule file contents.
func (e *Escalator) Rule() string {
	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD: %s\n", e.username, elevatedRemove)
}

// IsReady reports whether elevated removal works without a prompt: the
// process is root, or the rule is installed and a harmless elevated rm of a
// nonexistent path succeeds.
func (e *Escalator) IsReady(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isReadyLocked(ctx)
}

func (e *Escalator) isReadyLocked(ctx context.Context) bool {
	if e.ready {
		return true
	}
	if e.euid() == 0 {
		e.ready = true
		return true
	}
	if _, err := os.Stat(e.RulePath()); err != nil {
		return false
	}

	probe := filepath.Join(os.TempDir(), ".junkcleaner-probe-"+uuid.NewString())
	res, err := e.runner.Run(ctx, nil, "sudo", "-n", elevatedRemove, "-f", "--", probe)
	if err != nil || !res.Success() {
		return false
	}
	e.ready = true
	return true
}

// EnsureReady installs the rule if needed, prompting for the password at
// most once. It is a no-op when already ready. Any failure wraps
// ErrElevationDeclined.
func (e *Escalator) EnsureReady(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isReadyLocked(ctx) {
		return nil
	}
	if !validUsername.MatchString(e.username) {
		return fmt.Errorf("%w: unsupported user name %q", ErrElevationDeclined, e.username)
	}
	if e.prompt == nil {
		return fmt.Errorf("%w: no way to ask for a password", ErrElevationDeclined)
	}

	password, err := e.prompt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrElevationDeclined, err)
	}
	defer clearBytes(password)
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", ErrElevationDeclined)
	}

	if err := e.validatePassword(ctx, password); err != nil {
		return fmt.Errorf("%w: %v", ErrElevationDeclined, err)
	}
	if err := e.installRule(ctx, password); err != nil {
		return fmt.Errorf("%w: %v", ErrElevationDeclined, err)
	}

	// Drop the cached credentials so the check below exercises the rule.
	if res, err := e.runner.Run(ctx, nil, "sudo", "-k"); err != nil || !res.Success() {
		e.logger.Warn("failed to reset sudo timestamp", "error", err, "stderr", res.Stderr)
	}
	if !e.isReadyLocked(ctx) {
		return fmt.Errorf("%w: rule installed but elevated removal still needs a password", ErrElevationDeclined)
	}
	// Restore the timestamp for the rest of this session.
	if err := e.validatePassword(ctx, password); err != nil {
		e.logger.Debug("failed to refresh sudo timestamp", "error", err)
	}
	e.logger.Info("passwordless removal enabled", "rule", e.RulePath())
	return nil
}

// validatePassword checks the password with sudo -v.
func (e *Escalator) validatePassword(ctx context.Context, password []byte) error {
	res, err := e.sudo(ctx, password, "-v")
	if err != nil {
		return err
	}
	if res.Success() {
		return nil
	}
	if strings.Contains(res.Stderr, "Sorry") || strings.Contains(res.Stderr, "incorrect password") ||
		strings.Contains(res.Stderr, "try again") {
		return fmt.Errorf("incorrect password")
	}
	return fmt.Errorf("sudo validation failed (exit %d): %s", res.ExitCode, res.Stderr)
}

// installRule writes the rule to a temporary file and installs it as root
// with mode 0440, then has visudo check it. A rule visudo rejects is
// removed again.
func (e *Escalator) installRule(ctx context.Context, password []byte) error {
	tmp, err := os.CreateTemp("", "junkcleaner-sudoers-*")
	if err != nil {
		return fmt.Errorf("failed to stage rule: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(e.Rule()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage rule: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage rule: %w", err)
	}

	rule := e.RulePath()
	steps := [][]string{
		{"/bin/mkdir", "-p", e.sudoersDir},
		{"/usr/bin/install", "-m", "0440", tmp.Name(), rule},
	}
	for _, args := range steps {
		res, err := e.sudo(ctx, password, args...)
		if err != nil {
			return err
		}
		if !res.Success() {
			return fmt.Errorf("%s failed (exit %d): %s", args[0], res.ExitCode, res.Stderr)
		}
	}

	res, err := e.sudo(ctx, password, "/usr/sbin/visudo", "-cf", rule)
	if err == nil && res.Success() {
		return nil
	}
	e.sudo(ctx, password, elevatedRemove, "-f", "--", rule)
	if err != nil {
		return err
	}
	return fmt.Errorf("visudo rejected the rule: %s", res.Stderr)
}

// sudo runs a command with sudo -S, feeding the password on stdin.
func (e *Escalator) sudo(ctx context.Context, password []byte, args ...string) (platform.CommandResult, error) {
	input := make([]byte, 0, len(password)+1)
	input = append(input, password...)
	input = append(input, '\n')
	defer clearBytes(input)

	return e.runner.Run(ctx, input, "sudo", append([]string{"-S"}, args...)...)
}

// clearBytes securely zeros a byte slice
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
