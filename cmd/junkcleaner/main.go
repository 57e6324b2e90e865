package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/config"
	"github.com/fenilsonani/junk-cleaner/internal/logging"
	"github.com/fenilsonani/junk-cleaner/internal/notify"
	"github.com/fenilsonani/junk-cleaner/internal/platform"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/reporter"
	"github.com/fenilsonani/junk-cleaner/internal/ui"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	noTUI      bool
	outputFmt  string
	outputFile string
	assumeYes  bool
	permanent  bool
	typeKeys   []string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "junkcleaner",
	Short: "Find and remove junk on macOS",
	Long: `junkcleaner scans a Mac for caches, logs, leftovers of removed applications
and developer junk, removes what you select, and uninstalls applications
together with everything they left behind.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "print plain progress lines instead of the progress view")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(diskCmd)
}

// =============================================================================
// Environment
// =============================================================================

// env holds what every command needs.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	layout   *platform.Layout
	runner   platform.Runner
	progress *progress.Reporter
	format   reporter.OutputFormat
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Load(config.GetConfigPath())
}

func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	layout, err := platform.CurrentLayout()
	if err != nil {
		return nil, err
	}

	format := reporter.FormatSummary
	if outputFmt != "" {
		if format, err = reporter.ParseFormat(outputFmt); err != nil {
			return nil, err
		}
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		layout:   layout,
		runner:   platform.NewExecRunner(),
		progress: progress.NewReporter(),
		format:   format,
	}, nil
}

// interactive reports whether the progress view can own the terminal.
func (e *env) interactive() bool {
	if noTUI || !e.textOutput() {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// textOutput reports whether output is meant for people rather than
// other programs.
func (e *env) textOutput() bool {
	return e.format == reporter.FormatSummary || e.format == reporter.FormatTable
}

// run executes work while showing its progress for op.
func (e *env) run(ctx context.Context, op progress.Operation, title string, work ui.Work) error {
	if e.interactive() {
		return ui.RunInteractive(ctx, e.progress, op, title, work)
	}
	return ui.RunPlain(ctx, e.progress, op, os.Stderr, work)
}

// report returns the reporter for command output. When --file is set the
// returned closer must be called.
func (e *env) report() (*reporter.Reporter, func() error, error) {
	if outputFile == "" {
		return reporter.New(os.Stdout, e.format), func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return reporter.New(f, e.format), f.Close, nil
}

func (e *env) newEscalator() *cleaner.Escalator {
	esc := cleaner.NewEscalator(e.runner, e.layout.Username, e.cfg.SudoersDir)
	esc.SetPrompt(cleaner.TerminalPrompt(os.Stdin, os.Stderr))
	esc.SetLogger(e.logger)
	return esc
}

func (e *env) newNotifier() cleaner.Notifier {
	if !e.cfg.Clean.Notify {
		return notify.NewLogNotifier(e.logger)
	}
	return notify.Multi{notify.NewLogNotifier(e.logger), notify.NewDesktopNotifier(e.runner)}
}

// newCleaner wires a cleaner with elevation, notification and the
// configured extra protected paths.
func (e *env) newCleaner(esc cleaner.Elevator) *cleaner.Cleaner {
	c := cleaner.New(e.cfg.CleanerOptions(), e.layout, e.runner, esc)
	c.SetProgressReporter(e.progress)
	c.SetLogger(e.logger)
	c.SetNotifier(e.newNotifier())
	for _, p := range e.cfg.ProtectedPaths {
		c.Validator().AddProtectedPath(p)
	}
	return c
}

// =============================================================================
// Helpers
// =============================================================================

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// withinProtected reports whether path is one of protected or inside one.
func withinProtected(path string, protected []string) bool {
	for _, p := range protected {
		p = filepath.Clean(p)
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
