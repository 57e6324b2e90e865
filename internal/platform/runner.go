package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandResult captures the outcome of an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Runner executes external commands. Implementations return an error only
// when the command could not be run at all; a non-zero exit is reported via
// CommandResult.ExitCode.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with a 60 second per-command timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: 60 * time.Second}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) (CommandResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{
		Stdout: stdout.String(),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%s timed out: %w", name, ctx.Err())
	}
	return res, fmt.Errorf("failed to run %s: %w", name, err)
}
