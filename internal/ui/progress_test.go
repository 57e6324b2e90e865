package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fenilsonani/junk-cleaner/internal/progress"
)

func TestLinePrinterThrottles(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLinePrinter(&buf, progress.OpScan, time.Second)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }

	lp.Print(progress.Update{Op: progress.OpScan, Phase: progress.PhaseRunning, Fraction: 0.1, Task: "Scanning caches"})
	lp.Print(progress.Update{Op: progress.OpScan, Phase: progress.PhaseRunning, Fraction: 0.2, Task: "Scanning logs"})
	now = now.Add(2 * time.Second)
	lp.Print(progress.Update{Op: progress.OpScan, Phase: progress.PhaseRunning, Fraction: 0.3, Task: "Scanning logs"})
	lp.Print(progress.Update{Op: progress.OpClean, Phase: progress.PhaseRunning, Task: "Cleaning: x"})
	lp.Print(progress.Update{Op: progress.OpScan, Phase: progress.PhaseRunning, Fraction: 0.4, Task: "Scanning trash"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"[ 10%] Scanning caches", "[ 30%] Scanning logs"}, lines)
}

func TestLinePrinterAlwaysPrintsTerminal(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLinePrinter(&buf, progress.OpAnalyze, time.Hour)

	lp.Print(progress.Update{Op: progress.OpAnalyze, Phase: progress.PhaseComplete, Task: "Found 3 items (0.00 GB)"})

	assert.Equal(t, "Found 3 items (0.00 GB)\n", buf.String())
}

func TestRunPlainPrintsFinalState(t *testing.T) {
	var buf bytes.Buffer
	reporter := progress.NewReporter()
	boom := errors.New("boom")

	err := RunPlain(context.Background(), reporter, progress.OpAnalyze, &buf, func(context.Context) error {
		reporter.Start(progress.OpAnalyze, "Reading Example.app")
		reporter.Finish(progress.OpAnalyze, progress.PhaseComplete, "Found 0 items (0.00 GB)")
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasSuffix(buf.String(), "Found 0 items (0.00 GB)\n"))
}
