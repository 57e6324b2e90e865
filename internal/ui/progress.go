package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fenilsonani/junk-cleaner/internal/progress"
)

// LinePrinter writes progress as plain lines, for output that is not a
// terminal.
type LinePrinter struct {
	w        io.Writer
	op       progress.Operation
	interval time.Duration
	now      func() time.Time

	lastTask  string
	lastPrint time.Time
}

// NewLinePrinter creates a printer for op that writes at most one line
// per interval.
func NewLinePrinter(w io.Writer, op progress.Operation, interval time.Duration) *LinePrinter {
	return &LinePrinter{w: w, op: op, interval: interval, now: time.Now}
}

// Print writes u when it belongs to op, names a new task and the
// throttle interval has passed. Terminal updates are always written.
func (lp *LinePrinter) Print(u progress.Update) {
	if u.Op != lp.op {
		return
	}
	if !u.Terminal() {
		now := lp.now()
		if u.Task == lp.lastTask || now.Sub(lp.lastPrint) < lp.interval {
			return
		}
		lp.lastPrint = now
	}
	lp.lastTask = u.Task
	fmt.Fprintln(lp.w, progress.FormatUpdate(u))
}

// Follow prints updates until the channel is closed.
func (lp *LinePrinter) Follow(updates <-chan progress.Update) {
	for u := range updates {
		if u.Terminal() {
			continue
		}
		lp.Print(u)
	}
}

// RunPlain runs work while printing its progress for op to w, then prints
// the final state.
func RunPlain(ctx context.Context, reporter *progress.Reporter, op progress.Operation, w io.Writer, work Work) error {
	lp := NewLinePrinter(w, op, 250*time.Millisecond)
	updates := reporter.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		lp.Follow(updates)
	}()

	err := work(ctx)
	reporter.Unsubscribe(updates)
	<-done

	lp.Print(reporter.Current(op))
	return err
}
