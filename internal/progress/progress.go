// Package progress publishes observable progress for scan, clean and
// analyze operations.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// Operation identifies which workflow an update belongs to.
type Operation string

const (
	OpScan    Operation = "scan"
	OpClean   Operation = "clean"
	OpAnalyze Operation = "analyze"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseComplete  Phase = "complete"
	PhaseCancelled Phase = "cancelled"
	PhaseError     Phase = "error"
)

// Update is a snapshot of one operation's progress.
type Update struct {
	Op        Operation
	Phase     Phase
	Fraction  float64
	Task      string
	Items     int
	Bytes     int64
	Failed    int
	StartTime time.Time
	Err       error
}

// Terminal reports whether the update ends its operation.
func (u Update) Terminal() bool {
	return u.Phase == PhaseComplete || u.Phase == PhaseCancelled || u.Phase == PhaseError
}

// Reporter provides thread-safe progress reporting. Fractions never decrease
// between Start calls of the same operation. A nil *Reporter discards every
// update.
type Reporter struct {
	mu        sync.Mutex
	state     map[Operation]Update
	listeners []chan Update
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{state: make(map[Operation]Update)}
}

// Subscribe returns a channel that receives progress updates. A slow
// listener sees the newest update; older ones are dropped.
func (r *Reporter) Subscribe() <-chan Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Update, 32)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Start resets op to zero progress with the given task label.
func (r *Reporter) Start(op Operation, task string) {
	if r == nil {
		return
	}
	r.publish(Update{Op: op, Phase: PhaseRunning, Task: task, StartTime: time.Now()}, true)
}

// Report publishes a running update for u.Op. Fractions are clamped to
// [0, 1] and to at least the previous value.
func (r *Reporter) Report(u Update) {
	if r == nil {
		return
	}
	if u.Phase == "" {
		u.Phase = PhaseRunning
	}
	r.publish(u, false)
}

// Finish publishes the terminal update for op.
func (r *Reporter) Finish(op Operation, phase Phase, task string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	last := r.state[op]
	r.mu.Unlock()

	last.Op = op
	last.Phase = phase
	last.Task = task
	if phase == PhaseComplete {
		last.Fraction = 1
	}
	r.publish(last, false)
}

// Current returns the latest update for op.
func (r *Reporter) Current(op Operation) Update {
	if r == nil {
		return Update{Op: op, Phase: PhaseIdle}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.state[op]
	if !ok {
		return Update{Op: op, Phase: PhaseIdle}
	}
	return u
}

func (r *Reporter) publish(u Update, reset bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		r.state = make(map[Operation]Update)
	}

	if u.Fraction < 0 {
		u.Fraction = 0
	}
	if u.Fraction > 1 {
		u.Fraction = 1
	}
	if prev, ok := r.state[u.Op]; ok && !reset {
		if u.Fraction < prev.Fraction {
			u.Fraction = prev.Fraction
		}
		if u.StartTime.IsZero() {
			u.StartTime = prev.StartTime
		}
	}
	r.state[u.Op] = u

	for _, listener := range r.listeners {
		select {
		case listener <- u:
		default:
			// full: drop the oldest so the newest is kept
			select {
			case <-listener:
			default:
			}
			select {
			case listener <- u:
			default:
			}
		}
	}
}

// FormatUpdate returns a human-readable progress line
func FormatUpdate(u Update) string {
	elapsed := time.Duration(0)
	if !u.StartTime.IsZero() {
		elapsed = time.Since(u.StartTime)
	}

	switch u.Phase {
	case PhaseRunning:
		return fmt.Sprintf("[%3.0f%%] %s", u.Fraction*100, u.Task)
	case PhaseComplete:
		switch u.Op {
		case OpScan:
			return fmt.Sprintf("Scan complete: %d items (%s) in %s",
				u.Items, utils.FormatBytes(u.Bytes), FormatDuration(elapsed))
		case OpClean:
			msg := fmt.Sprintf("Cleanup complete: %d items deleted (%s) in %s",
				u.Items, utils.FormatBytes(u.Bytes), FormatDuration(elapsed))
			if u.Failed > 0 {
				msg += fmt.Sprintf(", %d failed", u.Failed)
			}
			return msg
		default:
			return u.Task
		}
	case PhaseCancelled:
		return fmt.Sprintf("Cancelled after %s", FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("%s error: %v", u.Op, u.Err)
	default:
		return "Preparing..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
