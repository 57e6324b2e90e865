package platform

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// String renders the call as a command line.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

type fakeRule struct {
	prefix  string
	handler func(Call) (CommandResult, error)
}

// FakeRunner is a scripted Runner for tests. Commands succeed with empty
// output unless a rule matching the command line prefix says otherwise.
// Rules registered later take precedence.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Call
	rules []fakeRule
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts a fixed result for command lines starting with prefix.
func (f *FakeRunner) On(prefix string, res CommandResult, err error) {
	f.OnFunc(prefix, func(Call) (CommandResult, error) { return res, err })
}

// OnFunc scripts a dynamic result for command lines starting with prefix.
func (f *FakeRunner) OnFunc(prefix string, handler func(Call) (CommandResult, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{prefix: prefix, handler: handler})
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, stdin []byte, name string, args ...string) (CommandResult, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Stdin: append([]byte(nil), stdin...)}
	line := call.String()

	f.mu.Lock()
	f.calls = append(f.calls, call)
	var handler func(Call) (CommandResult, error)
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.rules[i].prefix) {
			handler = f.rules[i].handler
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		return CommandResult{}, nil
	}
	return handler(call)
}

// Calls returns a copy of every invocation so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many invocations started with prefix.
func (f *FakeRunner) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}

// Ran reports whether any invocation started with prefix.
func (f *FakeRunner) Ran(prefix string) bool {
	return f.Count(prefix) > 0
}

// IndexOf returns the position of the first invocation starting with
// prefix, or -1.
func (f *FakeRunner) IndexOf(prefix string) int {
	for i, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			return i
		}
	}
	return -1
}
