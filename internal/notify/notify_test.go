package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

func TestDesktopNotifier(t *testing.T) {
	runner := platform.NewFakeRunner()
	n := NewDesktopNotifier(runner)

	require.NoError(t, n.Notify(context.Background(), "Cleanup Complete", `Freed 1.0 MB, 1 failed in "Caches"`))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/usr/bin/osascript", calls[0].Name)
	assert.Equal(t, []string{
		"-e",
		`display notification "Freed 1.0 MB, 1 failed in \"Caches\"" with title "Cleanup Complete"`,
	}, calls[0].Args)
}

func TestDesktopNotifierFailure(t *testing.T) {
	runner := platform.NewFakeRunner()
	runner.On("/usr/bin/osascript", platform.CommandResult{ExitCode: 1, Stderr: "execution error\n"}, nil)

	err := NewDesktopNotifier(runner).Notify(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution error")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a\\b"`, quote(`a\b`))
	assert.Equal(t, `"one two"`, quote("one\ntwo"))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Notify(context.Background(), "Cleanup Complete", "Freed 2.0 MB"))
	assert.Contains(t, buf.String(), `msg="Cleanup Complete"`)
	assert.Contains(t, buf.String(), `message="Freed 2.0 MB"`)
}

type stubNotifier struct {
	got []string
	err error
}

func (s *stubNotifier) Notify(_ context.Context, title, message string) error {
	s.got = append(s.got, title+": "+message)
	return s.err
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &stubNotifier{err: errors.New("no display")}
	ok := &stubNotifier{}

	err := Multi{failing, nil, ok}.Notify(context.Background(), "t", "m")
	assert.ErrorContains(t, err, "no display")
	assert.Equal(t, []string{"t: m"}, failing.got)
	assert.Equal(t, []string{"t: m"}, ok.got)
}
