package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/ui/models"
)

// Work is an operation whose progress is published to a Reporter.
type Work func(ctx context.Context) error

// RunInteractive runs work behind a full-screen progress view for op.
// Quitting the view cancels ctx handed to work and waits for it to return.
func RunInteractive(ctx context.Context, reporter *progress.Reporter, op progress.Operation, title string, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := reporter.Subscribe()
	defer reporter.Unsubscribe(updates)

	m := models.NewProgressModel(title, op, updates, cancel)
	p := tea.NewProgram(m)

	workErr := make(chan error, 1)
	go func() {
		err := work(ctx)
		workErr <- err
		p.Send(models.DoneMsg{Final: reporter.Current(op), Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-workErr
		return fmt.Errorf("error running progress view: %w", err)
	}
	return <-workErr
}
