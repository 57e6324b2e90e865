package models

import (
	"fmt"
	"strings"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/ui/styles"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// UpdateMsg carries one progress update into the view.
type UpdateMsg progress.Update

// DoneMsg ends the view once the work function returns.
type DoneMsg struct {
	Final progress.Update
	Err   error
}

const maxPathWidth = 60

// ProgressModel shows a spinner, a progress bar and the current task of
// one operation. Pressing q or ctrl+c cancels the work and waits for it to
// stop.
type ProgressModel struct {
	title   string
	op      progress.Operation
	updates <-chan progress.Update
	cancel  func()

	spinner    spinner.Model
	bar        bar.Model
	last       progress.Update
	cancelling bool
	done       bool
	err        error
	now        func() time.Time
}

// NewProgressModel creates a view that follows updates for op. cancel is
// called when the user asks to stop.
func NewProgressModel(title string, op progress.Operation, updates <-chan progress.Update, cancel func()) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return &ProgressModel{
		title:   title,
		op:      op,
		updates: updates,
		cancel:  cancel,
		spinner: s,
		bar:     bar.New(bar.WithDefaultGradient(), bar.WithWidth(50)),
		last:    progress.Update{Op: op, Phase: progress.PhaseRunning, Task: "Preparing..."},
		now:     time.Now,
	}
}

// Err returns the error the work function finished with.
func (m *ProgressModel) Err() error {
	return m.err
}

// Last returns the newest update seen.
func (m *ProgressModel) Last() progress.Update {
	return m.last
}

// Init initializes the view
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m *ProgressModel) wait() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return UpdateMsg(u)
	}
}

// Update handles messages
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && !m.done {
				m.cancelling = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 80)
		return m, nil

	case UpdateMsg:
		if msg.Op != m.op {
			return m, m.wait()
		}
		m.last = progress.Update(msg)
		return m, tea.Batch(m.bar.SetPercent(msg.Fraction), m.wait())

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Final.Op == m.op {
			m.last = msg.Final
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bar.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(bar.Model)
		return m, cmd
	}

	return m, nil
}

// View renders the progress view
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(m.title))
	b.WriteString("\n")

	if m.done {
		b.WriteString(m.summary())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.FilePathStyle.Render(truncate(m.last.Task, maxPathWidth)))
	b.WriteString("\n\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Items: %d  Size: %s", m.last.Items, utils.FormatBytes(m.last.Bytes))
	if m.last.Failed > 0 {
		stats += "  " + styles.ErrorStyle.Render(fmt.Sprintf("Failed: %d", m.last.Failed))
	}
	if !m.last.StartTime.IsZero() {
		stats += styles.DimStyle.Render(fmt.Sprintf("  (%s)", m.now().Sub(m.last.StartTime).Round(time.Second)))
	}
	b.WriteString(stats)
	b.WriteString("\n\n")

	if m.cancelling {
		b.WriteString(styles.WarningStyle.Render("Stopping..."))
	} else {
		b.WriteString(styles.HelpStyle.Render("q: cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *ProgressModel) summary() string {
	line := progress.FormatUpdate(m.last)
	switch {
	case m.err != nil:
		return styles.ErrorStyle.Render("✗ " + m.err.Error())
	case m.last.Phase == progress.PhaseCancelled:
		return styles.WarningStyle.Render("⚠ " + line)
	default:
		return styles.SuccessStyle.Render("✓ " + line)
	}
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-(width-3):]
}
