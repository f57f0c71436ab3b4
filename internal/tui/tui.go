// Package tui provides a Bubble Tea terminal user interface for concert-scanner.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/concert-scanner/internal/config"
	"github.com/handiism/concert-scanner/internal/extract"
	"github.com/handiism/concert-scanner/internal/pipeline"
	"github.com/handiism/concert-scanner/internal/watch"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 12

// State represents the current UI state.
type State int

const (
	StateStarting State = iota
	StateWatching
	StateStopping
	StateDone
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   pipeline.ProgressLevel
	Time    time.Time
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	logs     []LogEntry
	err      error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	manager *pipeline.Manager
	events  chan pipeline.ProgressEvent

	stats    pipeline.Stats
	lastFile string
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model around a pipeline built from settings
// and extractor. The pipeline starts when the program starts.
func NewModel(settings *config.Settings, extractor extract.Extractor) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan pipeline.ProgressEvent, 256)
	manager := pipeline.NewManager(settings, extractor, func(event pipeline.ProgressEvent) {
		// Never block the pipeline on a slow or exited UI.
		select {
		case events <- event:
		default:
		}
	})

	return Model{
		state:    StateStarting,
		spinner:  sp,
		progress: prog,
		settings: settings,
		logs:     make([]LogEntry, 0, maxLogs),
		ctx:      ctx,
		cancel:   cancel,
		manager:  manager,
		events:   events,
	}
}

// Init starts the pipeline and the UI loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun(), m.waitForEvent(), m.tickProgress())
}

// Message types
type (
	// ProgressMsg carries one pipeline progress event.
	ProgressMsg struct {
		Event pipeline.ProgressEvent
	}

	// RunDoneMsg is sent when the pipeline returns.
	RunDoneMsg struct {
		Err error
	}

	// TickMsg is for periodic stats updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			switch m.state {
			case StateStarting, StateWatching:
				// Run returns once the item in flight is written.
				m.cancel()
				m.state = StateStopping
			case StateDone, StateError:
				return m, tea.Quit
			}

		case "v":
			m.verbose = !m.verbose
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		m.addLog(msg.Event)

	case RunDoneMsg:
		// Events sent after cancellation, such as the rows of the image
		// that was in flight, are still buffered.
		m.drainEvents()
		m.stats = m.manager.Stats()
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.state = StateDone

	case TickMsg:
		m.stats = m.manager.Stats()
		if m.state == StateStarting && m.manager.WatcherState() == watch.StateObserving {
			m.state = StateWatching
		}
		if m.state != StateDone && m.state != StateError {
			var percent float64
			if m.stats.Backlog > 0 {
				percent = float64(m.stats.BacklogDone) / float64(m.stats.Backlog)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// addLog records an event, hiding verbose ones unless verbose mode is on.
func (m *Model) addLog(event pipeline.ProgressEvent) {
	if event.File != "" {
		m.lastFile = event.File
	}
	if event.Level == pipeline.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{
		Message: event.Message,
		Level:   event.Level,
		Time:    time.Now(),
	})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// drainEvents logs every event still buffered without blocking.
func (m *Model) drainEvents() {
	for {
		select {
		case event := <-m.events:
			m.addLog(event)
		default:
			return
		}
	}
}

// tickProgress returns a command to tick stats updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent returns a command that delivers the next progress event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-m.events:
			return ProgressMsg{Event: event}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// startRun runs the pipeline in the background until the context is
// cancelled.
func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		return RunDoneMsg{Err: m.manager.Run(m.ctx)}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎸 Concert Scanner"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Turn gig posters into concert listings"))
	b.WriteString("\n\n")

	switch m.state {
	case StateStarting:
		b.WriteString(m.viewStarting())
	case StateWatching, StateStopping:
		b.WriteString(m.viewWatching())
	case StateDone:
		b.WriteString(m.viewDone())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewStarting() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.stats.Backlog > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Processing existing images (%d/%d)", m.stats.BacklogDone, m.stats.Backlog)))
		b.WriteString("\n\n")
		b.WriteString(m.progress.View())
	} else {
		b.WriteString(subtitleStyle.Render("Starting..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewWatching() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.state == StateStopping {
		b.WriteString(warningStyle.Render("Stopping, finishing the current image..."))
	} else {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Watching %s", m.settings.WatchFolder)))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s", m.settings.CSVOutput)))
	if m.settings.ICalOutput != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" | Calendar: %s", m.settings.ICalOutput)))
	}
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Processed: %d | Rows: %d | Failed: %d | Skipped: %d",
		m.stats.Processed,
		m.stats.Rows,
		m.stats.Failed,
		m.stats.Skipped,
	)))
	b.WriteString("\n")
	if m.lastFile != "" {
		b.WriteString(fileStyle.Render(fmt.Sprintf("  ♪ last: %s", filepath.Base(m.lastFile))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDone() string {
	var b strings.Builder

	b.WriteString(boxStyle.Render(fmt.Sprintf(
		"✨ Stopped\n\n"+
			"Images: %d\n"+
			"Rows: %d\n"+
			"Failed: %d",
		m.stats.Processed,
		m.stats.Rows,
		m.stats.Failed,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case pipeline.LevelError:
			style = errorStyle
			prefix = "✗"
		case pipeline.LevelWarning:
			style = warningStyle
			prefix = "!"
		case pipeline.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case pipeline.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(dimStyle.Render(log.Time.Format("15:04:05")) + " ")
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	verbose := "off"
	if m.verbose {
		verbose = "on"
	}
	switch m.state {
	case StateStarting, StateWatching:
		return fmt.Sprintf("q: stop • v: verbose (%s)", verbose)
	case StateStopping:
		return "waiting for the current image..."
	case StateDone, StateError:
		return "q: quit"
	}
	return ""
}

// Run starts the TUI application and blocks until the user quits.
func Run(settings *config.Settings, extractor extract.Extractor) error {
	m := NewModel(settings, extractor)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
