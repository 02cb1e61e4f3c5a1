package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/foundry/types"
)

// eventMsg wraps a stream event for the Bubble Tea update loop.
type eventMsg types.StreamEvent

// doneMsg signals that the event channel closed.
type doneMsg struct{}

// ProgressModel renders a live view of an in-flight generation: project
// name, committed files, the file currently streaming, and declared
// dependencies.
type ProgressModel struct {
	events <-chan types.StreamEvent

	spinner    spinner.Model
	project    string
	active     string
	activeLen  int
	committed  []string
	deps       map[string]string
	terminal   bool
	done       bool
}

// NewProgressModel creates a progress model consuming the given channel.
// The producer closes the channel when the stream ends.
func NewProgressModel(events <-chan types.StreamEvent) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle
	return ProgressModel{
		events:  events,
		spinner: sp,
		deps:    make(map[string]string),
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.nextEvent())
}

// nextEvent waits for the next stream event.
func (m ProgressModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(types.StreamEvent(msg))
		if m.terminal {
			return m, tea.Quit
		}
		return m, m.nextEvent()

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// apply folds one stream event into the view state.
func (m *ProgressModel) apply(ev types.StreamEvent) {
	switch ev.Type {
	case types.EventProjectStart:
		m.project = ev.Name
	case types.EventFileStart:
		m.active = ev.Path
		m.activeLen = 0
	case types.EventFileContent:
		m.activeLen += len(ev.Chunk)
	case types.EventFileEnd:
		if m.active != "" {
			m.committed = append(m.committed, m.active)
		}
		m.active = ""
		m.activeLen = 0
	case types.EventDependency:
		m.deps[ev.Dependency] = ev.DepVersion
	case types.EventProjectEnd:
		m.terminal = true
	}
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var sb strings.Builder

	title := m.project
	if title == "" {
		title = "assembling project"
	}
	sb.WriteString(TitleStyle.Render(title))
	sb.WriteString("\n")

	for _, path := range m.committed {
		sb.WriteString(FileStyle.Render("  ✓ " + path))
		sb.WriteString("\n")
	}
	if m.active != "" {
		sb.WriteString(ActiveStyle.Render(fmt.Sprintf("  %s %s (%d bytes)",
			m.spinner.View(), m.active, m.activeLen)))
		sb.WriteString("\n")
	}

	if len(m.deps) > 0 {
		names := make([]string, 0, len(m.deps))
		for name := range m.deps {
			names = append(names, name)
		}
		sort.Strings(names)
		var parts []string
		for _, name := range names {
			parts = append(parts, name+"@"+m.deps[name])
		}
		sb.WriteString(DepStyle.Render("  deps: " + strings.Join(parts, ", ")))
		sb.WriteString("\n")
	}

	if m.terminal || m.done {
		sb.WriteString(FileStyle.Render("  project complete"))
		sb.WriteString("\n")
	} else {
		sb.WriteString(HelpStyle.Render("  q to quit"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RunProgress drives the progress TUI until the stream ends or the user
// quits.
func RunProgress(events <-chan types.StreamEvent) error {
	p := tea.NewProgram(NewProgressModel(events))
	_, err := p.Run()
	return err
}
