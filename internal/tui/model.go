// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     tui
// Description: Bubbletea model showing live speech, questions and answers
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/souffleur/internal/listener"
)

// maxEntries bounds the question list kept on screen
const maxEntries = 50

// entry is one question with its (pending) answer
type entry struct {
	id       string
	question string
	at       string
	answer   string
	backend  string
	err      error
	pending  bool
}

// Config holds TUI configuration
type Config struct {
	Version string
	Profile string
	Device  string
	Backend string

	// OnToggle is called when the user pauses or resumes listening
	OnToggle func()
}

// Model is the main Bubbletea model
type Model struct {
	// State
	width     int
	height    int
	ready     bool
	listening bool
	status    string
	state     listener.State
	threshold float64
	live      string
	err       error

	// Components
	viewport viewport.Model
	spinner  spinner.Model

	entries []entry
	events  <-chan listener.Event

	cfg Config
}

// New creates a new TUI model
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		spinner: sp,
		status:  listener.StatusInitializing,
		cfg:     cfg,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.EnterAltScreen,
	)
}

// waitForEvent reads the next session event
func waitForEvent(events <-chan listener.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{source: events}
		}
		return eventMsg{event: ev, source: events}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3 // Title panel
		liveHeight := 4   // Live transcript panel
		footerHeight := 2 // Status bar + help
		viewportHeight := msg.Height - headerHeight - liveHeight - footerHeight - 2
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight + liveHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SessionStartedMsg:
		m.listening = true
		m.err = nil
		m.live = ""
		m.events = msg.Events
		if msg.Events != nil {
			cmds = append(cmds, waitForEvent(msg.Events))
		}

	case SessionStoppedMsg:
		m.listening = false
		m.err = msg.Err

	case eventMsg:
		// Leftovers from a session that was toggled away
		if msg.source != m.events {
			break
		}
		m.applyEvent(msg.event)
		if m.events != nil {
			cmds = append(cmds, waitForEvent(m.events))
		}

	case eventsClosedMsg:
		if msg.source != m.events {
			break
		}
		m.events = nil
		m.listening = false
		m.state = listener.StateIdle

	case QuestionMsg:
		m.addQuestion(msg)
		m.updateViewportContent()
		m.viewport.GotoBottom()

	case AnswerMsg:
		m.setAnswer(msg)
		m.updateViewportContent()
		m.viewport.GotoBottom()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyEvent folds a session event into the display state
func (m *Model) applyEvent(ev listener.Event) {
	m.state = ev.State
	switch ev.Kind {
	case listener.EventStatus:
		m.status = ev.Status
	case listener.EventSegment:
		m.live = listener.MergeTranscript(m.live, ev.Text)
	case listener.EventQuestion:
		m.live = ""
	case listener.EventCalibrated:
		m.threshold = ev.Threshold
	}
}

func (m *Model) addQuestion(msg QuestionMsg) {
	at := ""
	if !msg.At.IsZero() {
		at = msg.At.Format("15:04:05")
	}
	m.entries = append(m.entries, entry{
		id:       msg.ID,
		question: msg.Text,
		at:       at,
		pending:  true,
	})
	if over := len(m.entries) - maxEntries; over > 0 {
		m.entries = append([]entry(nil), m.entries[over:]...)
	}
}

func (m *Model) setAnswer(msg AnswerMsg) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].id == msg.QuestionID {
			m.entries[i].pending = false
			m.entries[i].answer = msg.Text
			m.entries[i].backend = msg.Backend
			m.entries[i].err = msg.Err
			return
		}
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeySpace:
		if m.cfg.OnToggle != nil {
			m.cfg.OnToggle()
		}
		return m, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit

		// Pause/Resume listening
		case "l", "p":
			if m.cfg.OnToggle != nil {
				m.cfg.OnToggle()
			}
			return m, nil

		// Clear the question list
		case "c":
			m.entries = nil
			m.updateViewportContent()
			return m, nil

		case "g":
			m.viewport.GotoTop()
			return m, nil

		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil

	case tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil

	case tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	return m, nil
}

// updateViewportContent renders the question list into the viewport
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderEntries())
}

func (m Model) renderEntries() string {
	if len(m.entries) == 0 {
		return HelpDescStyle.Render("No questions yet. Captured questions and suggested answers appear here.")
	}

	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(TimestampStyle.Render(e.at) + " ")
		b.WriteString(QuestionStyle.Width(width).Render(IconQuestion + e.question))
		b.WriteString("\n")

		switch {
		case e.pending:
			b.WriteString(PendingStyle.Render(IconAnswer + "thinking..."))
		case e.err != nil:
			b.WriteString(ErrorStyle.Width(width).Render(IconAnswer + "answer failed: " + e.err.Error()))
		case e.answer == "":
			b.WriteString(PendingStyle.Render(IconAnswer + "(no answer backend)"))
		default:
			b.WriteString(AnswerStyle.Width(width).Render(IconAnswer + e.answer))
		}
	}
	return b.String()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Starting souffleur..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderLive())
	b.WriteString("\n")

	b.WriteString(QAPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderHelpBar())

	return b.String()
}

// renderHeader renders the header with logo and listening indicator
func (m Model) renderHeader() string {
	logo := LogoStyle.Render(Logo)

	var indicator string
	if m.listening {
		indicator = ListeningStyle.Render(IconListening + "listening")
	} else {
		indicator = PausedStyle.Render(IconPaused + "paused")
	}

	info := HelpDescStyle.Render(fmt.Sprintf("profile %s  device %s  answers %s",
		orDash(m.cfg.Profile), orDash(m.cfg.Device), orDash(m.cfg.Backend)))

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		logo,
		strings.Repeat(" ", 3),
		indicator,
		strings.Repeat(" ", 3),
		info,
	)

	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

// renderLive renders the utterance being spoken right now
func (m Model) renderLive() string {
	text := m.live
	if text == "" {
		text = HelpDescStyle.Render("...")
	} else {
		text = LiveTextStyle.Render(text)
	}
	return LivePanelStyle.Width(m.width - 2).Render(RenderState(m.state) + " " + text)
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	status := m.status
	if m.busy() {
		status = m.spinner.View() + " " + status
	}
	if m.err != nil {
		status = ErrorStyle.Render(m.err.Error())
	}

	left := status
	right := HelpDescStyle.Render(fmt.Sprintf("threshold %.0f  v%s", m.threshold, m.cfg.Version))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) busy() bool {
	switch m.status {
	case listener.StatusProcessing, listener.StatusWaiting, listener.StatusCalibrating, listener.StatusInitializing:
		return true
	}
	return false
}

// renderHelpBar renders the key hints
func (m Model) renderHelpBar() string {
	hints := []string{
		RenderKeyHint("space", "pause/resume"),
		RenderKeyHint("↑/↓", "scroll"),
		RenderKeyHint("c", "clear"),
		RenderKeyHint("q", "quit"),
	}
	return strings.Join(hints, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
