package tui

import (
	"time"

	"github.com/msto63/souffleur/internal/listener"
)

// Message types for tea.Cmd async operations and tea.Program.Send

// eventMsg carries one session event. source identifies the stream it was
// read from so events of a replaced session can be dropped.
type eventMsg struct {
	event  listener.Event
	source <-chan listener.Event
}

// eventsClosedMsg is sent when a session's event stream ends
type eventsClosedMsg struct {
	source <-chan listener.Event
}

// SessionStartedMsg attaches the TUI to a (new) session's events
type SessionStartedMsg struct {
	ID     string
	Events <-chan listener.Event
}

// SessionStoppedMsg reports that listening was paused
type SessionStoppedMsg struct {
	Err error
}

// QuestionMsg adds a finalized question to the list
type QuestionMsg struct {
	ID   string
	Text string
	At   time.Time
}

// AnswerMsg fills in the answer for a question
type AnswerMsg struct {
	QuestionID string
	Text       string
	Backend    string
	Err        error
}
