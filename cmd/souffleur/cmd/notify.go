package cmd

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/souffleur/internal/app"
	"github.com/msto63/souffleur/internal/dispatch"
	"github.com/msto63/souffleur/internal/listener"
	"github.com/msto63/souffleur/internal/tui"
)

// tuiNotifier forwards questions and answers to the running TUI
type tuiNotifier struct {
	program *tea.Program
}

func (n tuiNotifier) QuestionReceived(q dispatch.Question) {
	n.program.Send(tui.QuestionMsg{ID: q.ID, Text: q.Text, At: q.FinalizedAt})
}

func (n tuiNotifier) AnswerReady(res app.AnswerResult) {
	n.program.Send(tui.AnswerMsg{
		QuestionID: res.Question.ID,
		Text:       res.Text,
		Backend:    res.Backend,
		Err:        res.Err,
	})
}

// lineNotifier prints questions, answers and session events as lines
type lineNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *lineNotifier) printf(format string, args ...interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, format, args...)
}

func (n *lineNotifier) QuestionReceived(q dispatch.Question) {
	n.printf("[%s] Q: %s\n", q.FinalizedAt.Format("15:04:05"), q.Text)
}

func (n *lineNotifier) AnswerReady(res app.AnswerResult) {
	if res.Err != nil {
		n.printf("           A: (%s failed: %v)\n", res.Backend, res.Err)
		return
	}
	n.printf("           A: %s\n\n", res.Text)
}

// chattyStatus repeats every capture cycle; shown with --verbose only
var chattyStatus = map[string]bool{
	listener.StatusListening:  true,
	listener.StatusProcessing: true,
	listener.StatusCaptured:   true,
}

// follow prints status changes until the session's events end. Segments
// and questions are left to the notifier.
func (n *lineNotifier) follow(events <-chan listener.Event, all bool) {
	last := ""
	for ev := range events {
		switch ev.Kind {
		case listener.EventStatus:
			if chattyStatus[ev.Status] && !all {
				continue
			}
			if ev.Status != last {
				n.printf("  %s\n", ev.Status)
				last = ev.Status
			}
		case listener.EventCalibrated:
			n.printf("  energy threshold %.0f\n", ev.Threshold)
		}
	}
}
