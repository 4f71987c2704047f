// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     dispatch
// Description: Asynchronous hand-off of finalized questions
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

// Package dispatch decouples the listening loop from whatever consumes
// finalized questions. Enqueueing never blocks; handlers run on a single
// worker goroutine in arrival order.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/souffleur/pkg/core/logging"
)

// Question is a finalized utterance travelling to the handlers
type Question struct {
	ID          string
	SessionID   string
	Text        string
	FinalizedAt time.Time
}

// Handler consumes questions. Errors are logged; they never reach the
// listening loop.
type Handler interface {
	HandleQuestion(ctx context.Context, q Question) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, q Question) error

// HandleQuestion calls f
func (f HandlerFunc) HandleQuestion(ctx context.Context, q Question) error {
	return f(ctx, q)
}

// Config holds dispatcher configuration
type Config struct {
	// HandlerTimeout bounds one handler call (default: 90s)
	HandlerTimeout time.Duration

	Logger *logging.Logger

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Dispatcher queues questions in memory and feeds them to its handlers
type Dispatcher struct {
	handlers []Handler
	timeout  time.Duration
	logger   *logging.Logger
	now      func() time.Time

	queueMu sync.Mutex
	queue   []Question
	closed  bool

	notifyCh chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}

	baseCtx    context.Context
	cancelBase context.CancelFunc
	closeOnce  sync.Once
}

// New creates a dispatcher and starts its worker
func New(cfg Config, handlers ...Handler) *Dispatcher {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 90 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handlers:   handlers,
		timeout:    cfg.HandlerTimeout,
		logger:     cfg.Logger,
		now:        cfg.Now,
		notifyCh:   make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseCtx:    ctx,
		cancelBase: cancel,
	}

	go d.worker()

	return d
}

// OnUtteranceFinalized queues text that has no session attached
func (d *Dispatcher) OnUtteranceFinalized(text string) {
	d.Enqueue("", text)
}

// ForSession returns a sink that tags questions with the session ID
func (d *Dispatcher) ForSession(sessionID string) *Sink {
	return &Sink{dispatcher: d, sessionID: sessionID}
}

// Enqueue adds a question to the queue. It returns the question ID, or ""
// when the text is blank or the dispatcher is closed.
func (d *Dispatcher) Enqueue(sessionID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	q := Question{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Text:        text,
		FinalizedAt: d.now(),
	}

	d.queueMu.Lock()
	if d.closed {
		d.queueMu.Unlock()
		d.logger.Warn("Dispatcher closed, question dropped", "text", text)
		return ""
	}
	d.queue = append(d.queue, q)
	d.queueMu.Unlock()

	select {
	case d.notifyCh <- struct{}{}:
	default:
	}

	return q.ID
}

// Pending returns the number of queued questions not yet handed out
func (d *Dispatcher) Pending() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.queue)
}

// Close stops accepting questions, lets the worker drain the queue and
// waits for it. Cancelling ctx aborts the handlers still running.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.queueMu.Lock()
		d.closed = true
		d.queueMu.Unlock()
		close(d.stopCh)
	})

	select {
	case <-d.doneCh:
		return nil
	case <-ctx.Done():
		d.cancelBase()
		<-d.doneCh
		return fmt.Errorf("dispatcher drain aborted: %w", ctx.Err())
	}
}

// worker drains the queue whenever notified
func (d *Dispatcher) worker() {
	defer close(d.doneCh)
	defer d.cancelBase()

	for {
		select {
		case <-d.stopCh:
			// Final drain
			d.drain()
			return
		case <-d.notifyCh:
			d.drain()
		}
	}
}

// drain hands out everything queued so far
func (d *Dispatcher) drain() {
	for {
		d.queueMu.Lock()
		if len(d.queue) == 0 {
			d.queueMu.Unlock()
			return
		}
		q := d.queue[0]
		d.queue = d.queue[1:]
		d.queueMu.Unlock()

		d.handle(q)
	}
}

func (d *Dispatcher) handle(q Question) {
	d.logger.Debug("Dispatching question", "id", q.ID, "session", q.SessionID)

	for _, h := range d.handlers {
		if d.baseCtx.Err() != nil {
			d.logger.Warn("Dispatch aborted", "id", q.ID)
			return
		}
		d.call(h, q)
	}
}

// call runs one handler, containing its panics
func (d *Dispatcher) call(h Handler, q Question) {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Question handler panicked", "id", q.ID, "panic", r)
		}
	}()

	if err := h.HandleQuestion(ctx, q); err != nil {
		d.logger.Warn("Question handler failed", "id", q.ID, "error", err)
	}
}

// Sink binds a dispatcher to one listening session
type Sink struct {
	dispatcher *Dispatcher
	sessionID  string
}

// OnUtteranceFinalized queues text under the sink's session
func (s *Sink) OnUtteranceFinalized(text string) {
	s.dispatcher.Enqueue(s.sessionID, text)
}
