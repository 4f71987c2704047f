package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/msto63/souffleur/internal/listener"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// SourceFactory opens a fresh audio source for a new session
type SourceFactory func(ctx context.Context) (listener.ClipSource, error)

// ControllerConfig configures a Controller
type ControllerConfig struct {
	OpenSource SourceFactory

	// Sink returns the question sink bound to a session ID
	Sink func(sessionID string) listener.Dispatcher

	// Session is the template for every session; Source, ID and
	// Dispatcher are filled in per session
	Session listener.Options

	// OnStart is called before a session runs, OnStop after it returned
	OnStart func(s *listener.Session)
	OnStop  func(s *listener.Session, err error)

	Logger *logging.Logger
}

// Controller starts and stops listening sessions. At most one session
// runs at a time; pausing stops it (flushing buffered speech) and resuming
// opens the microphone again.
type Controller struct {
	cfg    ControllerConfig
	logger *logging.Logger

	mu      sync.Mutex
	current *listener.Session
	wg      sync.WaitGroup
}

// NewController creates a controller
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.OpenSource == nil {
		return nil, fmt.Errorf("source factory is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("question sink is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Controller{cfg: cfg, logger: cfg.Logger}, nil
}

// Start opens the audio source and runs a new session until ctx is done
// or Stop is called
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && !isDone(c.current) {
		return fmt.Errorf("already listening")
	}

	src, err := c.cfg.OpenSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to open audio source: %w", err)
	}

	id := uuid.New().String()
	opts := c.cfg.Session
	opts.ID = id
	opts.Source = src
	opts.Dispatcher = c.cfg.Sink(id)

	sess, err := listener.NewSession(opts)
	if err != nil {
		src.Close()
		return err
	}
	c.current = sess

	if c.cfg.OnStart != nil {
		c.cfg.OnStart(sess)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := sess.Run(ctx)
		if err != nil {
			c.logger.Error("Session ended", "session", sess.ID(), "error", err)
		}
		if c.cfg.OnStop != nil {
			c.cfg.OnStop(sess, err)
		}
	}()

	c.logger.Info("Listening started", "session", sess.ID())
	return nil
}

// Stop ends the running session and waits until its buffered speech has
// been flushed. It is a no-op when nothing is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	if sess == nil {
		return
	}
	sess.Stop()
	<-sess.Done()
	c.logger.Info("Listening stopped", "session", sess.ID())
}

// Toggle pauses a running session or starts a new one
func (c *Controller) Toggle(ctx context.Context) error {
	if c.Listening() {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

// Listening reports whether a session is running
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && !isDone(c.current)
}

// Current returns the running session, or nil
func (c *Controller) Current() *listener.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || isDone(c.current) {
		return nil
	}
	return c.current
}

// Wait blocks until every started session has returned and OnStop ran
func (c *Controller) Wait() {
	c.wg.Wait()
}

func isDone(s *listener.Session) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}
