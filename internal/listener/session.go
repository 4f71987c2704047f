// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     listener
// Description: Continuous listening session turning audio into questions
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package listener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/internal/listener/stt"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// ClipSource yields speech clips and ambient noise samples
type ClipSource interface {
	NextClip(ctx context.Context, req audio.ClipRequest) (audio.Clip, error)
	SampleAmbient(ctx context.Context, window time.Duration) (audio.NoiseSample, error)
	Close() error
}

// Dispatcher receives finalized questions. It must not block.
type Dispatcher interface {
	OnUtteranceFinalized(text string)
}

// Observer receives session measurements (metrics)
type Observer interface {
	SegmentAccepted(words int)
	UtteranceFinalized(rule string, words int, duration time.Duration)
	TranscriptionFailed(engine string, unrecognized bool)
	Calibrated(threshold float64, failed bool)
	EventDropped()
}

// Options configures a Session
type Options struct {
	Source      ClipSource
	Transcriber stt.Transcriber
	Dispatcher  Dispatcher
	Profile     SensitivityProfile
	Language    string

	// ID overrides the generated session identifier
	ID string

	// TranscribeTimeout bounds one transcription call
	TranscribeTimeout time.Duration

	// EventBuffer is the capacity of the events channel
	EventBuffer int

	Logger   *logging.Logger
	Observer Observer

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Session runs the capture, transcribe, accumulate, finalize loop on a
// single goroutine. Utterance and calibration state never leave it.
type Session struct {
	id          string
	source      ClipSource
	transcriber stt.Transcriber
	dispatcher  Dispatcher
	profile     SensitivityProfile
	language    string
	timeout     time.Duration
	logger      *logging.Logger
	observer    Observer
	now         func() time.Time

	policy     FinalizationPolicy
	calibrator *AmbientCalibrator
	states     *StateMachine

	utterance Utterance
	calib     CalibrationState

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool
}

// NewSession validates the options and creates a session
func NewSession(opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("clip source is required")
	}
	if opts.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if opts.Profile.Name == "" {
		opts.Profile = DefaultProfile()
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = 15 * time.Second
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &Session{
		id:          id,
		source:      opts.Source,
		transcriber: opts.Transcriber,
		dispatcher:  opts.Dispatcher,
		profile:     opts.Profile,
		language:    opts.Language,
		timeout:     opts.TranscribeTimeout,
		logger:      opts.Logger.With("session", shortID(id)),
		observer:    opts.Observer,
		now:         opts.Now,
		policy:      NewFinalizationPolicy(opts.Profile),
		calibrator:  NewAmbientCalibrator(opts.Profile, opts.Logger),
		states:      NewStateMachine(opts.Now),
		calib:       CalibrationState{EnergyThreshold: opts.Profile.InitialEnergyThreshold},
		events:      make(chan Event, opts.EventBuffer),
		done:        make(chan struct{}),
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Events returns the advisory event stream. It is closed when Run returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current segmentation state
func (s *Session) State() State {
	return s.states.Current()
}

// OnStateChange registers a listener for state transitions
func (s *Session) OnStateChange(listener StateChangeListener) {
	s.states.AddListener(listener)
}

// Run listens until ctx is done or Stop is called. On exit it flushes any
// buffered speech to the dispatcher, closes the source and the events
// channel. It returns an error only when the audio source is gone.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("session already running")
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if s.stopped {
		cancel()
	}
	s.mu.Unlock()

	defer close(s.done)
	defer cancel()

	s.status(StatusInitializing)
	if ctx.Err() == nil {
		s.calibrate(ctx, s.profile.InitialCalibration, false)
		s.status(StatusReady)
	}

	var runErr error
	for ctx.Err() == nil {
		if err := s.tick(ctx); err != nil {
			runErr = err
			break
		}
	}

	s.shutdown()
	return runErr
}

// Stop cancels capture. Run finishes the clip in flight, flushes and
// returns; wait on Done to observe that.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

// tick runs one capture attempt followed by a finalize evaluation. A panic
// inside is logged and the loop continues.
func (s *Session) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Listener tick panicked", "panic", r)
			s.status(StatusError)
			err = nil
		}
	}()

	if s.states.Current() == StateIdle && s.calibrator.Due(&s.calib, s.now()) {
		s.calibrate(ctx, s.profile.Recalibration, true)
	}

	if s.utterance.Empty() {
		s.status(StatusListening)
	}

	clip, err := s.source.NextClip(ctx, audio.ClipRequest{
		StartTimeout:    s.profile.StartTimeout,
		EnergyThreshold: s.calib.EnergyThreshold,
		MaxDuration:     s.profile.MaxDuration,
	})
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		s.evaluate(s.now())
		return nil
	case err != nil && ctx.Err() != nil:
		// Stopping; shutdown flushes the buffer
		return nil
	case errors.Is(err, audio.ErrNotRunning):
		s.logger.Error("Audio source stopped", "error", err)
		return err
	case err != nil:
		s.logger.Warn("Capture failed", "error", err)
		s.status(StatusAudioError)
		s.evaluate(s.now())
		return nil
	}

	s.processClip(ctx, clip)
	if clip.Truncated {
		// Noise held the recorder open; the room is louder than the threshold
		s.calibrate(ctx, s.profile.Recalibration, true)
	}
	s.evaluate(s.now())
	return nil
}

// processClip transcribes a captured clip and folds the text in. A stop
// request does not abort transcription of audio that was already captured.
func (s *Session) processClip(ctx context.Context, clip audio.Clip) {
	s.status(StatusProcessing)

	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	res, err := s.transcriber.Transcribe(tctx, clip, s.language)
	if err != nil {
		unrecognized := errors.Is(err, stt.ErrUnrecognized)
		s.observer.TranscriptionFailed(s.transcriber.Name(), unrecognized)
		if unrecognized {
			s.logger.Debug("Clip not recognized", "seconds", clip.Duration().Seconds())
		} else {
			s.logger.Warn("Transcription failed", "engine", s.transcriber.Name(), "error", err)
			s.status(StatusServiceError)
		}
		return
	}

	capturedAt := clip.EndedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}
	s.accept(Segment{Text: res.Text, Confidence: res.Confidence, CapturedAt: capturedAt})
}

// accept folds a segment into the utterance
func (s *Session) accept(seg Segment) {
	if !s.utterance.Accept(seg) {
		return
	}

	if utf8.RuneCountInString(seg.Text) < s.profile.ShortSegmentRunes {
		s.calib.Nudge(s.profile.SensitivityNudge, s.profile.MinEnergyThreshold)
	}

	s.states.Transition(StateAccumulating)
	s.observer.SegmentAccepted(len(strings.Fields(seg.Text)))
	s.logger.Debug("Segment accepted", "text", seg.Text, "confidence", seg.Confidence, "buffer", s.utterance.Text)
	s.emit(Event{Kind: EventSegment, Text: seg.Text, Confidence: seg.Confidence})
	s.status(StatusCaptured)
}

// evaluate applies one policy decision
func (s *Session) evaluate(now time.Time) {
	d := s.policy.Evaluate(&s.utterance, now)
	switch d.Action {
	case ActionStartConfirm:
		s.utterance.PendingFinalizeSince = now
		s.states.Transition(StatePendingConfirm)
		s.status(StatusWaiting)
	case ActionFinalize:
		s.finalize(d.Rule, now)
	}
}

// finalize hands the utterance to the dispatcher and resets it
func (s *Session) finalize(rule Rule, now time.Time) {
	text := s.utterance.Text
	words := s.utterance.WordCount()
	duration := now.Sub(s.utterance.StartedAt)
	s.utterance.Reset()
	s.states.Transition(StateIdle)

	if text == "" {
		return
	}

	s.logger.Info("Question finalized", "rule", rule.String(), "words", words, "text", text)
	s.observer.UtteranceFinalized(rule.String(), words, duration)
	s.dispatcher.OnUtteranceFinalized(text)
	s.emit(Event{Kind: EventQuestion, Text: text, Rule: rule})
	s.status(StatusGotIt)
}

// calibrate samples ambient noise; failures keep the previous threshold
func (s *Session) calibrate(ctx context.Context, window time.Duration, periodic bool) {
	if periodic {
		s.status(StatusCalibrating)
	}
	err := s.calibrator.Calibrate(ctx, s.source, &s.calib, window, s.now())
	s.observer.Calibrated(s.calib.EnergyThreshold, err != nil)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Calibration failed, keeping threshold", "threshold", s.calib.EnergyThreshold, "error", err)
		}
		return
	}
	s.emit(Event{Kind: EventCalibrated, Threshold: s.calib.EnergyThreshold})
}

// shutdown flushes buffered speech, releases the source and closes events
func (s *Session) shutdown() {
	if !s.utterance.Empty() {
		s.finalize(RuleStop, s.now())
	}
	if err := s.source.Close(); err != nil {
		s.logger.Warn("Closing audio source failed", "error", err)
	}
	s.status(StatusStopped)
	close(s.events)
}

func (s *Session) status(text string) {
	s.emit(Event{Kind: EventStatus, Status: text})
}

// emit delivers an event without blocking; a slow consumer loses events
func (s *Session) emit(ev Event) {
	ev.State = s.states.Current()
	ev.At = s.now()
	select {
	case s.events <- ev:
	default:
		s.observer.EventDropped()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type nopObserver struct{}

func (nopObserver) SegmentAccepted(int) {}
func (nopObserver) UtteranceFinalized(string, int, time.Duration) {}
func (nopObserver) TranscriptionFailed(string, bool) {}
func (nopObserver) Calibrated(float64, bool) {}
func (nopObserver) EventDropped() {}
