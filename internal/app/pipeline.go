// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     app
// Description: Question handling pipeline: log, answer, notify
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

// Package app ties the listener, the dispatcher and the answer service
// together for the CLI.
package app

import (
	"context"
	"time"

	"github.com/msto63/souffleur/internal/dispatch"
	"github.com/msto63/souffleur/internal/store"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// QuestionLog persists questions and their answers
type QuestionLog interface {
	SaveQuestion(ctx context.Context, e *store.Entry) error
	SaveAnswer(ctx context.Context, id, answer, backend string, at time.Time) error
	SaveAnswerError(ctx context.Context, id, backend string, answerErr error, at time.Time) error
}

// Answerer generates a suggested answer for a question
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
	Backend() string
}

// AnswerObserver records answer measurements (metrics)
type AnswerObserver interface {
	AnswerGenerated(backend string, duration time.Duration, err error)
}

// AnswerResult is the outcome of answering one question
type AnswerResult struct {
	Question dispatch.Question
	Text     string
	Backend  string
	Err      error
	Duration time.Duration
}

// Notifier is told about questions and answers (UI)
type Notifier interface {
	QuestionReceived(q dispatch.Question)
	AnswerReady(res AnswerResult)
}

// PipelineConfig configures a Pipeline. Every field is optional; without
// an Answerer questions are only logged and shown.
type PipelineConfig struct {
	Log      QuestionLog
	Answers  Answerer
	Notifier Notifier
	Observer AnswerObserver
	Logger   *logging.Logger
	Now      func() time.Time
}

// Pipeline is the dispatch handler used by the CLI
type Pipeline struct {
	log      QuestionLog
	answers  Answerer
	notifier Notifier
	observer AnswerObserver
	logger   *logging.Logger
	now      func() time.Time
}

// NewPipeline creates a pipeline
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		log:      cfg.Log,
		answers:  cfg.Answers,
		notifier: cfg.Notifier,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// HandleQuestion implements dispatch.Handler. A failing question log never
// keeps the question from being shown or answered.
func (p *Pipeline) HandleQuestion(ctx context.Context, q dispatch.Question) error {
	if p.log != nil {
		entry := &store.Entry{ID: q.ID, SessionID: q.SessionID, Question: q.Text, AskedAt: q.FinalizedAt}
		if err := p.log.SaveQuestion(ctx, entry); err != nil {
			p.logger.Warn("Failed to log question", "id", q.ID, "error", err)
		}
	}
	if p.notifier != nil {
		p.notifier.QuestionReceived(q)
	}
	if p.answers == nil {
		return nil
	}

	backend := p.answers.Backend()
	start := p.now()
	text, err := p.answers.Answer(ctx, q.Text)
	duration := p.now().Sub(start)

	if p.observer != nil {
		p.observer.AnswerGenerated(backend, duration, err)
	}

	if p.log != nil {
		var logErr error
		if err != nil {
			logErr = p.log.SaveAnswerError(ctx, q.ID, backend, err, p.now())
		} else {
			logErr = p.log.SaveAnswer(ctx, q.ID, text, backend, p.now())
		}
		if logErr != nil {
			p.logger.Warn("Failed to log answer", "id", q.ID, "error", logErr)
		}
	}

	if p.notifier != nil {
		p.notifier.AnswerReady(AnswerResult{
			Question: q,
			Text:     text,
			Backend:  backend,
			Err:      err,
			Duration: duration,
		})
	}
	return err
}
