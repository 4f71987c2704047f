// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     answer
// Description: Suggested answers for captured interview questions
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package answer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/msto63/souffleur/pkg/core/cache"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// ErrEmptyQuestion is returned for blank questions
var ErrEmptyQuestion = errors.New("empty question")

// ErrEmptyAnswer is returned when the backend produced no text
var ErrEmptyAnswer = errors.New("backend returned an empty answer")

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn
type Message struct {
	Role    Role
	Content string
}

// Backend completes a chat conversation
type Backend interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// ServiceConfig holds answer service configuration
type ServiceConfig struct {
	// Resume is plain resume text; empty selects general interview mode
	Resume string

	// History is the number of past messages sent along (default: 6)
	History int

	// RepeatWindow reuses the answer when the same question comes again
	// within this time; zero disables it
	RepeatWindow time.Duration

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Service builds prompts and keeps the conversation history
type Service struct {
	backend Backend
	resume  string
	limit   int
	logger  *logging.Logger
	repeats *cache.Cache[string, string]

	mu      sync.Mutex
	history []Message
}

// NewService creates an answer service over a backend
func NewService(backend Backend, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.History <= 0 {
		cfg.History = 6
	}
	s := &Service{
		backend: backend,
		resume:  strings.TrimSpace(cfg.Resume),
		limit:   cfg.History,
		logger:  logger,
	}
	if cfg.RepeatWindow > 0 {
		s.repeats = cache.New[string, string](cache.Config{
			MaxItems: 64,
			TTL:      cfg.RepeatWindow,
			Now:      cfg.Now,
		})
	}
	return s
}

// Backend returns the name of the backend in use
func (s *Service) Backend() string {
	return s.backend.Name()
}

// Answer asks the backend for a suggested answer. Successful exchanges are
// remembered and sent with later questions; a question repeated within the
// repeat window gets the earlier answer without a backend call.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	key := repeatKey(question)
	if s.repeats != nil {
		if reply, ok := s.repeats.Get(key); ok {
			s.logger.Debug("Repeated question, reusing answer", "question", question)
			return reply, nil
		}
	}

	messages := s.Messages(question)

	reply, err := s.backend.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.backend.Name(), err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyAnswer
	}

	s.remember(question, reply)
	if s.repeats != nil {
		s.repeats.Set(key, reply)
	}
	s.logger.Debug("Answer generated", "backend", s.backend.Name(), "chars", len(reply))
	return reply, nil
}

// Messages builds the conversation sent for question
func (s *Service) Messages(question string) []Message {
	s.mu.Lock()
	history := make([]Message, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: s.systemPrompt(question)})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: question})
	return messages
}

// History returns a copy of the remembered messages
func (s *Service) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset forgets the conversation and the remembered answers
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	if s.repeats != nil {
		s.repeats.Clear()
	}
}

// repeatKey folds case, punctuation and spacing so that transcription
// noise does not defeat repeat detection
func repeatKey(question string) string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func (s *Service) remember(question, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: reply},
	)
	if over := len(s.history) - s.limit; over > 0 {
		s.history = append([]Message(nil), s.history[over:]...)
	}
}

const (
	generalPrompt = "You are a helpful interview assistant. Answer the interviewer's question " +
		"the way a well-prepared candidate would: concise, practical and specific. " +
		"Do not reference a resume or personal details unless they appear in the conversation."

	resumePrompt = "You are an interview assistant. Answer in the first person as the candidate, " +
		"using the facts in the resume below. If the resume does not cover the question, give a " +
		"concise, practical, specific answer from the candidate's point of view. Never produce a " +
		"template, a sample or instructions.\n\nResume:\n"

	introPrompt = "You are an interview assistant. Write a short first-person introduction using " +
		"only the facts in the resume below. Never produce a template, a sample or instructions." +
		"\n\nResume:\n"
)

func (s *Service) systemPrompt(question string) string {
	switch {
	case s.resume == "":
		return generalPrompt
	case IsIntroQuestion(question):
		return introPrompt + s.resume
	default:
		return resumePrompt + s.resume
	}
}

var introPatterns = []*regexp.Regexp{
	regexp.MustCompile(`yourself`),
	regexp.MustCompile(`self[- ]introduction`),
	regexp.MustCompile(`give .* introduction`),
	regexp.MustCompile(`walk me through your (background|resume|cv)`),
}

// IsIntroQuestion reports whether the question asks the candidate to
// introduce themselves
func IsIntroQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, p := range introPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}
