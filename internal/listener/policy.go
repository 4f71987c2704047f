// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     listener
// Description: Finalization policy deciding when a question is complete
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package listener

import "time"

// Rule names the condition that ended an utterance
type Rule int

const (
	RuleNone Rule = iota
	RuleMaxDuration
	RuleHardSilence
	RuleLongUtterance
	RuleSentenceEnd
	RuleShortQuestion
	RuleStop
)

// String returns the string representation of the rule
func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleMaxDuration:
		return "max-duration"
	case RuleHardSilence:
		return "hard-silence"
	case RuleLongUtterance:
		return "long-utterance"
	case RuleSentenceEnd:
		return "sentence-end"
	case RuleShortQuestion:
		return "short-question"
	case RuleStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Action is what the driving loop should do after an evaluation
type Action int

const (
	// ActionNone: keep accumulating
	ActionNone Action = iota

	// ActionStartConfirm: a candidate rule holds for the first time; open
	// the confirm window
	ActionStartConfirm

	// ActionWait: the confirm window is still running
	ActionWait

	// ActionFinalize: emit the utterance
	ActionFinalize
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionStartConfirm:
		return "start-confirm"
	case ActionWait:
		return "wait"
	case ActionFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one policy evaluation
type Decision struct {
	Action Action
	Rule   Rule
}

// FinalizationPolicy decides, without look-ahead, whether the speaker has
// finished. It only reads the utterance; the caller applies the decision.
type FinalizationPolicy struct {
	profile SensitivityProfile
}

// NewFinalizationPolicy creates a policy for the profile
func NewFinalizationPolicy(profile SensitivityProfile) FinalizationPolicy {
	return FinalizationPolicy{profile: profile}
}

// Candidate returns the first rule whose condition holds at now
func (p FinalizationPolicy) Candidate(u *Utterance, now time.Time) Rule {
	if u.Empty() {
		return RuleNone
	}

	silence := now.Sub(u.LastSpeechAt)
	duration := now.Sub(u.StartedAt)
	words := u.WordCount()

	switch {
	case duration >= p.profile.MaxDuration:
		return RuleMaxDuration
	case silence >= p.profile.FinalSilence:
		return RuleHardSilence
	case words >= p.profile.LongUtteranceWords && silence >= p.profile.ShortSilence:
		return RuleLongUtterance
	case EndsSentence(u.Text) && silence >= p.profile.SentenceEndSilence:
		return RuleSentenceEnd
	case p.shortQuestion(u.Text) && silence >= p.profile.QuestionSilence:
		return RuleShortQuestion
	default:
		return RuleNone
	}
}

// Evaluate runs one tick of the confirm-window state machine
func (p FinalizationPolicy) Evaluate(u *Utterance, now time.Time) Decision {
	rule := p.Candidate(u, now)
	if rule == RuleNone {
		return Decision{Action: ActionNone}
	}

	// A speaker who never pauses would keep re-opening the window
	if rule == RuleMaxDuration {
		return Decision{Action: ActionFinalize, Rule: rule}
	}

	if !u.Pending() {
		return Decision{Action: ActionStartConfirm, Rule: rule}
	}

	if now.Sub(u.PendingFinalizeSince) < p.Hold(u.Text) {
		return Decision{Action: ActionWait, Rule: rule}
	}
	return Decision{Action: ActionFinalize, Rule: rule}
}

// Hold returns the confirm window for the text
func (p FinalizationPolicy) Hold(text string) time.Duration {
	if p.shortQuestion(text) {
		return p.profile.ShortConfirmHold
	}
	return p.profile.ConfirmHold
}

func (p FinalizationPolicy) shortQuestion(text string) bool {
	limit := p.profile.ShortQuestionWords
	if limit <= 0 {
		limit = shortQuestionWords
	}
	return isShortQuestion(text, limit)
}
