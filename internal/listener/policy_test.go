package listener

import (
	"testing"
	"time"
)

var policyT0 = time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC)

// utter builds an utterance whose times are offsets from policyT0. A
// negative pending offset means no confirm window.
func utter(text string, started, lastSpeech, pending time.Duration) *Utterance {
	u := &Utterance{}
	if text == "" {
		return u
	}
	u.Text = text
	u.StartedAt = policyT0.Add(started)
	u.LastSpeechAt = policyT0.Add(lastSpeech)
	if pending >= 0 {
		u.PendingFinalizeSince = policyT0.Add(pending)
	}
	return u
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func TestFinalizationPolicy_Evaluate(t *testing.T) {
	const (
		shortQ    = "tell me about yourself"
		question  = "What is Go?"
		statement = "I worked on the payments team for three years"
		long      = "I worked on the payments team for three years and then left"
	)

	tests := []struct {
		name string
		u    *Utterance
		now  time.Duration
		want Decision
	}{
		{"empty", utter("", 0, 0, -1), ms(5000), Decision{Action: ActionNone}},
		{"short question too early", utter(shortQ, 0, 0, -1), ms(500), Decision{Action: ActionNone}},
		{"short question opens window", utter(shortQ, 0, 0, -1), ms(600), Decision{ActionStartConfirm, RuleShortQuestion}},
		{"short question holds", utter(shortQ, 0, 0, ms(600)), ms(700), Decision{ActionWait, RuleShortQuestion}},
		{"short question finalizes", utter(shortQ, 0, 0, ms(600)), ms(850), Decision{ActionFinalize, RuleShortQuestion}},
		{"sentence end wins over short question", utter(question, 0, 0, -1), ms(800), Decision{ActionStartConfirm, RuleSentenceEnd}},
		{"statement keeps accumulating", utter(statement, 0, 0, -1), ms(3000), Decision{Action: ActionNone}},
		{"hard silence opens window", utter(statement, 0, 0, -1), ms(3300), Decision{ActionStartConfirm, RuleHardSilence}},
		{"hard silence uses long hold", utter(statement, 0, 0, ms(3300)), ms(3900), Decision{ActionWait, RuleHardSilence}},
		{"hard silence finalizes", utter(statement, 0, 0, ms(3300)), ms(4000), Decision{ActionFinalize, RuleHardSilence}},
		{"long utterance below silence", utter(long, 0, 0, -1), ms(1400), Decision{Action: ActionNone}},
		{"long utterance opens window", utter(long, 0, 0, -1), ms(1500), Decision{ActionStartConfirm, RuleLongUtterance}},
		{"max duration skips window", utter(statement, 0, ms(75000), -1), ms(75000), Decision{ActionFinalize, RuleMaxDuration}},
		{"pending without candidate", utter(statement, 0, 0, ms(100)), ms(200), Decision{Action: ActionNone}},
	}

	policy := NewFinalizationPolicy(DefaultProfile())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Evaluate(tt.u, policyT0.Add(tt.now))
			if got != tt.want {
				t.Errorf("Evaluate() = {%v %v}, want {%v %v}", got.Action, got.Rule, tt.want.Action, tt.want.Rule)
			}
		})
	}
}

func TestFinalizationPolicy_EvaluateDoesNotMutate(t *testing.T) {
	policy := NewFinalizationPolicy(DefaultProfile())
	u := utter("tell me about yourself", 0, 0, -1)
	before := *u

	policy.Evaluate(u, policyT0.Add(ms(600)))

	if *u != before {
		t.Errorf("Evaluate() mutated utterance: %+v", *u)
	}
}

func TestFinalizationPolicy_Hold(t *testing.T) {
	policy := NewFinalizationPolicy(DefaultProfile())

	if got := policy.Hold("What is Go?"); got != ms(220) {
		t.Errorf("Hold(short) = %v, want 220ms", got)
	}
	if got := policy.Hold("I worked on the payments team for three years"); got != ms(700) {
		t.Errorf("Hold(statement) = %v, want 700ms", got)
	}
}

func TestRule_String(t *testing.T) {
	tests := []struct {
		rule Rule
		want string
	}{
		{RuleNone, "none"},
		{RuleMaxDuration, "max-duration"},
		{RuleHardSilence, "hard-silence"},
		{RuleLongUtterance, "long-utterance"},
		{RuleSentenceEnd, "sentence-end"},
		{RuleShortQuestion, "short-question"},
		{RuleStop, "stop"},
		{Rule(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.rule.String(); got != tt.want {
			t.Errorf("Rule(%d).String() = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionNone, "none"},
		{ActionStartConfirm, "start-confirm"},
		{ActionWait, "wait"},
		{ActionFinalize, "finalize"},
		{Action(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}
