package listener

import "testing"

func TestClassifyShortQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"What is Go?", true},
		{"tell me about yourself", true},
		{"I have been working on distributed systems for about ten years now", false},
		{"Explain the difference between a process and a thread in an operating system", true},
		{"So my question for you is how you would scale this service?", true},
		{"Isolation levels are something we care a lot about in this team", false},
		{"Could you walk me through the design of the last system you built", true},
		{"one two three four five six seven eight", true},
		{"one two three four five six seven eight nine", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ClassifyShortQuestion(tt.text); got != tt.want {
				t.Errorf("ClassifyShortQuestion(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEndsSentence(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"That is all.", true},
		{"Why?", true},
		{"Great!", true},
		{"Here is the scenario:", true},
		{"ok thank you", true},
		{"That's it for the intro", true},
		{"and that's all from me", true},
		{"so the next thing", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := EndsSentence(tt.text); got != tt.want {
				t.Errorf("EndsSentence(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
