package answer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeBackend struct {
	reply    string
	err      error
	received [][]Message
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	f.received = append(f.received, messages)
	return f.reply, f.err
}

func TestService_Answer(t *testing.T) {
	backend := &fakeBackend{reply: "  I would start by profiling.  "}
	svc := NewService(backend, ServiceConfig{}, nil)

	got, err := svc.Answer(context.Background(), " How do you debug latency? ")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "I would start by profiling." {
		t.Errorf("Answer() = %q, want trimmed reply", got)
	}

	msgs := backend.received[0]
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != generalPrompt {
		t.Errorf("system message = %+v, want general prompt", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "How do you debug latency?" {
		t.Errorf("user message = %+v", msgs[1])
	}
}

func TestService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		backend  *fakeBackend
		question string
		wantErr  error
	}{
		{"blank question", &fakeBackend{reply: "x"}, "  ", ErrEmptyQuestion},
		{"blank reply", &fakeBackend{reply: " \n "}, "Why Go?", ErrEmptyAnswer},
		{"backend error", &fakeBackend{err: context.DeadlineExceeded}, "Why Go?", context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.backend, ServiceConfig{}, nil)
			_, err := svc.Answer(context.Background(), tt.question)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Answer() error = %v, want %v", err, tt.wantErr)
			}
			if len(svc.History()) != 0 {
				t.Error("failed exchange must not be remembered")
			}
		})
	}
}

func TestService_RepeatedQuestion(t *testing.T) {
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	backend := &fakeBackend{reply: "Five years of Go."}
	svc := NewService(backend, ServiceConfig{RepeatWindow: 5 * time.Minute, Now: clock}, nil)

	ctx := context.Background()
	if _, err := svc.Answer(ctx, "How much Go experience do you have?"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	got, err := svc.Answer(ctx, "how much go experience do you have")
	if err != nil {
		t.Fatalf("Answer() repeat error = %v", err)
	}
	if got != "Five years of Go." {
		t.Errorf("repeat Answer() = %q, want cached reply", got)
	}
	if len(backend.received) != 1 {
		t.Errorf("backend calls = %d, want 1", len(backend.received))
	}

	now = now.Add(6 * time.Minute)
	if _, err := svc.Answer(ctx, "How much Go experience do you have?"); err != nil {
		t.Fatalf("Answer() after window error = %v", err)
	}
	if len(backend.received) != 2 {
		t.Errorf("backend calls after window = %d, want 2", len(backend.received))
	}

	svc.Reset()
	if _, err := svc.Answer(ctx, "How much Go experience do you have?"); err != nil {
		t.Fatalf("Answer() after Reset error = %v", err)
	}
	if len(backend.received) != 3 {
		t.Errorf("backend calls after Reset = %d, want 3", len(backend.received))
	}
}

func TestService_RepeatDisabled(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	svc := NewService(backend, ServiceConfig{}, nil)
	for i := 0; i < 2; i++ {
		if _, err := svc.Answer(context.Background(), "Why Go?"); err != nil {
			t.Fatalf("Answer() error = %v", err)
		}
	}
	if len(backend.received) != 2 {
		t.Errorf("backend calls = %d, want 2 without repeat window", len(backend.received))
	}
}

func TestRepeatKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Why Go?", "why go"},
		{"  why   GO ", "why go"},
		{"What's your name?", "what s your name"},
		{"Über-Erfahrung?", "über erfahrung"},
	}
	for _, tt := range tests {
		if got := repeatKey(tt.in); got != tt.want {
			t.Errorf("repeatKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestService_HistoryIsBounded(t *testing.T) {
	backend := &fakeBackend{reply: "answer"}
	svc := NewService(backend, ServiceConfig{History: 4}, nil)

	for _, q := range []string{"q1", "q2", "q3"} {
		if _, err := svc.Answer(context.Background(), q); err != nil {
			t.Fatalf("Answer(%q) error = %v", q, err)
		}
	}

	history := svc.History()
	if len(history) != 4 {
		t.Fatalf("history = %d messages, want 4", len(history))
	}
	if history[0].Content != "q2" || history[0].Role != RoleUser {
		t.Errorf("oldest kept = %+v, want user q2", history[0])
	}
	if history[3].Role != RoleAssistant {
		t.Errorf("newest = %+v, want assistant", history[3])
	}

	// The third call carried the two previous exchanges
	third := backend.received[2]
	if len(third) != 1+4+1 {
		t.Errorf("third request had %d messages, want 6", len(third))
	}

	svc.Reset()
	if len(svc.History()) != 0 {
		t.Error("Reset() kept history")
	}
}

func TestService_SystemPrompt(t *testing.T) {
	svc := NewService(&fakeBackend{}, ServiceConfig{Resume: "Go developer at Acme, 6 years"}, nil)

	tests := []struct {
		question string
		prefix   string
	}{
		{"Tell me about yourself", introPrompt},
		{"Why did you leave Acme?", resumePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			sys := svc.Messages(tt.question)[0].Content
			if !strings.HasPrefix(sys, tt.prefix) {
				t.Errorf("system prompt = %q, want prefix %q", sys, tt.prefix)
			}
			if !strings.HasSuffix(sys, "Go developer at Acme, 6 years") {
				t.Error("system prompt does not carry the resume")
			}
		})
	}
}

func TestIsIntroQuestion(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"Tell me about yourself", true},
		{"Could you introduce yourself?", true},
		{"Give us a short introduction of your career", true},
		{"Walk me through your background", true},
		{"What is a goroutine?", false},
	}

	for _, tt := range tests {
		if got := IsIntroQuestion(tt.question); got != tt.want {
			t.Errorf("IsIntroQuestion(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestLoadResume(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	text, err := LoadResume(write("cv.txt", "\n  Jane Doe\nBackend engineer \n"))
	if err != nil {
		t.Fatalf("LoadResume() error = %v", err)
	}
	if text != "Jane Doe\nBackend engineer" {
		t.Errorf("LoadResume() = %q", text)
	}

	long, err := LoadResume(write("long.md", strings.Repeat("ä", maxResumeBytes)))
	if err != nil {
		t.Fatalf("LoadResume(long) error = %v", err)
	}
	if len(long) > maxResumeBytes || !strings.HasPrefix(long, "ää") {
		t.Errorf("long resume not truncated on a rune boundary: %d bytes", len(long))
	}

	failures := []string{
		write("empty.txt", "   "),
		write("cv.pdf", "%PDF-1.4"),
		write("binary.txt", string([]byte{0xff, 0xfe, 0x00})),
		filepath.Join(dir, "missing.txt"),
	}
	for _, path := range failures {
		if _, err := LoadResume(path); err == nil {
			t.Errorf("LoadResume(%s) expected error", filepath.Base(path))
		}
	}
}
