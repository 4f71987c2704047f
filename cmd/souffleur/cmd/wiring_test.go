package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/internal/store"
	"github.com/msto63/souffleur/pkg/core/config"
	"github.com/msto63/souffleur/pkg/core/logging"
)

func dur(d time.Duration) config.Duration { return config.Duration{Duration: d} }

func TestBuildProfile(t *testing.T) {
	tests := []struct {
		name    string
		sc      config.SensitivityConfig
		check   func(t *testing.T, got time.Duration, threshold float64)
		wantErr bool
	}{
		{
			name: "default profile",
			sc:   config.SensitivityConfig{Profile: "default"},
			check: func(t *testing.T, final time.Duration, threshold float64) {
				if final != 3300*time.Millisecond {
					t.Errorf("FinalSilence = %v, want 3.3s", final)
				}
				if threshold != 300 {
					t.Errorf("InitialEnergyThreshold = %v, want 300", threshold)
				}
			},
		},
		{
			name: "overrides",
			sc:   config.SensitivityConfig{Profile: "default", FinalSilence: dur(5 * time.Second), EnergyThreshold: 450},
			check: func(t *testing.T, final time.Duration, threshold float64) {
				if final != 5*time.Second {
					t.Errorf("FinalSilence = %v, want 5s", final)
				}
				if threshold != 450 {
					t.Errorf("InitialEnergyThreshold = %v, want 450", threshold)
				}
			},
		},
		{name: "unknown profile", sc: config.SensitivityConfig{Profile: "studio"}, wantErr: true},
		{name: "threshold below floor", sc: config.SensitivityConfig{Profile: "default", EnergyThreshold: 50}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildProfile(tt.sc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, p.FinalSilence, p.InitialEnergyThreshold)
			}
		})
	}
}

func TestRecorderConfig(t *testing.T) {
	ac := config.Default().Audio
	rc := recorderConfig(ac)
	if rc.SampleRate != 16000 || rc.FramesPerBuffer != 480 {
		t.Errorf("rate/frames = %d/%d, want 16000/480", rc.SampleRate, rc.FramesPerBuffer)
	}
	if rc.PauseThreshold != 1500*time.Millisecond {
		t.Errorf("PauseThreshold = %v, want 1.5s", rc.PauseThreshold)
	}
}

func TestBuildTranscriber(t *testing.T) {
	logger := logging.Nop()

	tests := []struct {
		name     string
		sc       config.STTConfig
		wantName string
		wantErr  bool
	}{
		{name: "openai with key", sc: config.STTConfig{Engine: "openai", APIKey: "k"}, wantName: "openai"},
		{name: "openai without key", sc: config.STTConfig{Engine: "openai"}, wantErr: true},
		{name: "whisper without model", sc: config.STTConfig{Engine: "whisper", WhisperPath: "/bin/true"}, wantErr: true},
		{name: "unknown engine", sc: config.STTConfig{Engine: "vosk"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, cleanup, err := buildTranscriber(tt.sc, logger)
			defer cleanup()
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildTranscriber() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tr.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", tr.Name(), tt.wantName)
			}
		})
	}
}

func TestBuildTranscriber_FallbackWithoutWhisper(t *testing.T) {
	sc := config.STTConfig{
		Engine:       "openai",
		APIKey:       "k",
		Fallback:     true,
		WhisperPath:  "/bin/true",
		WhisperModel: filepath.Join(t.TempDir(), "missing.bin"),
	}
	tr, cleanup, err := buildTranscriber(sc, logging.Nop())
	defer cleanup()
	if err != nil {
		t.Fatalf("buildTranscriber() error = %v", err)
	}
	if tr.Name() != "openai" {
		t.Errorf("Name() = %q, want openai when whisper is unavailable", tr.Name())
	}
}

func TestBuildTranscriber_FallbackChain(t *testing.T) {
	model := filepath.Join(t.TempDir(), "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	sc := config.STTConfig{
		Engine:       "openai",
		APIKey:       "k",
		Fallback:     true,
		WhisperPath:  "/bin/true",
		WhisperModel: model,
	}
	tr, cleanup, err := buildTranscriber(sc, logging.Nop())
	defer cleanup()
	if err != nil {
		t.Fatalf("buildTranscriber() error = %v", err)
	}
	if !strings.Contains(tr.Name(), "openai") || !strings.Contains(tr.Name(), "whisper") {
		t.Errorf("Name() = %q, want a chain of openai and whisper", tr.Name())
	}
}

func TestBuildBackend(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer ollama.Close()

	tests := []struct {
		name     string
		ac       config.AnswerConfig
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "none", ac: config.AnswerConfig{Backend: "none"}, wantNil: true},
		{name: "ollama", ac: config.AnswerConfig{Backend: "ollama", OllamaURL: ollama.URL}, wantName: "ollama/llama3.2"},
		{name: "ollama unreachable still builds", ac: config.AnswerConfig{Backend: "ollama", OllamaURL: "http://127.0.0.1:1", Model: "qwen2.5"}, wantName: "ollama/qwen2.5"},
		{name: "openai", ac: config.AnswerConfig{Backend: "openai", APIKey: "k"}, wantName: "openai/gpt-4o-mini"},
		{name: "openai without key", ac: config.AnswerConfig{Backend: "openai"}, wantErr: true},
		{name: "unknown", ac: config.AnswerConfig{Backend: "claude-desktop"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := buildBackend(context.Background(), tt.ac, logging.Nop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if b != nil {
					t.Errorf("buildBackend() = %v, want nil", b)
				}
				return
			}
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}

func TestBuildAnswerService(t *testing.T) {
	s, err := buildAnswerService(nil, config.AnswerConfig{}, logging.Nop())
	if err != nil || s != nil {
		t.Errorf("buildAnswerService(nil) = %v, %v, want nil, nil", s, err)
	}

	b, err := buildBackend(context.Background(), config.AnswerConfig{Backend: "openai", APIKey: "k"}, logging.Nop())
	if err != nil {
		t.Fatalf("buildBackend() error = %v", err)
	}

	if _, err := buildAnswerService(b, config.AnswerConfig{ResumeFile: filepath.Join(t.TempDir(), "cv.md")}, logging.Nop()); err == nil {
		t.Error("buildAnswerService() with a missing resume should fail")
	}

	resume := filepath.Join(t.TempDir(), "cv.md")
	if err := os.WriteFile(resume, []byte("# Jane Doe\nGo developer"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = buildAnswerService(b, config.AnswerConfig{ResumeFile: resume, History: 4}, logging.Nop())
	if err != nil {
		t.Fatalf("buildAnswerService() error = %v", err)
	}
	if s.Backend() != "openai/gpt-4o-mini" {
		t.Errorf("Backend() = %q, want openai/gpt-4o-mini", s.Backend())
	}
}

func TestApplyListenFlags(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().StringVar(&listenDevice, "device", "", "")
	c.Flags().StringVar(&listenBackend, "answer-backend", "ollama", "")
	if err := c.Flags().Set("device", "USB Microphone"); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Answer.Backend = "openai"
	applyListenFlags(c, cfg)

	if cfg.Audio.InputDevice != "USB Microphone" {
		t.Errorf("InputDevice = %q, want USB Microphone", cfg.Audio.InputDevice)
	}
	if cfg.Answer.Backend != "openai" {
		t.Errorf("Answer.Backend = %q, unset flag must not override config", cfg.Answer.Backend)
	}
	if cfg.General.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.General.Language)
	}
}

func TestFormatEntry(t *testing.T) {
	asked := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		entry store.Entry
		want  string
	}{
		{
			name:  "answered",
			entry: store.Entry{Question: "Why us?", AskedAt: asked, Answer: "Great team.", Backend: "ollama/llama3.2", AnsweredAt: asked},
			want:  "A (ollama/llama3.2): Great team.",
		},
		{
			name:  "failed",
			entry: store.Entry{Question: "Why us?", AskedAt: asked, Backend: "openai/gpt-4o-mini", AnswerErr: errors.New("timeout").Error(), AnsweredAt: asked},
			want:  "failed: timeout",
		},
		{
			name:  "pending",
			entry: store.Entry{Question: "Why us?", AskedAt: asked},
			want:  "A: -",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatEntry(&tt.entry)
			if !strings.Contains(got, "Q: Why us?") {
				t.Errorf("formatEntry() = %q, missing question", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatEntry() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
