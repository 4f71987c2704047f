package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseWhisperOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"plain", "hello there\n", "hello there"},
		{
			"timestamps",
			"[00:00:00.000 --> 00:00:02.000]  Tell me about\n[00:00:02.000 --> 00:00:03.500]  yourself.\n",
			"Tell me about yourself.",
		},
		{"empty", "\n\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseWhisperOutput(tt.out); got != tt.want {
				t.Errorf("parseWhisperOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeWhisper writes a shell script standing in for whisper-cli
func fakeWhisper(t *testing.T, body string) (binary, model string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	dir := t.TempDir()
	binary = filepath.Join(dir, "whisper-cli")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	model = filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return binary, model
}

func TestWhisperCLI_Transcribe(t *testing.T) {
	binary, model := fakeWhisper(t, `echo "[00:00:00.000 --> 00:00:01.000]  How would you design a cache?"`)

	w, err := NewWhisperCLI(WhisperConfig{BinaryPath: binary, ModelPath: model}, nil)
	if err != nil {
		t.Fatalf("NewWhisperCLI() error = %v", err)
	}
	defer w.Close()

	res, err := w.Transcribe(context.Background(), testClip(), "en")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "How would you design a cache?" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Engine != "whisper" {
		t.Errorf("Engine = %q, want whisper", res.Engine)
	}
}

func TestWhisperCLI_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{"blank audio", `echo "[BLANK_AUDIO]"`, ErrUnrecognized},
		{"crash", `echo "model load failed" >&2; exit 1`, ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binary, model := fakeWhisper(t, tt.script)
			w, err := NewWhisperCLI(WhisperConfig{BinaryPath: binary, ModelPath: model}, nil)
			if err != nil {
				t.Fatalf("NewWhisperCLI() error = %v", err)
			}
			defer w.Close()

			if _, err := w.Transcribe(context.Background(), testClip(), "en"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Transcribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewWhisperCLI_MissingModel(t *testing.T) {
	binary, _ := fakeWhisper(t, "true")
	if _, err := NewWhisperCLI(WhisperConfig{BinaryPath: binary, ModelPath: "/nonexistent/model.bin"}, nil); err == nil {
		t.Error("NewWhisperCLI() expected error for missing model")
	}
	if _, err := NewWhisperCLI(WhisperConfig{BinaryPath: binary}, nil); err == nil {
		t.Error("NewWhisperCLI() expected error for empty model path")
	}
}
