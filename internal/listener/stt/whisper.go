// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     stt
// Description: Local transcription using the whisper.cpp CLI
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// WhisperConfig configures the whisper.cpp CLI
type WhisperConfig struct {
	// BinaryPath overrides the binary lookup
	BinaryPath string

	// ModelPath is the ggml model file
	ModelPath string

	NumThreads int
}

// WhisperCLI implements speech-to-text using whisper.cpp CLI
type WhisperCLI struct {
	binaryPath string
	modelPath  string
	threads    int
	tempDir    string
	logger     *logging.Logger
}

// NewWhisperCLI creates a new Whisper CLI transcriber
func NewWhisperCLI(cfg WhisperConfig, logger *logging.Logger) (*WhisperCLI, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = findWhisperBinary()
	}
	if binaryPath == "" {
		return nil, fmt.Errorf("whisper binary not found")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	tempDir, err := os.MkdirTemp("", "souffleur-whisper-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	threads := cfg.NumThreads
	if threads <= 0 {
		threads = 4
	}

	return &WhisperCLI{
		binaryPath: binaryPath,
		modelPath:  cfg.ModelPath,
		threads:    threads,
		tempDir:    tempDir,
		logger:     logger,
	}, nil
}

// findWhisperBinary looks for whisper-cli first (Homebrew), then whisper
func findWhisperBinary() string {
	for _, name := range []string{"whisper-cli", "whisper-cpp", "whisper"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Name returns the engine name
func (w *WhisperCLI) Name() string {
	return "whisper"
}

// Transcribe writes the clip to a temporary WAV file and runs whisper on it
func (w *WhisperCLI) Transcribe(ctx context.Context, clip audio.Clip, language string) (Result, error) {
	data, err := audio.EncodeWAV(clip)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode clip: %w", err)
	}

	wavPath := filepath.Join(w.tempDir, fmt.Sprintf("clip_%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(wavPath, data, 0600); err != nil {
		return Result{}, fmt.Errorf("failed to write WAV file: %w", err)
	}
	defer os.Remove(wavPath)

	if language == "" {
		language = "auto"
	}

	args := []string{
		"-m", w.modelPath,
		"-l", language,
		"-t", fmt.Sprint(w.threads),
		"-np",
		"-f", wavPath,
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("%w: whisper failed: %w, stderr: %s", ErrService, err, strings.TrimSpace(stderr.String()))
	}

	return finalize(Result{
		Text:   parseWhisperOutput(stdout.String()),
		Engine: w.Name(),
	})
}

// parseWhisperOutput drops "[00:00:00.000 --> 00:00:05.000]" prefixes and
// joins the lines
func parseWhisperOutput(out string) string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

// Close removes the temporary directory
func (w *WhisperCLI) Close() error {
	if w.tempDir != "" {
		return os.RemoveAll(w.tempDir)
	}
	return nil
}
