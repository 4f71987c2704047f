// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     stt
// Description: Transcription via the OpenAI audio API or a compatible server
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// OpenAIConfig configures the remote transcriber
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Model   string
	Prompt  string

	// HTTPClient overrides the transport (tests)
	HTTPClient *http.Client
}

// OpenAITranscriber sends clips to /v1/audio/transcriptions. It works with
// OpenAI as well as LocalAI or faster-whisper servers exposing that route.
type OpenAITranscriber struct {
	client openai.Client
	model  string
	prompt string
	logger *logging.Logger
}

// NewOpenAITranscriber creates a remote transcriber
func NewOpenAITranscriber(cfg OpenAIConfig, logger *logging.Logger) *OpenAITranscriber {
	if logger == nil {
		logger = logging.Nop()
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAITranscriber{
		client: openai.NewClient(opts...),
		model:  model,
		prompt: cfg.Prompt,
		logger: logger,
	}
}

// Name returns the engine name
func (t *OpenAITranscriber) Name() string {
	return "openai"
}

// Transcribe uploads the clip as WAV and returns the recognized text
func (t *OpenAITranscriber) Transcribe(ctx context.Context, clip audio.Clip, language string) (Result, error) {
	wav, err := audio.EncodeWAV(clip)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode clip: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "clip.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}
	if t.prompt != "" {
		params.Prompt = openai.String(t.prompt)
	}
	// Only whisper models report per-segment log probabilities
	if strings.HasPrefix(t.model, "whisper") {
		params.ResponseFormat = openai.AudioResponseFormatVerboseJSON
	}

	transcription, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, fmt.Errorf("%w: %s returned %d", ErrService, t.model, apiErr.StatusCode)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrService, err)
	}

	confidence := segmentConfidence(transcription.RawJSON())
	t.logger.Debug("Transcribed clip", "model", t.model, "seconds", clip.Duration().Seconds(),
		"confidence", confidence)

	return finalize(Result{
		Text:       transcription.Text,
		Confidence: confidence,
		Engine:     t.Name(),
	})
}

type verboseSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	AvgLogprob float64 `json:"avg_logprob"`
}

// segmentConfidence turns the avg_logprob of verbose_json segments into a
// 0-1 score, weighted by segment length. It returns 0 when the response
// carries no segments.
func segmentConfidence(raw string) float64 {
	if raw == "" {
		return 0
	}
	var body struct {
		Segments []verboseSegment `json:"segments"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil || len(body.Segments) == 0 {
		return 0
	}

	var sum, weight float64
	for _, seg := range body.Segments {
		w := seg.End - seg.Start
		if w <= 0 {
			w = 1
		}
		sum += seg.AvgLogprob * w
		weight += w
	}
	return math.Min(1, math.Exp(sum/weight))
}
