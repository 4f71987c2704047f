// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     stt
// Description: Speech-to-Text interface and shared result handling
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"errors"
	"strings"

	"github.com/msto63/souffleur/internal/listener/audio"
)

var (
	// ErrUnrecognized means the engine heard audio but produced no words
	ErrUnrecognized = errors.New("speech not recognized")

	// ErrService means the engine could not be reached or failed
	ErrService = errors.New("transcription service error")
)

// Transcriber is the interface for speech-to-text engines
type Transcriber interface {
	// Transcribe converts a clip to text in the given language
	Transcribe(ctx context.Context, clip audio.Clip, language string) (Result, error)

	// Name identifies the engine in logs and metrics
	Name() string
}

// Result holds the transcription result
type Result struct {
	// Text is the transcribed text
	Text string

	// Confidence is the score (0-1); 0 when the engine gives none
	Confidence float64

	// Alternatives are other hypotheses, when the engine returns them
	Alternatives []Alternative

	// Engine names the transcriber that produced the result
	Engine string
}

// Alternative is one recognition hypothesis
type Alternative struct {
	Text       string
	Confidence float64
}

// blankMarkers are placeholder tokens engines emit for non-speech
var blankMarkers = []string{"[BLANK_AUDIO]", "[SILENCE]", "(silence)", "[MUSIC]"}

// CleanText strips engine placeholder tokens and surrounding whitespace
func CleanText(text string) string {
	for _, m := range blankMarkers {
		text = strings.ReplaceAll(text, m, "")
	}
	return strings.Join(strings.Fields(text), " ")
}

// BestAlternative picks the most likely hypothesis. Confidence wins when
// given; otherwise longer text wins, scored as len/120.
func BestAlternative(alts []Alternative) (Alternative, bool) {
	var best Alternative
	bestScore := -1.0
	for _, alt := range alts {
		if strings.TrimSpace(alt.Text) == "" {
			continue
		}
		score := alt.Confidence
		if score <= 0 {
			score = float64(len(alt.Text)) / 120
		}
		if score > bestScore {
			best, bestScore = alt, score
		}
	}
	return best, bestScore >= 0
}

// finalize resolves alternatives and reports empty output as ErrUnrecognized
func finalize(res Result) (Result, error) {
	if strings.TrimSpace(res.Text) == "" && len(res.Alternatives) > 0 {
		if alt, ok := BestAlternative(res.Alternatives); ok {
			res.Text = alt.Text
			res.Confidence = alt.Confidence
		}
	}
	res.Text = CleanText(res.Text)
	if res.Text == "" {
		return res, ErrUnrecognized
	}
	return res, nil
}
