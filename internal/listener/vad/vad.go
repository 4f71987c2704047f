// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection used to confirm energy-gated speech
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package vad

// Detector is the interface for voice activity detection
type Detector interface {
	// Process processes audio samples and returns whether speech is detected
	Process(samples []float32) (bool, error)

	// Close releases resources
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000 or 48000)
	SampleRate int

	// Mode/Aggressiveness (0-3, higher = more aggressive filtering)
	Mode int

	// MinSpeechFrames is how many 10ms sub-frames must be voiced for a
	// frame to count as speech
	MinSpeechFrames int
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		Mode:            2,
		MinSpeechFrames: 1,
	}
}
