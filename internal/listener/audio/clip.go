// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     audio
// Description: Clip and ambient sample types produced by the recorder
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"errors"
	"time"
)

var (
	// ErrNoSpeech is returned when no speech started within the start timeout.
	// It is an expected outcome, not a failure.
	ErrNoSpeech = errors.New("no speech before start timeout")

	// ErrNotRunning is returned when reading from a stopped capture
	ErrNotRunning = errors.New("audio capture not running")
)

// ClipRequest parameterises a single NextClip call
type ClipRequest struct {
	// StartTimeout bounds the wait for speech to begin
	StartTimeout time.Duration

	// EnergyThreshold is the RMS level (int16 scale) separating speech from silence
	EnergyThreshold float64

	// MaxDuration cuts a phrase that never pauses; zero means no limit
	MaxDuration time.Duration
}

// Clip is one contiguous stretch of captured speech
type Clip struct {
	Samples    []float32
	SampleRate int
	StartedAt  time.Time
	EndedAt    time.Time

	// Truncated is set when the phrase was cut at MaxDuration, which
	// usually means the threshold sits below the room noise
	Truncated bool
}

// Duration returns the audio length of the clip
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Empty reports whether the clip holds no audio
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// NoiseSample holds per-frame energies measured while sampling the room
type NoiseSample struct {
	Energies      []float64
	FrameDuration time.Duration
}
