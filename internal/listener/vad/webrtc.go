// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD implementation
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// validRates are the sample rates WebRTC VAD accepts
var validRates = []int{8000, 16000, 32000, 48000}

// WebRTCVAD implements voice activity detection using WebRTC's VAD
type WebRTCVAD struct {
	mu         sync.Mutex
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
	minFrames  int
}

// NewWebRTCVAD creates a new WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	if !ValidSampleRate(cfg.SampleRate) {
		return nil, fmt.Errorf("invalid sample rate %d, must be one of %v", cfg.SampleRate, validRates)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	mode := ClampMode(cfg.Mode)
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	minFrames := cfg.MinSpeechFrames
	if minFrames < 1 {
		minFrames = 1
	}

	return &WebRTCVAD{
		vad:        v,
		sampleRate: cfg.SampleRate,
		mode:       mode,
		minFrames:  minFrames,
	}, nil
}

// ValidSampleRate reports whether WebRTC VAD supports the rate
func ValidSampleRate(rate int) bool {
	for _, r := range validRates {
		if rate == r {
			return true
		}
	}
	return false
}

// ClampMode limits an aggressiveness mode to 0-3
func ClampMode(mode int) int {
	if mode < 0 {
		return 0
	}
	if mode > 3 {
		return 3
	}
	return mode
}

// Process reports whether enough 10ms sub-frames of the samples are voiced
func (w *WebRTCVAD) Process(samples []float32) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	frameSize := w.sampleRate / 100
	pcm := FloatToPCM16(samples)
	if len(pcm) < frameSize*2 {
		padded := make([]byte, frameSize*2)
		copy(padded, pcm)
		pcm = padded
	}

	voiced := 0
	for i := 0; i+frameSize*2 <= len(pcm); i += frameSize * 2 {
		active, err := w.vad.Process(w.sampleRate, pcm[i:i+frameSize*2])
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			voiced++
			if voiced >= w.minFrames {
				return true, nil
			}
		}
	}

	return false, nil
}

// FloatToPCM16 converts float samples to little-endian 16-bit PCM bytes
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Close releases resources
func (w *WebRTCVAD) Close() error {
	return nil
}

// Mode returns the current aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// SampleRate returns the sample rate
func (w *WebRTCVAD) SampleRate() int {
	return w.sampleRate
}
