// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     listener
// Description: Sensitivity profiles for utterance segmentation
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package listener

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"
)

// SensitivityProfile holds every timing and threshold the segmentation
// engine depends on. Profiles are chosen by configuration; the logic never
// branches on the platform.
type SensitivityProfile struct {
	Name string

	// StartTimeout bounds the wait for speech to begin in one capture
	StartTimeout time.Duration

	// ShortSilence finalizes long utterances
	ShortSilence time.Duration

	// FinalSilence finalizes anything
	FinalSilence time.Duration

	// SentenceEndSilence finalizes text that ends like a sentence
	SentenceEndSilence time.Duration

	// QuestionSilence finalizes short questions
	QuestionSilence time.Duration

	// ConfirmHold and ShortConfirmHold are the debounce windows
	ConfirmHold      time.Duration
	ShortConfirmHold time.Duration

	// MaxDuration caps a single utterance
	MaxDuration time.Duration

	RecalibrateEvery   time.Duration
	InitialCalibration time.Duration
	Recalibration      time.Duration

	LongUtteranceWords int
	ShortQuestionWords int

	// Segments with fewer runes nudge the energy threshold down
	ShortSegmentRunes int
	SensitivityNudge  float64

	InitialEnergyThreshold float64
	MinEnergyThreshold     float64

	// DynamicDamping and DynamicRatio drive ambient calibration
	DynamicDamping float64
	DynamicRatio   float64
}

// DefaultProfile returns the balanced interview profile
func DefaultProfile() SensitivityProfile {
	return SensitivityProfile{
		Name:                   "default",
		StartTimeout:           900 * time.Millisecond,
		ShortSilence:           1500 * time.Millisecond,
		FinalSilence:           3300 * time.Millisecond,
		SentenceEndSilence:     750 * time.Millisecond,
		QuestionSilence:        550 * time.Millisecond,
		ConfirmHold:            700 * time.Millisecond,
		ShortConfirmHold:       220 * time.Millisecond,
		MaxDuration:            75 * time.Second,
		RecalibrateEvery:       60 * time.Second,
		InitialCalibration:     600 * time.Millisecond,
		Recalibration:          400 * time.Millisecond,
		LongUtteranceWords:     10,
		ShortQuestionWords:     8,
		ShortSegmentRunes:      12,
		SensitivityNudge:       0.9,
		InitialEnergyThreshold: 300,
		MinEnergyThreshold:     100,
		DynamicDamping:         0.15,
		DynamicRatio:           1.5,
	}
}

var profiles = map[string]func() SensitivityProfile{
	"default": DefaultProfile,
	"windows": func() SensitivityProfile {
		// Laptop array mics with driver AGC sit higher
		p := DefaultProfile()
		p.Name = "windows"
		p.InitialEnergyThreshold = 400
		p.MinEnergyThreshold = 150
		return p
	},
	"macos": func() SensitivityProfile {
		p := DefaultProfile()
		p.Name = "macos"
		p.InitialEnergyThreshold = 250
		p.MinEnergyThreshold = 80
		return p
	},
	"linux": func() SensitivityProfile {
		// PulseAudio/PipeWire add startup latency to each capture
		p := DefaultProfile()
		p.Name = "linux"
		p.StartTimeout = time.Second
		return p
	},
}

// ProfileByName returns a named profile. "auto" picks the profile for the
// running platform.
func ProfileByName(name string) (SensitivityProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		name = "default"
	case "auto":
		name = PlatformProfileName(runtime.GOOS)
	}

	build, ok := profiles[name]
	if !ok {
		return SensitivityProfile{}, fmt.Errorf("unknown sensitivity profile %q (available: %s)",
			name, strings.Join(ProfileNames(), ", "))
	}
	return build(), nil
}

// PlatformProfileName maps a GOOS value to a profile name
func PlatformProfileName(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	case "linux":
		return "linux"
	default:
		return "default"
	}
}

// ProfileNames lists the available profiles
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the profile can drive a session
func (p SensitivityProfile) Validate() error {
	durations := map[string]time.Duration{
		"start_timeout":        p.StartTimeout,
		"short_silence":        p.ShortSilence,
		"final_silence":        p.FinalSilence,
		"sentence_end_silence": p.SentenceEndSilence,
		"question_silence":     p.QuestionSilence,
		"confirm_hold":         p.ConfirmHold,
		"short_confirm_hold":   p.ShortConfirmHold,
		"max_duration":         p.MaxDuration,
		"recalibrate_every":    p.RecalibrateEvery,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("profile %s: %s must be positive", p.Name, name)
		}
	}
	if p.SensitivityNudge <= 0 || p.SensitivityNudge > 1 {
		return fmt.Errorf("profile %s: sensitivity nudge must be in (0, 1]", p.Name)
	}
	if p.MinEnergyThreshold < 0 || p.InitialEnergyThreshold < p.MinEnergyThreshold {
		return fmt.Errorf("profile %s: initial energy threshold below minimum", p.Name)
	}
	if p.DynamicDamping <= 0 || p.DynamicDamping >= 1 {
		return fmt.Errorf("profile %s: dynamic damping must be in (0, 1)", p.Name)
	}
	return nil
}
