// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     audio
// Description: Energy-gated phrase recorder on top of a frame source
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/msto63/souffleur/pkg/core/logging"
)

// FrameReader delivers fixed-size frames of mono float samples
type FrameReader interface {
	// ReadFrame blocks until the next frame is available or ctx is done
	ReadFrame(ctx context.Context) ([]float32, error)

	// Close releases the underlying device
	Close() error
}

// SpeechDetector confirms that a frame above the energy threshold is speech
type SpeechDetector interface {
	Process(samples []float32) (bool, error)
}

// RecorderConfig holds the phrase segmentation settings
type RecorderConfig struct {
	SampleRate      int
	FramesPerBuffer int

	// PauseThreshold is the non-speech time that ends a phrase
	PauseThreshold time.Duration

	// PhraseThreshold is the minimum speech time; shorter bursts are noise
	PhraseThreshold time.Duration

	// NonSpeakingDuration is the silence kept on both ends of a clip
	NonSpeakingDuration time.Duration
}

// DefaultRecorderConfig returns the recorder defaults
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate:          DefaultSampleRate,
		FramesPerBuffer:     DefaultFramesPerBuffer,
		PauseThreshold:      1500 * time.Millisecond,
		PhraseThreshold:     80 * time.Millisecond,
		NonSpeakingDuration: 850 * time.Millisecond,
	}
}

// Recorder cuts a frame stream into speech clips. A phrase ends at a pause
// or, when the request sets one, at MaxDuration.
type Recorder struct {
	reader   FrameReader
	detector SpeechDetector
	cfg      RecorderConfig
	logger   *logging.Logger
	now      func() time.Time
}

// NewRecorder creates a recorder reading from the given frame source.
// detector may be nil, in which case energy alone decides.
func NewRecorder(reader FrameReader, detector SpeechDetector, cfg RecorderConfig, logger *logging.Logger) *Recorder {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recorder{
		reader:   reader,
		detector: detector,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// FrameDuration returns the audio time covered by one frame
func (r *Recorder) FrameDuration() time.Duration {
	return time.Duration(float64(r.cfg.FramesPerBuffer) / float64(r.cfg.SampleRate) * float64(time.Second))
}

// frameCount returns how many frames are needed to cover d
func (r *Recorder) frameCount(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(r.FrameDuration())))
}

// NextClip waits for speech and records until a pause or req.MaxDuration.
// It returns
// ErrNoSpeech when nothing started within req.StartTimeout. When ctx is
// cancelled mid-phrase, the audio captured so far is returned if it is
// long enough to be a phrase.
func (r *Recorder) NextClip(ctx context.Context, req ClipRequest) (Clip, error) {
	frameDur := r.FrameDuration()
	pauseFrames := r.frameCount(r.cfg.PauseThreshold)
	phraseFrames := r.frameCount(r.cfg.PhraseThreshold)
	nonSpeakingFrames := r.frameCount(r.cfg.NonSpeakingDuration)
	maxFrames := 0
	if req.MaxDuration > 0 {
		maxFrames = r.frameCount(req.MaxDuration)
	}

	preRoll := NewRingBuffer(nonSpeakingFrames * r.cfg.FramesPerBuffer)
	phrase := NewClipBuffer(r.cfg.SampleRate)

	var elapsed time.Duration
	for {
		preRoll.Clear()
		phrase.Reset()

		// Wait for speech
		for {
			elapsed += frameDur
			if req.StartTimeout > 0 && elapsed > req.StartTimeout {
				return Clip{}, ErrNoSpeech
			}

			frame, err := r.reader.ReadFrame(ctx)
			if err != nil {
				return Clip{}, err
			}
			preRoll.Write(frame)

			if r.isSpeech(frame, req.EnergyThreshold) {
				break
			}
		}

		startedAt := r.now()
		phrase.Append(preRoll.ReadAll())

		// Record until pause
		pauseCount, phraseCount := 0, 0
		truncated := false
		var interrupted error
		var lastFrameLen int
		for {
			frame, err := r.reader.ReadFrame(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					interrupted = err
					break
				}
				return Clip{}, err
			}
			lastFrameLen = len(frame)
			phrase.Append(frame)
			phraseCount++

			if r.isSpeech(frame, req.EnergyThreshold) {
				pauseCount = 0
			} else {
				pauseCount++
			}
			if pauseCount > pauseFrames {
				break
			}
			if maxFrames > 0 && phraseCount >= maxFrames {
				truncated = true
				break
			}
		}

		phraseCount -= pauseCount
		if interrupted != nil {
			if phraseCount < phraseFrames {
				return Clip{}, interrupted
			}
		} else if phraseCount < phraseFrames && lastFrameLen > 0 {
			r.logger.Debug("Discarding short burst", "frames", phraseCount)
			continue
		}

		// Keep only NonSpeakingDuration of trailing silence
		if extra := pauseCount - nonSpeakingFrames; extra > 0 {
			phrase.TrimTail(extra * r.cfg.FramesPerBuffer)
		}
		if truncated {
			r.logger.Warn("Phrase cut at maximum duration", "max", req.MaxDuration, "threshold", req.EnergyThreshold)
		}

		return Clip{
			Samples:    phrase.Samples(),
			SampleRate: r.cfg.SampleRate,
			StartedAt:  startedAt,
			EndedAt:    r.now(),
			Truncated:  truncated,
		}, nil
	}
}

// SampleAmbient reads frames for the given window and reports their energy
func (r *Recorder) SampleAmbient(ctx context.Context, window time.Duration) (NoiseSample, error) {
	frameDur := r.FrameDuration()
	sample := NoiseSample{FrameDuration: frameDur}

	var elapsed time.Duration
	for {
		elapsed += frameDur
		if elapsed > window {
			break
		}
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			return sample, fmt.Errorf("ambient sampling: %w", err)
		}
		sample.Energies = append(sample.Energies, RMS(frame))
	}

	if len(sample.Energies) == 0 {
		return sample, fmt.Errorf("ambient window %v shorter than one frame", window)
	}
	return sample, nil
}

// Close closes the frame source
func (r *Recorder) Close() error {
	return r.reader.Close()
}

func (r *Recorder) isSpeech(frame []float32, threshold float64) bool {
	if RMS(frame) <= threshold {
		return false
	}
	if r.detector == nil {
		return true
	}
	speech, err := r.detector.Process(frame)
	if err != nil {
		// Fall back to the energy decision
		r.logger.Debug("VAD failed", "error", err)
		return true
	}
	return speech
}
