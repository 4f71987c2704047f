package listener

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// CalibrationState is the session's adaptive energy threshold
type CalibrationState struct {
	EnergyThreshold  float64
	LastCalibratedAt time.Time
}

// Nudge lowers the threshold by factor, never below floor
func (c *CalibrationState) Nudge(factor, floor float64) {
	c.EnergyThreshold = math.Max(floor, c.EnergyThreshold*factor)
}

// NoiseSampler measures the room between captures
type NoiseSampler interface {
	SampleAmbient(ctx context.Context, window time.Duration) (audio.NoiseSample, error)
}

// AmbientCalibrator keeps the energy threshold tracking background noise
type AmbientCalibrator struct {
	profile SensitivityProfile
	logger  *logging.Logger
}

// NewAmbientCalibrator creates a calibrator for the profile
func NewAmbientCalibrator(profile SensitivityProfile, logger *logging.Logger) *AmbientCalibrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AmbientCalibrator{profile: profile, logger: logger}
}

// Due reports whether a periodic recalibration should run at now
func (c *AmbientCalibrator) Due(state *CalibrationState, now time.Time) bool {
	return now.Sub(state.LastCalibratedAt) >= c.profile.RecalibrateEvery
}

// Apply folds measured frame energies into the threshold with dynamic
// damping: each frame pulls the threshold towards ratio*energy by
// (1 - damping^frameSeconds).
func (c *AmbientCalibrator) Apply(state *CalibrationState, sample audio.NoiseSample) {
	damping := math.Pow(c.profile.DynamicDamping, sample.FrameDuration.Seconds())
	threshold := state.EnergyThreshold
	for _, energy := range sample.Energies {
		target := energy * c.profile.DynamicRatio
		threshold = threshold*damping + target*(1-damping)
	}
	state.EnergyThreshold = math.Max(c.profile.MinEnergyThreshold, threshold)
}

// Calibrate samples the room for window and updates the state. On failure
// the previous threshold stays. LastCalibratedAt advances either way so a
// broken device is not re-sampled on every tick.
func (c *AmbientCalibrator) Calibrate(ctx context.Context, sampler NoiseSampler, state *CalibrationState, window time.Duration, now time.Time) error {
	state.LastCalibratedAt = now

	sample, err := sampler.SampleAmbient(ctx, window)
	if err != nil {
		return fmt.Errorf("ambient calibration: %w", err)
	}

	before := state.EnergyThreshold
	c.Apply(state, sample)
	c.logger.Debug("Energy threshold calibrated",
		"before", before, "after", state.EnergyThreshold, "frames", len(sample.Energies))
	return nil
}
