package audio

import (
	"context"
	"fmt"

	"github.com/msto63/souffleur/pkg/core/logging"
)

// MicrophoneConfig configures OpenMicrophone
type MicrophoneConfig struct {
	// DeviceName selects an input by exact name; empty means auto-select
	DeviceName string
	Recorder   RecorderConfig
}

// OpenMicrophone starts capturing from the chosen (or auto-selected) input
// and returns a recorder over it. Closing the recorder releases the device.
func OpenMicrophone(ctx context.Context, cfg MicrophoneConfig, detector SpeechDetector, logger *logging.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	deviceName := cfg.DeviceName
	if deviceName == "" {
		devices, err := ListInputDevices()
		if err != nil {
			logger.Warn("Device enumeration failed, using default input", "error", err)
		} else if dev, ok := SelectInputDevice(devices); ok {
			deviceName = dev.Name
			logger.Info("Selected input device", "device", dev.Name, "score", ScoreDevice(dev.Name))
		} else {
			logger.Info("No physical microphone found, using default input")
		}
	}

	rc := cfg.Recorder
	if rc.SampleRate == 0 {
		rc.SampleRate = DefaultSampleRate
	}
	if rc.FramesPerBuffer == 0 {
		rc.FramesPerBuffer = DefaultFramesPerBuffer
	}

	capture, err := NewCapture(CaptureConfig{
		SampleRate: float64(rc.SampleRate),
		BufferSize: rc.FramesPerBuffer,
		Channels:   DefaultChannels,
		DeviceName: deviceName,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := capture.Start(ctx); err != nil {
		capture.Close()
		return nil, fmt.Errorf("failed to open microphone %q: %w", deviceName, err)
	}

	return NewRecorder(capture, detector, rc, logger), nil
}
