// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/msto63/souffleur/pkg/core/logging"
)

const (
	// DefaultSampleRate is the capture rate (16kHz suits both VAD and STT)
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is 30ms at 16kHz, a valid WebRTC VAD frame
	DefaultFramesPerBuffer = 480

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// Capture streams microphone frames from PortAudio into a channel
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	sampleRate  float64
	bufferSize  int
	channels    int
	deviceName  string
	running     bool
	frames      chan []float32
	dropped     int
	initialized bool
	cancel      context.CancelFunc
	logger      *logging.Logger
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	Channels   int
	DeviceName string // empty = system default
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// NewCapture initializes PortAudio and prepares a capture
func NewCapture(cfg CaptureConfig, logger *logging.Logger) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Capture{
		sampleRate:  cfg.SampleRate,
		bufferSize:  cfg.BufferSize,
		channels:    cfg.Channels,
		deviceName:  cfg.DeviceName,
		frames:      make(chan []float32, 100),
		initialized: true,
		logger:      logger,
	}, nil
}

// Start opens the stream and begins reading frames
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.bufferSize*c.channels)

	stream, err := c.openStream(buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.stream = stream
	c.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.captureLoop(loopCtx, stream, buffer)

	return nil
}

func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	if c.deviceName == "" || c.deviceName == "default" {
		return portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
	}

	device, err := findDeviceByName(c.deviceName)
	if err != nil {
		c.logger.Warn("Input device not found, using default", "device", c.deviceName)
		return portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: c.channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: c.bufferSize,
	}
	return portaudio.OpenStream(params, buffer)
}

// findDeviceByName finds an input device by its exact name
func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("device not found: %s", name)
}

// captureLoop continuously reads audio from the stream
func (c *Capture) captureLoop(ctx context.Context, stream *portaudio.Stream, buffer []float32) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := stream.Read(); err != nil {
			c.mu.RLock()
			stillRunning := c.running
			c.mu.RUnlock()
			if !stillRunning {
				return
			}
			// Input overflow is recoverable
			continue
		}

		samples := downmix(buffer, c.channels)

		select {
		case c.frames <- samples:
		default:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		}
	}
}

// downmix copies the buffer and averages interleaved channels to mono
func downmix(buffer []float32, channels int) []float32 {
	if channels <= 1 {
		samples := make([]float32, len(buffer))
		copy(samples, buffer)
		return samples
	}
	samples := make([]float32, len(buffer)/channels)
	for i := range samples {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += buffer[i*channels+ch]
		}
		samples[i] = sum / float32(channels)
	}
	return samples
}

// ReadFrame returns the next captured frame
func (c *Capture) ReadFrame(ctx context.Context) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-c.frames:
		if !ok {
			return nil, ErrNotRunning
		}
		return frame, nil
	}
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.running = false
	if c.cancel != nil {
		c.cancel()
	}

	if c.stream != nil {
		if err := c.stream.Stop(); err != nil {
			c.logger.Debug("Stream stop failed", "error", err)
		}
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close audio stream: %w", err)
		}
		c.stream = nil
	}

	if c.dropped > 0 {
		c.logger.Debug("Frames dropped during capture", "count", c.dropped)
	}

	return nil
}

// Close stops capture and terminates PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		c.initialized = false
		close(c.frames)
	}

	return nil
}

// IsRunning returns whether capture is currently running
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// SampleRate returns the sample rate
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// DeviceName returns the configured device name
func (c *Capture) DeviceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceName
}

// ListInputDevices returns the available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultInputName string
	if defaultInput != nil {
		defaultInputName = defaultInput.Name
	}

	var inputDevices []DeviceInfo
	for i, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, DeviceInfo{
				Index:             i,
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultInputName,
			})
		}
	}

	return inputDevices, nil
}
