package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// Fallback tries each engine in order until one recognizes the clip
type Fallback struct {
	engines []Transcriber
	logger  *logging.Logger
}

// NewFallback chains the engines, primary first
func NewFallback(logger *logging.Logger, engines ...Transcriber) *Fallback {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Fallback{engines: engines, logger: logger}
}

// Name lists the chained engines
func (f *Fallback) Name() string {
	name := "fallback"
	for i, e := range f.engines {
		if i == 0 {
			name += "("
		} else {
			name += ","
		}
		name += e.Name()
	}
	if len(f.engines) > 0 {
		name += ")"
	}
	return name
}

// Transcribe returns the first successful result. If every engine reports
// unrecognized speech the result is ErrUnrecognized; otherwise the last
// service error is returned.
func (f *Fallback) Transcribe(ctx context.Context, clip audio.Clip, language string) (Result, error) {
	if len(f.engines) == 0 {
		return Result{}, fmt.Errorf("%w: no transcription engine configured", ErrService)
	}

	var lastErr error
	for _, engine := range f.engines {
		res, err := engine.Transcribe(ctx, clip, language)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, err
		}

		if !errors.Is(err, ErrUnrecognized) {
			lastErr = err
		}
		f.logger.Debug("Engine failed, trying next", "engine", engine.Name(), "error", err)
	}

	if lastErr == nil {
		return Result{}, ErrUnrecognized
	}
	return Result{}, lastErr
}
