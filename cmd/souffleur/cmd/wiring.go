package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/msto63/souffleur/internal/answer"
	"github.com/msto63/souffleur/internal/listener"
	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/internal/listener/stt"
	"github.com/msto63/souffleur/pkg/core/config"
	"github.com/msto63/souffleur/pkg/core/logging"
)

// newLogger builds the CLI logger. In TUI mode output goes to a file in
// the data directory so it does not tear the screen.
func newLogger(cfg *config.Config, toFile bool) (*logging.Logger, io.Closer, error) {
	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	lc := logging.LoggerConfig{
		Name:   "souffleur",
		Level:  level,
		Format: cfg.General.LogFormat,
	}
	if !toFile {
		return logging.NewLogger(lc), nopCloser{}, nil
	}

	if err := os.MkdirAll(cfg.General.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.General.DataDir, "souffleur.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	lc.Output = f
	lc.Format = "json"
	return logging.NewLogger(lc), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildProfile resolves the named profile and applies non-zero overrides
func buildProfile(sc config.SensitivityConfig) (listener.SensitivityProfile, error) {
	p, err := listener.ProfileByName(sc.Profile)
	if err != nil {
		return p, err
	}

	override := func(dst *time.Duration, src config.Duration) {
		if src.Duration > 0 {
			*dst = src.Duration
		}
	}
	override(&p.StartTimeout, sc.StartTimeout)
	override(&p.ShortSilence, sc.ShortSilence)
	override(&p.FinalSilence, sc.FinalSilence)
	override(&p.SentenceEndSilence, sc.SentenceEndSilence)
	override(&p.QuestionSilence, sc.QuestionSilence)
	override(&p.ConfirmHold, sc.ConfirmHold)
	override(&p.ShortConfirmHold, sc.ShortConfirmHold)
	override(&p.MaxDuration, sc.MaxDuration)
	override(&p.RecalibrateEvery, sc.RecalibrateEvery)
	if sc.EnergyThreshold > 0 {
		p.InitialEnergyThreshold = sc.EnergyThreshold
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// recorderConfig maps the audio section onto the phrase recorder
func recorderConfig(ac config.AudioConfig) audio.RecorderConfig {
	return audio.RecorderConfig{
		SampleRate:          ac.SampleRate,
		FramesPerBuffer:     ac.FramesPerBuffer,
		PauseThreshold:      ac.PauseThreshold.Duration,
		PhraseThreshold:     ac.PhraseThreshold.Duration,
		NonSpeakingDuration: ac.NonSpeakingDuration.Duration,
	}
}

// buildTranscriber creates the configured engine, chained with the other
// one when fallback is enabled and it is available. The returned cleanup
// removes the local engine's temp files.
func buildTranscriber(sc config.STTConfig, logger *logging.Logger) (stt.Transcriber, func(), error) {
	var locals []*stt.WhisperCLI
	cleanup := func() {
		for _, w := range locals {
			w.Close()
		}
	}

	remote := func() stt.Transcriber {
		if sc.APIKey == "" && sc.BaseURL == "" {
			return nil
		}
		return stt.NewOpenAITranscriber(stt.OpenAIConfig{
			APIKey:  sc.APIKey,
			BaseURL: sc.BaseURL,
			Model:   sc.Model,
		}, logger)
	}
	local := func() (stt.Transcriber, error) {
		w, err := stt.NewWhisperCLI(stt.WhisperConfig{
			BinaryPath: sc.WhisperPath,
			ModelPath:  sc.WhisperModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		locals = append(locals, w)
		return w, nil
	}

	var engines []stt.Transcriber
	switch strings.ToLower(sc.Engine) {
	case "openai", "":
		primary := remote()
		if primary == nil {
			return nil, cleanup, fmt.Errorf("openai transcription needs an API key or base URL (set OPENAI_API_KEY)")
		}
		engines = append(engines, primary)
		if sc.Fallback {
			if w, err := local(); err != nil {
				logger.Warn("Whisper fallback unavailable", "error", err)
			} else {
				engines = append(engines, w)
			}
		}
	case "whisper":
		w, err := local()
		if err != nil {
			return nil, cleanup, err
		}
		engines = append(engines, w)
		if sc.Fallback {
			if r := remote(); r != nil {
				engines = append(engines, r)
			} else {
				logger.Warn("OpenAI fallback unavailable, no API key")
			}
		}
	default:
		return nil, cleanup, fmt.Errorf("unknown transcription engine %q (available: openai, whisper)", sc.Engine)
	}

	if len(engines) == 1 {
		return engines[0], cleanup, nil
	}
	return stt.NewFallback(logger, engines...), cleanup, nil
}

// buildBackend creates the answer backend; nil means capture only
func buildBackend(ctx context.Context, ac config.AnswerConfig, logger *logging.Logger) (answer.Backend, error) {
	switch strings.ToLower(ac.Backend) {
	case "none", "off":
		return nil, nil
	case "ollama", "":
		b := answer.NewOllamaBackend(answer.OllamaConfig{
			BaseURL: ac.OllamaURL,
			Model:   ac.Model,
			Timeout: ac.Timeout.Duration,
		})
		hctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := b.HealthCheck(hctx); err != nil {
			logger.Warn("Ollama not ready, answers will fail until it is", "url", ac.OllamaURL, "error", err)
		}
		return b, nil
	case "openai":
		b, err := answer.NewOpenAIBackend(answer.OpenAIConfig{
			APIKey:  ac.APIKey,
			BaseURL: ac.BaseURL,
			Model:   ac.Model,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown answer backend %q (available: ollama, openai, none)", ac.Backend)
	}
}

// buildAnswerService wraps the backend with prompts and the optional resume
func buildAnswerService(backend answer.Backend, ac config.AnswerConfig, logger *logging.Logger) (*answer.Service, error) {
	if backend == nil {
		return nil, nil
	}
	var resume string
	if ac.ResumeFile != "" {
		text, err := answer.LoadResume(ac.ResumeFile)
		if err != nil {
			return nil, err
		}
		resume = text
		logger.Info("Resume loaded", "file", ac.ResumeFile, "bytes", len(resume))
	}
	return answer.NewService(backend, answer.ServiceConfig{
		Resume:       resume,
		History:      ac.History,
		RepeatWindow: ac.RepeatWindow.Duration,
	}, logger), nil
}
