package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/internal/answer"
	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/internal/store"
	"github.com/msto63/souffleur/pkg/core/config"
	"github.com/msto63/souffleur/pkg/core/health"
	"github.com/msto63/souffleur/pkg/core/logging"
)

var errNotReady = errors.New("not ready")

// listInputDevices is replaced in tests
var listInputDevices = audio.ListInputDevices

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check microphone, engines and storage",
	Long: `Runs readiness checks for everything 'souffleur listen' needs:
configuration, input device, transcription engine, answer backend,
resume file and question log.

Exit status is non-zero when a check fails; warnings do not fail.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("failed to load config", err)
		return err
	}

	registry := doctorChecks(cfg, logging.Nop())
	report := registry.Check(context.Background())

	fmt.Print(report.String())
	fmt.Println()
	fmt.Printf("Overall: %s\n", report.Status)

	if report.Status == health.StatusFail {
		return errNotReady
	}
	return nil
}

// doctorChecks builds the readiness checks for cfg
func doctorChecks(cfg *config.Config, logger *logging.Logger) *health.Registry {
	registry := health.NewRegistry(5 * time.Second)

	registry.RegisterFunc("profile", func(ctx context.Context) health.CheckResult {
		p, err := buildProfile(cfg.Sensitivity)
		if err != nil {
			return health.Fail(err)
		}
		return health.OK("%s (confirm hold %s, max %s)", p.Name, p.ConfirmHold, p.MaxDuration)
	})

	registry.RegisterFunc("microphone", func(ctx context.Context) health.CheckResult {
		devices, err := listInputDevices()
		if err != nil {
			return health.Fail(err)
		}
		if cfg.Audio.InputDevice != "" {
			for _, d := range devices {
				if d.Name == cfg.Audio.InputDevice {
					return health.OK("%s", d.Name)
				}
			}
			return health.Fail(fmt.Errorf("configured device %q not found", cfg.Audio.InputDevice))
		}
		if dev, ok := audio.SelectInputDevice(devices); ok {
			return health.OK("%s (auto-selected)", dev.Name)
		}
		if len(devices) == 0 {
			return health.Fail(errors.New("no input devices"))
		}
		return health.Warn("no physical microphone, the system default will be used")
	})

	registry.RegisterFunc("transcription", func(ctx context.Context) health.CheckResult {
		tr, cleanup, err := buildTranscriber(cfg.STT, logger)
		defer cleanup()
		if err != nil {
			return health.Fail(err)
		}
		return health.OK("%s", tr.Name())
	})

	if cfg.STT.BaseURL != "" {
		registry.Register(health.HTTPCheck("stt server", strings.TrimSuffix(cfg.STT.BaseURL, "/")+"/models", nil))
	}

	registry.RegisterFunc("answers", func(ctx context.Context) health.CheckResult {
		switch strings.ToLower(cfg.Answer.Backend) {
		case "none", "off":
			return health.Warn("disabled, questions are only captured")
		case "openai":
			b, err := buildBackend(ctx, cfg.Answer, logger)
			if err != nil {
				return health.Fail(err)
			}
			return health.OK("%s", b.Name())
		}
		b := answer.NewOllamaBackend(answer.OllamaConfig{BaseURL: cfg.Answer.OllamaURL, Model: cfg.Answer.Model})
		if err := b.HealthCheck(ctx); err != nil {
			return health.Fail(err)
		}
		return health.OK("%s at %s", b.Name(), cfg.Answer.OllamaURL)
	})

	registry.RegisterFunc("resume", func(ctx context.Context) health.CheckResult {
		if cfg.Answer.ResumeFile == "" {
			return health.Warn("none, answers will be general")
		}
		text, err := answer.LoadResume(cfg.Answer.ResumeFile)
		if err != nil {
			return health.Fail(err)
		}
		return health.OK("%s (%d bytes)", cfg.Answer.ResumeFile, len(text))
	})

	registry.RegisterFunc("question log", func(ctx context.Context) health.CheckResult {
		s, err := store.Open(store.Config{Path: cfg.Store.Path})
		if err != nil {
			return health.Fail(err)
		}
		defer s.Close()
		stats, err := s.Stats(ctx)
		if err != nil {
			return health.Fail(err)
		}
		return health.OK("%s (%d questions)", cfg.Store.Path, stats.Questions)
	})

	return registry
}
