// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     cmd
// Description: The listen command: microphone to questions to answers
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/internal/app"
	"github.com/msto63/souffleur/internal/dispatch"
	"github.com/msto63/souffleur/internal/listener"
	"github.com/msto63/souffleur/internal/listener/audio"
	"github.com/msto63/souffleur/internal/listener/vad"
	"github.com/msto63/souffleur/internal/metrics"
	"github.com/msto63/souffleur/internal/store"
	"github.com/msto63/souffleur/internal/tui"
	"github.com/msto63/souffleur/pkg/core/config"
	"github.com/msto63/souffleur/pkg/core/version"
)

var (
	listenDevice      string
	listenLanguage    string
	listenProfile     string
	listenSTT         string
	listenBackend     string
	listenModel       string
	listenResume      string
	listenMetricsAddr string
	listenNoTUI       bool
	listenHotkey      bool
	listenVAD         bool
)

var listenCmd = &cobra.Command{
	Use:     "listen",
	Aliases: []string{"l", "start"},
	Short:   "Start listening for interview questions",
	Long: `Opens the microphone and listens continuously. Speech is transcribed
as it comes in and joined into complete questions; every finished question
is logged and answered by the configured backend.

Keys in the TUI:
  space  - pause / resume listening
  c      - clear the list
  q      - quit

Examples:
  souffleur listen                          # TUI, Ollama answers
  souffleur listen --answer-backend openai  # answers from the OpenAI API
  souffleur listen --resume cv.md           # answers based on your resume
  souffleur listen --no-tui                 # plain output, e.g. for logs
  souffleur listen --profile windows --device "USB Microphone"`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVarP(&listenDevice, "device", "d", "", "input device name (default: auto-select)")
	listenCmd.Flags().StringVarP(&listenLanguage, "language", "l", "en", "transcription language")
	listenCmd.Flags().StringVarP(&listenProfile, "profile", "p", "default", "sensitivity profile (default, windows, macos, linux, auto)")
	listenCmd.Flags().StringVar(&listenSTT, "stt", "openai", "transcription engine (openai, whisper)")
	listenCmd.Flags().StringVarP(&listenBackend, "answer-backend", "b", "ollama", "answer backend (ollama, openai, none)")
	listenCmd.Flags().StringVarP(&listenModel, "model", "m", "", "answer model (default depends on backend)")
	listenCmd.Flags().StringVar(&listenResume, "resume", "", "resume file (.txt or .md) for personalized answers")
	listenCmd.Flags().StringVar(&listenMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	listenCmd.Flags().BoolVar(&listenNoTUI, "no-tui", false, "print questions and answers instead of the TUI")
	listenCmd.Flags().BoolVar(&listenHotkey, "hotkey", false, "register Ctrl+Shift+L as global pause/resume key")
	listenCmd.Flags().BoolVar(&listenVAD, "vad", false, "confirm speech with WebRTC VAD")
}

// applyListenFlags lets explicitly set flags win over the config file
func applyListenFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("device") {
		cfg.Audio.InputDevice = listenDevice
	}
	if cmd.Flags().Changed("language") {
		cfg.General.Language = listenLanguage
	}
	if cmd.Flags().Changed("profile") {
		cfg.Sensitivity.Profile = listenProfile
	}
	if cmd.Flags().Changed("stt") {
		cfg.STT.Engine = listenSTT
	}
	if cmd.Flags().Changed("answer-backend") {
		cfg.Answer.Backend = listenBackend
	}
	if cmd.Flags().Changed("model") {
		cfg.Answer.Model = listenModel
	}
	if cmd.Flags().Changed("resume") {
		cfg.Answer.ResumeFile = listenResume
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.ListenAddr = listenMetricsAddr
	}
	if cmd.Flags().Changed("vad") {
		cfg.Audio.VADEnabled = listenVAD
	}
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("failed to load config", err)
		return err
	}
	applyListenFlags(cmd, cfg)

	logger, logFile, err := newLogger(cfg, !listenNoTUI)
	if err != nil {
		return err
	}
	defer logFile.Close()
	defer logger.Sync()

	profile, err := buildProfile(cfg.Sensitivity)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcriber, cleanupSTT, err := buildTranscriber(cfg.STT, logger.Named("stt"))
	defer cleanupSTT()
	if err != nil {
		return err
	}

	backend, err := buildBackend(ctx, cfg.Answer, logger)
	if err != nil {
		return err
	}
	service, err := buildAnswerService(backend, cfg.Answer, logger.Named("answer"))
	if err != nil {
		return err
	}

	questions, err := store.Open(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return fmt.Errorf("failed to open question log: %w", err)
	}
	defer questions.Close()

	m := metrics.New()
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.ListenAddr, logger); err != nil {
				logger.Error("Metrics endpoint failed", "error", err)
			}
		}()
	}

	var detector audio.SpeechDetector
	if cfg.Audio.VADEnabled {
		v, err := vad.NewWebRTCVAD(vad.Config{SampleRate: cfg.Audio.SampleRate, Mode: cfg.Audio.VADMode})
		if err != nil {
			logger.Warn("VAD unavailable, using energy only", "error", err)
		} else {
			defer v.Close()
			detector = v
		}
	}

	backendLabel := "none"
	pipelineCfg := app.PipelineConfig{Log: questions, Observer: m, Logger: logger.Named("pipeline")}
	if service != nil {
		pipelineCfg.Answers = service
		backendLabel = service.Backend()
	}
	deviceLabel := cfg.Audio.InputDevice
	if deviceLabel == "" {
		deviceLabel = "auto"
	}

	var (
		ctrl    *app.Controller
		program *tea.Program
		lines   = &lineNotifier{out: os.Stdout}
	)

	toggle := func() {
		if err := ctrl.Toggle(ctx); err != nil {
			logger.Error("Toggle failed", "error", err)
			if program != nil {
				program.Send(tui.SessionStoppedMsg{Err: err})
			}
		}
	}

	if listenNoTUI {
		pipelineCfg.Notifier = lines
	} else {
		program = tea.NewProgram(tui.New(tui.Config{
			Version:  version.Souffleur,
			Profile:  profile.Name,
			Device:   deviceLabel,
			Backend:  backendLabel,
			OnToggle: func() { go toggle() },
		}), tea.WithAltScreen())
		pipelineCfg.Notifier = tuiNotifier{program: program}
	}

	disp := dispatch.New(dispatch.Config{
		HandlerTimeout: 2 * cfg.Answer.Timeout.Duration,
		Logger:         logger.Named("dispatch"),
	}, app.NewPipeline(pipelineCfg))

	ctrl, err = app.NewController(app.ControllerConfig{
		OpenSource: func(ctx context.Context) (listener.ClipSource, error) {
			rec, err := audio.OpenMicrophone(ctx, audio.MicrophoneConfig{
				DeviceName: cfg.Audio.InputDevice,
				Recorder:   recorderConfig(cfg.Audio),
			}, detector, logger.Named("audio"))
			if err != nil {
				return nil, err
			}
			return rec, nil
		},
		Sink: func(id string) listener.Dispatcher { return disp.ForSession(id) },
		Session: listener.Options{
			Transcriber:       transcriber,
			Profile:           profile,
			Language:          cfg.General.Language,
			TranscribeTimeout: cfg.STT.Timeout.Duration,
			Logger:            logger.Named("listener"),
			Observer:          m,
		},
		OnStart: func(s *listener.Session) {
			if program != nil {
				program.Send(tui.SessionStartedMsg{ID: s.ID(), Events: s.Events()})
				return
			}
			go lines.follow(s.Events(), verbose)
		},
		OnStop: func(s *listener.Session, err error) {
			if program != nil {
				program.Send(tui.SessionStoppedMsg{Err: err})
				return
			}
			if err != nil {
				lines.printf("Listening ended: %v\n", err)
				stop()
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if listenHotkey {
		unregister, err := registerToggleHotkey(toggle, logger)
		if err != nil {
			logger.Warn("Global hotkey unavailable", "error", err)
		} else {
			defer unregister()
		}
	}

	logger.Info("Starting", "version", version.Souffleur, "profile", profile.Name,
		"device", deviceLabel, "stt", transcriber.Name(), "backend", backendLabel)

	var runErr error
	if program != nil {
		go func() {
			if err := ctrl.Start(ctx); err != nil {
				logger.Error("Failed to start listening", "error", err)
				program.Send(tui.SessionStoppedMsg{Err: err})
			}
		}()
		go func() {
			<-ctx.Done()
			program.Quit()
		}()
		if _, err := program.Run(); err != nil {
			runErr = fmt.Errorf("TUI error: %w", err)
		}
	} else {
		fmt.Printf("souffleur %s\n", version.Souffleur)
		fmt.Printf("Profile:  %s\n", profile.Name)
		fmt.Printf("Device:   %s\n", deviceLabel)
		fmt.Printf("Speech:   %s\n", transcriber.Name())
		fmt.Printf("Answers:  %s\n", backendLabel)
		fmt.Println("Press Ctrl+C to stop.")
		fmt.Println()

		if err := ctrl.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
	}

	// Flush the running session, then let pending answers finish
	ctrl.Stop()
	ctrl.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Answer.Timeout.Duration)
	defer cancel()
	if err := disp.Close(closeCtx); err != nil {
		logger.Warn("Pending questions abandoned", "pending", disp.Pending(), "error", err)
	}

	return runErr
}
