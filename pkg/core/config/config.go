package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general" yaml:"general"`
	Audio       AudioConfig       `toml:"audio" yaml:"audio"`
	Sensitivity SensitivityConfig `toml:"sensitivity" yaml:"sensitivity"`
	STT         STTConfig         `toml:"stt" yaml:"stt"`
	Answer      AnswerConfig      `toml:"answer" yaml:"answer"`
	Store       StoreConfig       `toml:"store" yaml:"store"`
	Metrics     MetricsConfig     `toml:"metrics" yaml:"metrics"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	Language  string `toml:"language" yaml:"language"`
}

// AudioConfig holds microphone and clip segmentation settings
type AudioConfig struct {
	InputDevice         string   `toml:"input_device" yaml:"input_device"`
	SampleRate          int      `toml:"sample_rate" yaml:"sample_rate"`
	FramesPerBuffer     int      `toml:"frames_per_buffer" yaml:"frames_per_buffer"`
	VADEnabled          bool     `toml:"vad_enabled" yaml:"vad_enabled"`
	VADMode             int      `toml:"vad_mode" yaml:"vad_mode"`
	PauseThreshold      Duration `toml:"pause_threshold" yaml:"pause_threshold"`
	PhraseThreshold     Duration `toml:"phrase_threshold" yaml:"phrase_threshold"`
	NonSpeakingDuration Duration `toml:"non_speaking_duration" yaml:"non_speaking_duration"`
}

// SensitivityConfig selects a named sensitivity profile. Non-zero
// overrides replace the profile's values.
type SensitivityConfig struct {
	Profile            string   `toml:"profile" yaml:"profile"`
	StartTimeout       Duration `toml:"start_timeout" yaml:"start_timeout"`
	ShortSilence       Duration `toml:"short_silence" yaml:"short_silence"`
	FinalSilence       Duration `toml:"final_silence" yaml:"final_silence"`
	SentenceEndSilence Duration `toml:"sentence_end_silence" yaml:"sentence_end_silence"`
	QuestionSilence    Duration `toml:"question_silence" yaml:"question_silence"`
	ConfirmHold        Duration `toml:"confirm_hold" yaml:"confirm_hold"`
	ShortConfirmHold   Duration `toml:"short_confirm_hold" yaml:"short_confirm_hold"`
	MaxDuration        Duration `toml:"max_duration" yaml:"max_duration"`
	RecalibrateEvery   Duration `toml:"recalibrate_every" yaml:"recalibrate_every"`
	EnergyThreshold    float64  `toml:"energy_threshold" yaml:"energy_threshold"`
}

// STTConfig holds speech-to-text settings
type STTConfig struct {
	Engine       string   `toml:"engine" yaml:"engine"`
	Model        string   `toml:"model" yaml:"model"`
	BaseURL      string   `toml:"base_url" yaml:"base_url"`
	APIKey       string   `toml:"api_key" yaml:"api_key"`
	WhisperModel string   `toml:"whisper_model" yaml:"whisper_model"`
	WhisperPath  string   `toml:"whisper_path" yaml:"whisper_path"`
	Fallback     bool     `toml:"fallback" yaml:"fallback"`
	Timeout      Duration `toml:"timeout" yaml:"timeout"`
}

// AnswerConfig holds answer backend settings
type AnswerConfig struct {
	// Backend is ollama, openai or none. An empty Model selects the
	// backend's default model.
	Backend    string   `toml:"backend" yaml:"backend"`
	Model      string   `toml:"model" yaml:"model"`
	BaseURL    string   `toml:"base_url" yaml:"base_url"`
	OllamaURL  string   `toml:"ollama_url" yaml:"ollama_url"`
	APIKey     string   `toml:"api_key" yaml:"api_key"`
	ResumeFile string   `toml:"resume_file" yaml:"resume_file"`
	History    int      `toml:"history" yaml:"history"`
	Timeout    Duration `toml:"timeout" yaml:"timeout"`

	// RepeatWindow reuses answers for repeated questions; negative disables
	RepeatWindow Duration `toml:"repeat_window" yaml:"repeat_window"`
}

// StoreConfig holds question log settings
type StoreConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr" yaml:"listen_addr"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the SOUFFLEUR_CONFIG environment
// variable or the default locations. Without any file the defaults are used.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("SOUFFLEUR_CONFIG")
	if path != "" {
		return Load(path)
	}

	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	cfg := Default()
	cfg.expandEnvVars()
	return cfg, nil
}

// DefaultPaths lists the locations searched when SOUFFLEUR_CONFIG is unset
func DefaultPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"./souffleur.toml",
		"./souffleur.yaml",
		filepath.Join(home, ".config", "souffleur", "config.toml"),
		filepath.Join(home, ".config", "souffleur", "config.yaml"),
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.DataDir == "" {
		home, _ := os.UserHomeDir()
		c.General.DataDir = filepath.Join(home, ".souffleur")
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "console"
	}
	if c.General.Language == "" {
		c.General.Language = "en"
	}

	// Audio
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 480
	}
	if c.Audio.VADMode == 0 {
		c.Audio.VADMode = 2
	}
	if c.Audio.PauseThreshold.Duration == 0 {
		c.Audio.PauseThreshold.Duration = 1500 * time.Millisecond
	}
	if c.Audio.PhraseThreshold.Duration == 0 {
		c.Audio.PhraseThreshold.Duration = 80 * time.Millisecond
	}
	if c.Audio.NonSpeakingDuration.Duration == 0 {
		c.Audio.NonSpeakingDuration.Duration = 850 * time.Millisecond
	}

	// Sensitivity
	if c.Sensitivity.Profile == "" {
		c.Sensitivity.Profile = "default"
	}

	// STT
	if c.STT.Engine == "" {
		c.STT.Engine = "openai"
	}
	if c.STT.Model == "" {
		c.STT.Model = "whisper-1"
	}
	if c.STT.Timeout.Duration == 0 {
		c.STT.Timeout.Duration = 15 * time.Second
	}

	// Answer
	if c.Answer.Backend == "" {
		c.Answer.Backend = "ollama"
	}
	if c.Answer.OllamaURL == "" {
		c.Answer.OllamaURL = "http://localhost:11434"
	}
	if c.Answer.History == 0 {
		c.Answer.History = 6
	}
	if c.Answer.Timeout.Duration == 0 {
		c.Answer.Timeout.Duration = 60 * time.Second
	}
	if c.Answer.RepeatWindow.Duration == 0 {
		c.Answer.RepeatWindow.Duration = 10 * time.Minute
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "questions.db")
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.STT.APIKey = os.ExpandEnv(c.STT.APIKey)
	c.Answer.APIKey = os.ExpandEnv(c.Answer.APIKey)
	if c.STT.APIKey == "" {
		c.STT.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Answer.APIKey == "" {
		c.Answer.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Answer.ResumeFile = os.ExpandEnv(c.Answer.ResumeFile)
	c.STT.WhisperPath = os.ExpandEnv(c.STT.WhisperPath)
	c.STT.WhisperModel = os.ExpandEnv(c.STT.WhisperModel)
}
