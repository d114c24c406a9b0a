package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/nguyentantai21042004/video-narrator/internal/segment"
	"gopkg.in/yaml.v3"
)

// Analysis providers
const (
	ProviderBackend = "backend"
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
)

// Config is the narrator configuration file
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Narration   NarrationConfig   `yaml:"narration"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Speech      SpeechConfig      `yaml:"speech"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// SourceConfig names the video to narrate
type SourceConfig struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
}

// NarrationConfig is hot reloaded; changes apply from the next segment
type NarrationConfig struct {
	Mode            string `yaml:"mode"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// CoordinatorConfig tunes segment timing and caption concurrency
type CoordinatorConfig struct {
	CaptureTimeoutSeconds int `yaml:"capture_timeout_seconds"`
	GracePeriodSeconds    int `yaml:"grace_period_seconds"`
	HealthCheckSeconds    int `yaml:"health_check_seconds"`
	MaxInFlight           int `yaml:"max_in_flight"`
}

// AnalysisConfig selects the captioning provider
type AnalysisConfig struct {
	Provider string        `yaml:"provider"`
	Backend  BackendConfig `yaml:"backend"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
}

// BackendConfig points at the HTTP analysis backend
type BackendConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Fast           bool    `yaml:"fast"`
	RateLimit      float64 `yaml:"rate_limit"`
	Burst          int     `yaml:"burst"`
}

// GeminiConfig configures the Gemini provider; keys come from the environment or keyring
type GeminiConfig struct {
	Model string `yaml:"model"`
}

// OpenAIConfig configures an OpenAI compatible provider
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// SpeechConfig selects the text to speech command
type SpeechConfig struct {
	Binary string `yaml:"binary"`
	Rate   int    `yaml:"rate"`
	Voice  string `yaml:"voice"`
}

// FFmpegConfig locates ffmpeg and ffprobe
type FFmpegConfig struct {
	Binary  string `yaml:"binary"`
	FFprobe string `yaml:"ffprobe"`
	Quality int    `yaml:"quality"`
}

// OutputConfig controls where transcripts are written
type OutputConfig struct {
	Transcripts string `yaml:"transcripts"`
	SkipDocx    bool   `yaml:"skip_docx"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads and validates the YAML config at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the config and fills in defaults
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}

	if c.Narration.Mode == "" {
		c.Narration.Mode = string(segment.ModeMulti)
	}
	if _, err := segment.ParseMode(c.Narration.Mode); err != nil {
		return fmt.Errorf("narration.mode: %w", err)
	}
	if c.Narration.IntervalSeconds == 0 {
		c.Narration.IntervalSeconds = 5
	}
	if !segment.ValidInterval(c.Narration.IntervalSeconds) {
		return fmt.Errorf("narration.interval_seconds must be one of %v", segment.Intervals)
	}

	c.Analysis.Provider = strings.ToLower(c.Analysis.Provider)
	switch c.Analysis.Provider {
	case "":
		c.Analysis.Provider = ProviderBackend
	case ProviderBackend, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("analysis.provider %q is not supported", c.Analysis.Provider)
	}
	if c.Analysis.Provider == ProviderBackend && c.Analysis.Backend.BaseURL == "" {
		c.Analysis.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Analysis.Backend.TimeoutSeconds == 0 {
		c.Analysis.Backend.TimeoutSeconds = 60
	}
	if c.Analysis.Gemini.Model == "" {
		c.Analysis.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Analysis.OpenAI.Model == "" {
		c.Analysis.OpenAI.Model = "gpt-4o-mini"
	}

	if c.Coordinator.CaptureTimeoutSeconds == 0 {
		c.Coordinator.CaptureTimeoutSeconds = 60
	}
	// a shorter timeout would end capture before the last slot of a full segment
	if c.Coordinator.CaptureTimeoutSeconds < segment.WindowSeconds {
		return fmt.Errorf("coordinator.capture_timeout_seconds must be at least %d", segment.WindowSeconds)
	}
	if c.Coordinator.GracePeriodSeconds == 0 {
		c.Coordinator.GracePeriodSeconds = 15
	}
	if c.Coordinator.HealthCheckSeconds == 0 {
		c.Coordinator.HealthCheckSeconds = 5
	}
	if c.Coordinator.MaxInFlight < 0 {
		return fmt.Errorf("coordinator.max_in_flight must not be negative")
	}

	if c.Speech.Rate == 0 {
		c.Speech.Rate = 175
	}
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.FFprobe == "" {
		c.FFmpeg.FFprobe = "ffprobe"
	}
	if c.FFmpeg.Quality == 0 {
		c.FFmpeg.Quality = 5
	}
	if c.Output.Transcripts == "" {
		c.Output.Transcripts = "data/transcripts"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}
