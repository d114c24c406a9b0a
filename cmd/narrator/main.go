package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyentantai21042004/video-narrator/internal/backend"
	"github.com/nguyentantai21042004/video-narrator/internal/config"
	"github.com/nguyentantai21042004/video-narrator/internal/gemini"
	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/nguyentantai21042004/video-narrator/internal/media"
	"github.com/nguyentantai21042004/video-narrator/internal/metrics"
	"github.com/nguyentantai21042004/video-narrator/internal/narrator"
	"github.com/nguyentantai21042004/video-narrator/internal/openaivision"
	"github.com/nguyentantai21042004/video-narrator/internal/segment"
	"github.com/nguyentantai21042004/video-narrator/internal/speech"
	"github.com/nguyentantai21042004/video-narrator/internal/transcript"
	"github.com/nguyentantai21042004/video-narrator/internal/tui"
	"github.com/nguyentantai21042004/video-narrator/internal/watcher"
	"github.com/nguyentantai21042004/video-narrator/pkg/executor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// analyzer captions frames and summarizes captions
type analyzer interface {
	narrator.Captioner
	narrator.Summarizer
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	envFile := flag.String("env", ".env", "optional dotenv file with API keys")
	headless := flag.Bool("headless", false, "start narrating immediately without the terminal UI")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The UI owns the terminal, so logs go to a file unless configured otherwise
	interactive := !*headless && term.IsTerminal(int(os.Stdout.Fd()))
	logOutput := cfg.Logging.Output
	if interactive && logOutput == "" {
		logOutput = "narrator.log"
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOutput,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	title := cfg.Source.Title
	if title == "" {
		title = filepath.Base(cfg.Source.Path)
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Video Narrator")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Source: %s", cfg.Source.Path)
	log.Info(ctx, "Analysis provider: %s", cfg.Analysis.Provider)
	log.Info(ctx, "Configuration loaded successfully")

	// Initialize dependencies
	exec := executor.New()
	mediaOpts := media.Options{
		Source:  cfg.Source.Path,
		FFmpeg:  cfg.FFmpeg.Binary,
		FFprobe: cfg.FFmpeg.FFprobe,
		Quality: cfg.FFmpeg.Quality,
	}
	player := media.NewPlayer(mediaOpts, exec, log)
	grabber := media.NewGrabber(mediaOpts, player, exec, log)

	an, err := newAnalyzer(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "Failed to create analyzer: %v", err)
		os.Exit(1)
	}

	speaker := speech.New(speech.Options{
		Binary: cfg.Speech.Binary,
		Rate:   cfg.Speech.Rate,
		Voice:  cfg.Speech.Voice,
	}, exec, log)

	collector := metrics.NewCollector("narrator")

	events := make(chan narrator.Event, 64)
	onEvent := forwardEvents(ctx, events, log)

	coord := narrator.New(narrator.Deps{
		Player:     player,
		Capturer:   grabber,
		Captioner:  an,
		Summarizer: an,
		Speaker:    speaker,
		Recorder:   transcript.New(cfg.Output.Transcripts, !cfg.Output.SkipDocx, log),
		Metrics:    collector,
	}, narrator.Options{
		CaptureTimeout: time.Duration(cfg.Coordinator.CaptureTimeoutSeconds) * time.Second,
		GracePeriod:    time.Duration(cfg.Coordinator.GracePeriodSeconds) * time.Second,
		HealthInterval: time.Duration(cfg.Coordinator.HealthCheckSeconds) * time.Second,
		MaxInFlight:    cfg.Coordinator.MaxInFlight,
		Title:          title,
	}, log, onEvent)

	settings := settingsFrom(cfg.Narration)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return coord.Run(gctx)
	})

	// Hot reload narration settings
	w, err := watcher.New(*configPath, reloadSettings(coord, log), log, 0)
	if err != nil {
		log.Warn(ctx, "Config hot reload disabled: %v", err)
	} else {
		defer w.Stop()
		g.Go(func() error {
			return w.Start(gctx)
		})
	}

	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return collector.Serve(gctx, cfg.Metrics.Listen, log)
		})
	}

	g.Go(func() error {
		// Leaving the UI or finishing headless narration shuts everything down
		defer cancel()
		if interactive {
			return tui.Run(gctx, tui.NewModel(gctx, coord, events, title, settings))
		}
		return runHeadless(gctx, coord, events, settings, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error(ctx, "Narrator error: %v", err)
		os.Exit(1)
	}

	log.Info(context.Background(), "Video Narrator stopped")
}

func newAnalyzer(ctx context.Context, cfg *config.Config, log logger.Logger) (analyzer, error) {
	creds, err := config.ResolveCredentials()
	if err != nil {
		log.Warn(ctx, "Keyring lookup failed: %v", err)
	}

	switch cfg.Analysis.Provider {
	case config.ProviderGemini:
		if len(creds.GeminiKeys) == 0 {
			return nil, fmt.Errorf("no Gemini API keys: set GEMINI_API_KEYS or store one in the %q keyring", config.KeyringService)
		}
		log.Info(ctx, "Using Gemini %s with %d API keys", cfg.Analysis.Gemini.Model, len(creds.GeminiKeys))
		return gemini.New(creds.GeminiKeys, cfg.Analysis.Gemini.Model, log), nil

	case config.ProviderOpenAI:
		if creds.OpenAIKey == "" && cfg.Analysis.OpenAI.BaseURL == "" {
			return nil, fmt.Errorf("no OpenAI API key: set OPENAI_API_KEY or store one in the %q keyring", config.KeyringService)
		}
		log.Info(ctx, "Using OpenAI compatible model %s", cfg.Analysis.OpenAI.Model)
		return openaivision.New(openaivision.Options{
			APIKey:  creds.OpenAIKey,
			BaseURL: cfg.Analysis.OpenAI.BaseURL,
			Model:   cfg.Analysis.OpenAI.Model,
		}, log), nil

	default:
		client := backend.New(backend.Options{
			BaseURL:           cfg.Analysis.Backend.BaseURL,
			Timeout:           time.Duration(cfg.Analysis.Backend.TimeoutSeconds) * time.Second,
			Fast:              cfg.Analysis.Backend.Fast,
			RequestsPerSecond: cfg.Analysis.Backend.RateLimit,
			Burst:             cfg.Analysis.Backend.Burst,
		}, log)

		hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Health(hctx); err != nil {
			log.Warn(ctx, "Backend %s is not reachable yet: %v", cfg.Analysis.Backend.BaseURL, err)
		}
		return client, nil
	}
}

func settingsFrom(n config.NarrationConfig) narrator.Settings {
	return narrator.Settings{
		Mode:            segment.Mode(n.Mode),
		IntervalSeconds: n.IntervalSeconds,
	}
}

// reloadSettings applies the narration section of a changed config file
func reloadSettings(coord narrator.Coordinator, log logger.Logger) watcher.EventHandler {
	return func(ctx context.Context, path string) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		settings := settingsFrom(cfg.Narration)
		if err := coord.UpdateSettings(ctx, settings); err != nil {
			return fmt.Errorf("update settings: %w", err)
		}

		log.Info(ctx, "Narration settings reloaded: %s mode, every %ds", settings.Mode, settings.IntervalSeconds)
		return nil
	}
}

// runHeadless narrates the whole video once and logs progress
func runHeadless(ctx context.Context, coord narrator.Coordinator, events <-chan narrator.Event, settings narrator.Settings, log logger.Logger) error {
	if err := coord.Start(ctx, settings); err != nil {
		return fmt.Errorf("start narration: %w", err)
	}

	log.Info(ctx, "Narration started (%s mode, every %ds). Press Ctrl+C to stop", settings.Mode, settings.IntervalSeconds)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev.Kind {
			case narrator.EventSegmentStarted:
				log.Info(ctx, "Segment %d/%d: %.0fs, %d frames", ev.SegmentIndex+1, ev.SegmentCount, ev.DurationSeconds, ev.ExpectedFrames)
			case narrator.EventSegmentSummarized:
				if ev.Partial {
					log.Info(ctx, "[PARTIAL %d captions] %s", ev.CaptionCount, ev.Summary)
				} else {
					log.Info(ctx, "[%d captions] %s", ev.CaptionCount, ev.Summary)
				}
			case narrator.EventError:
				if ev.Fatal {
					return fmt.Errorf("narration aborted: %s", ev.Message)
				}
				log.Warn(ctx, "%s", ev.Message)
			case narrator.EventSessionComplete:
				log.Info(ctx, "Narration complete")
				return nil
			case narrator.EventSessionStopped:
				return nil
			}
		}
	}
}
