// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/sidtune/internal/adapter/audio/headless"
	"github.com/tejashwikalptaru/sidtune/internal/adapter/audio/otoaudio"
	"github.com/tejashwikalptaru/sidtune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/sidtune/internal/adapter/synth/psg"
	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/logger"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
	"github.com/tejashwikalptaru/sidtune/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	// Core dependencies
	logger *slog.Logger
	config Config

	// Infrastructure
	eventBus ports.EventBus
	engine   ports.SynthEngine
	output   ports.AudioOutput

	// Services
	playbackService      *service.PlaybackService
	visualizationService *service.VisualizationService

	shutdownOnce sync.Once
	shutdownErr  error
}

// Config holds application configuration.
type Config struct {
	// AppName is the display name
	AppName string

	// SampleRate is the audio sample rate
	SampleRate int

	// Chips is the number of emulated chips (1-3)
	Chips int

	// Channels is the output channel count (1 or 2)
	Channels int

	// ChipClockHz is the emulated chip clock
	ChipClockHz int

	// Voices are the tones programmed into each chip
	Voices [][]psg.Voice

	// VisualizationLength is the visualization window in samples
	VisualizationLength int

	// RefreshInterval is how often the visualization is polled
	RefreshInterval time.Duration

	// OutputBuffer is the device buffer duration (0 lets the backend choose)
	OutputBuffer time.Duration

	// UseHeadlessAudio replaces the audio device with a ticker (for CI and testing)
	UseHeadlessAudio bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	psgCfg := psg.DefaultConfig()
	playbackCfg := service.DefaultPlaybackConfig()

	return Config{
		AppName:             "SIDTune",
		SampleRate:          psgCfg.SampleRate,
		Chips:               psgCfg.Chips,
		Channels:            psgCfg.Channels,
		ChipClockHz:         psgCfg.ClockHz,
		Voices:              psgCfg.Voices,
		VisualizationLength: playbackCfg.VisualizationLength,
		RefreshInterval:     33 * time.Millisecond,
		OutputBuffer:        50 * time.Millisecond,
		UseHeadlessAudio:    false,
		LogLevel:            loggerCfg.Level,
		LogFormat:           loggerCfg.Format,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_name", config.AppName),
		slog.String("version", GetVersionInfo().Version))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create the synthesis engine
	psgCfg := psg.DefaultConfig()
	psgCfg.Chips = config.Chips
	psgCfg.Channels = config.Channels
	psgCfg.SampleRate = config.SampleRate
	psgCfg.ClockHz = config.ChipClockHz
	psgCfg.Voices = config.Voices
	engine, err := psg.NewEngine(psgCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis engine: %w", err)
	}
	app.engine = engine

	// Step 4: Create an audio output
	if config.UseHeadlessAudio {
		out, err := headless.NewOutput(config.SampleRate, config.Channels, outputPeriod(config))
		if err != nil {
			return nil, fmt.Errorf("failed to create headless output: %w", err)
		}
		out.SetLogger(app.logger.With(slog.String("output", "headless")))
		app.output = out
	} else {
		out, err := otoaudio.NewOutput(config.SampleRate, config.Channels, config.OutputBuffer)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio output: %w", err)
		}
		out.SetLogger(app.logger.With(slog.String("output", "oto")))
		app.output = out
	}

	// Step 5: Create services (with dependency injection)
	playbackCfg := service.DefaultPlaybackConfig()
	playbackCfg.VisualizationLength = config.VisualizationLength
	app.playbackService, err = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.engine,
		app.output,
		app.eventBus,
		playbackCfg,
	)
	if err != nil {
		_ = app.output.Close()
		return nil, fmt.Errorf("failed to create playback service: %w", err)
	}

	app.visualizationService = service.NewVisualizationService(
		app.logger.With(slog.String("service", "visualization")),
		app.playbackService.Visualization(),
		app.eventBus,
		config.RefreshInterval,
	)

	return app, nil
}

// outputPeriod returns the headless tick period.
func outputPeriod(config Config) time.Duration {
	if config.OutputBuffer > 0 {
		return config.OutputBuffer
	}
	return 10 * time.Millisecond
}

// Run starts playback and visualization and blocks until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.playbackService.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	if err := a.visualizationService.Start(); err != nil {
		if stopErr := a.playbackService.Stop(); stopErr != nil {
			a.logger.Warn("failed to stop playback", slog.Any("error", stopErr))
		}
		return fmt.Errorf("failed to start visualization: %w", err)
	}

	a.logger.Info("SIDTune started", slog.String("format", a.playbackService.Format().String()))

	subID := a.eventBus.Subscribe(domain.EventVisualizationUpdated, func(event domain.Event) {
		e := event.(domain.VisualizationUpdatedEvent)
		a.logger.Debug("levels",
			slog.Float64("peak", e.Frame.Peak),
			slog.Float64("rms", e.Frame.RMS))
	})
	defer a.eventBus.Unsubscribe(subID)

	<-ctx.Done()
	return nil
}

// Shutdown gracefully shuts down the application.
// It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown()
	})
	return a.shutdownErr
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down application")

	// Shutdown services (in reverse order of creation)
	if a.visualizationService != nil {
		if err := a.visualizationService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown visualization service", slog.Any("error", err))
		}
	}

	if a.playbackService != nil {
		if err := a.playbackService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown playback service", slog.Any("error", err))
		}
	}

	// Release the audio device
	if a.output != nil {
		if err := a.output.Close(); err != nil {
			return fmt.Errorf("failed to close audio output: %w", err)
		}
	}

	if err := a.eventBus.Close(); err != nil {
		a.logger.Warn("failed to close event bus", slog.Any("error", err))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// GetServices returns the application services.
func (a *Application) GetServices() (*service.PlaybackService, *service.VisualizationService) {
	return a.playbackService, a.visualizationService
}

// GetEventBus returns the application event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}
