// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/barviz/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/barviz/internal/adapter/audio/oto"
	"github.com/tejashwikalptaru/barviz/internal/adapter/decoder"
	"github.com/tejashwikalptaru/barviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/barviz/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/barviz/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/barviz/internal/config"
	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/logger"
	"github.com/tejashwikalptaru/barviz/internal/ports"
	"github.com/tejashwikalptaru/barviz/internal/service"
	"github.com/tejashwikalptaru/barviz/internal/spectrogram"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	fyneApp  fyne.App
	settings *config.Config

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine
	decoder     *decoder.Decoder
	analyzer    *spectrogram.Analyzer

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Services
	visualizer *service.VisualizerService

	// UI, created by Run when no audio file was given
	launcher *fyneui.Launcher

	// Lifecycle management
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// Settings are the resolved user settings (flags, environment, config file)
	Settings *config.Config

	// LogOutput receives log records (nil for stderr)
	LogOutput io.Writer

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration for the given settings.
func DefaultConfig(settings *config.Config) Config {
	return Config{
		AppID:    "io.github.barviz",
		Settings: settings,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("no settings: %w", domain.ErrNotInitialized)
	}
	settings := cfg.Settings

	app := &Application{settings: settings}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	// Step 1: Create logger
	app.logger = logger.NewLogger(loggerConfig(settings.Log, cfg.LogOutput))
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus.SubscribeAll(app.logEvent)

	// Step 3: Create the decoder and analyzer
	app.decoder = decoder.New()
	app.decoder.SetLogger(app.logger.With(slog.String("component", "decoder")))

	analyzer, err := spectrogram.NewAnalyzer(settings.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	analyzer.SetLogger(app.logger.With(slog.String("component", "analyzer")))
	app.analyzer = analyzer

	// Step 4: Create an audio engine
	if settings.MockAudio {
		engine := mock.NewRealtimeEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.audioEngine = engine
	} else {
		engine := oto.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "oto")))
		app.audioEngine = engine
	}

	// Step 5: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 6: Create repositories
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())

	// Step 7: Create the visualizer service
	frequencies, err := settings.Bars.Frequencies()
	if err != nil {
		return nil, err
	}
	bounds := settings.Bars.Bounds
	app.visualizer = service.NewVisualizerService(
		app.logger.With(slog.String("service", "visualizer")),
		app.decoder,
		app.analyzer,
		app.audioEngine,
		app.eventBus,
		fyneui.NewSurfaceFactory(app.fyneApp, app.logger.With(slog.String("component", "surface"))),
		service.Settings{
			Width:         settings.Window.Width,
			Height:        settings.Window.Height,
			Frequencies:   frequencies,
			Bounds:        &bounds,
			Tau:           settings.Bars.Tau,
			FrameRate:     settings.FrameRate,
			CloseOnFinish: settings.CloseOnFinish,
		},
	)

	return app, nil
}

func loggerConfig(cfg config.LogConfig, out io.Writer) logger.Config {
	lc := logger.DefaultConfig()
	if level, ok := logger.ParseLevel(cfg.Level); ok {
		lc.Level = level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	lc.Output = out
	return lc
}

// logEvent traces every bus event at debug level.
func (a *Application) logEvent(event domain.Event) {
	a.logger.Debug("event", slog.String("type", string(event.Type())))
}

// Run starts the application and blocks until it exits.
//
// With an audio path in the settings the visualization starts right away and the
// application quits when it stops; the visualization error is returned. Without
// one the launcher window is shown.
func (a *Application) Run() error {
	a.logger.Info("barviz started")

	if path := a.settings.AudioPath; path != "" {
		errCh := make(chan error, 1)
		go func() {
			errCh <- a.visualizer.Run(a.ctx, path, a.settings.BarColor, a.settings.BackgroundColor)
			fyne.Do(a.fyneApp.Quit) // queued until the event loop runs
		}()

		a.fyneApp.Run()
		a.cancel()
		return <-errCh
	}

	a.launcher = fyneui.NewLauncher(a.ctx, a.fyneApp, a.visualizer, a.eventBus, a.preferencesRepo,
		decoder.SupportedFormats(), a.logger.With(slog.String("component", "launcher")))

	// Configured colors win over the remembered ones
	if a.settings.BarColor != domain.DefaultBarColor {
		a.launcher.SetBarColor(a.settings.BarColor)
	}
	if a.settings.BackgroundColor != domain.DefaultBackgroundColor {
		a.launcher.SetBackgroundColor(a.settings.BackgroundColor)
	}
	a.launcher.Window().SetMaster()

	// Show and run UI (blocks until the launcher is closed)
	a.launcher.Show()
	a.fyneApp.Run()
	return nil
}

// Shutdown stops any running visualization and releases the audio engine.
// It is safe to call multiple times.
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")
		a.cancel()

		if a.audioEngine != nil {
			if shutdownErr := a.audioEngine.Shutdown(); shutdownErr != nil {
				a.logger.Warn("failed to shutdown audio engine", slog.Any("error", shutdownErr))
				err = shutdownErr
			}
		}
		if closeErr := a.eventBus.Close(); closeErr != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", closeErr))
		}

		a.logger.Info("application shutdown complete")
	})
	return err
}

// GetEventBus returns the application event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetVisualizer returns the visualizer service.
func (a *Application) GetVisualizer() ports.Visualizer {
	return a.visualizer
}

// GetAudioEngine returns the audio engine.
func (a *Application) GetAudioEngine() ports.AudioEngine {
	return a.audioEngine
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}
