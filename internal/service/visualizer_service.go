// Package service provides the orchestration behind the barviz visualizer.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
	"github.com/tejashwikalptaru/barviz/internal/spectrogram"
	"github.com/tejashwikalptaru/barviz/internal/visualizer"
)

// Settings are the per-run parameters of a bar visualization.
type Settings struct {
	// Width and Height are the initial window size
	Width  int
	Height int

	// Frequencies lists one target frequency per bar (default: visualizer.DefaultFrequencies)
	Frequencies []float64

	// Bounds apply to every bar (default: visualizer.DefaultLoopBounds)
	Bounds *visualizer.BarBounds

	// Tau is the bar smoothing time constant in seconds
	Tau float64

	// FrameRate caps frames per second; 0 is uncapped
	FrameRate int

	// CloseOnFinish stops the visualization when the track has played to the end
	CloseOnFinish bool
}

// DefaultSettings returns an 800x600 window at 60 frames per second.
func DefaultSettings() Settings {
	return Settings{
		Width:     800,
		Height:    600,
		Tau:       visualizer.DefaultTau,
		FrameRate: 60,
	}
}

// VisualizerService runs bar visualizations of audio files.
// It implements ports.Visualizer; only one visualization may run at a time.
type VisualizerService struct {
	// Dependencies (injected)
	logger      *slog.Logger
	decoder     ports.Decoder
	analyzer    *spectrogram.Analyzer
	engine      ports.AudioEngine
	bus         ports.EventBus
	openDisplay ports.DisplayFactory

	settings Settings
	running  atomic.Bool
}

// NewVisualizerService creates a visualizer service.
func NewVisualizerService(
	logger *slog.Logger,
	decoder ports.Decoder,
	analyzer *spectrogram.Analyzer,
	engine ports.AudioEngine,
	bus ports.EventBus,
	openDisplay ports.DisplayFactory,
	settings Settings,
) *VisualizerService {
	logger.Debug("visualizer service initialized",
		slog.Int("width", settings.Width),
		slog.Int("height", settings.Height),
		slog.Int("frame_rate", settings.FrameRate))

	return &VisualizerService{
		logger:      logger,
		decoder:     decoder,
		analyzer:    analyzer,
		engine:      engine,
		bus:         bus,
		openDisplay: openDisplay,
		settings:    settings,
	}
}

// Running reports whether a visualization is on screen.
func (s *VisualizerService) Running() bool {
	return s.running.Load()
}

// Run decodes and analyzes the file, then plays it while animating bars until
// the window is closed or ctx is cancelled.
//
// Returns domain.ErrVisualizationRunning when another run is in progress, and a
// *domain.AnalysisError before any window is opened when the audio is unusable.
func (s *VisualizerService) Run(ctx context.Context, audioPath string, barColor, backgroundColor domain.RGB) error {
	if s.decoder == nil || s.analyzer == nil || s.engine == nil || s.openDisplay == nil {
		return domain.ErrNotInitialized
	}
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrVisualizationRunning
	}
	defer s.running.Store(false)

	log := s.logger.With(slog.String("file_path", audioPath))
	log.Info("preparing visualization")

	start := time.Now()
	pcm, err := s.decoder.Decode(audioPath)
	if err != nil {
		log.Error("failed to decode audio", slog.Any("error", err))
		s.publish(domain.NewAnalysisFailedEvent(audioPath, err))
		return err
	}

	spec, err := s.analyzer.BuildPCM(pcm)
	if err != nil {
		log.Error("failed to analyze audio", slog.Any("error", err))
		s.publish(domain.NewAnalysisFailedEvent(audioPath, err))
		return err
	}

	track := s.decoder.ReadMetadata(audioPath)
	s.publish(domain.NewAnalysisCompletedEvent(track, spec.Bins(), spec.Frames(), pcm.Duration(), time.Since(start)))

	if err := s.engine.Load(pcm); err != nil {
		log.Error("failed to load track", slog.Any("error", err))
		return err
	}

	display, err := s.openDisplay(track.DisplayName(), s.settings.Width, s.settings.Height)
	if err != nil {
		log.Error("failed to open window", slog.Any("error", err))
		s.releaseTrack(log)
		return err
	}

	opts := visualizer.Options{
		BarColor:    barColor,
		Background:  backgroundColor,
		Frequencies: s.settings.Frequencies,
		Bounds:      s.settings.Bounds,
		Tau:         s.settings.Tau,
		FrameRate:   s.settings.FrameRate,
	}
	if s.settings.CloseOnFinish {
		opts.Finished = s.engine.Done()
	}

	loop, err := visualizer.NewLoop(s.logger.With(slog.String("component", "render_loop")),
		spec, s.engine, display, s.bus, opts)
	if err != nil {
		if closeErr := display.Close(); closeErr != nil {
			log.Warn("failed to close window", slog.Any("error", closeErr))
		}
		s.releaseTrack(log)
		return err
	}

	return loop.Run(ctx)
}

// releaseTrack drops the loaded track when no render loop will play it.
func (s *VisualizerService) releaseTrack(log *slog.Logger) {
	if err := s.engine.Stop(); err != nil {
		log.Warn("failed to release track", slog.Any("error", err))
	}
}

func (s *VisualizerService) publish(event domain.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

var _ ports.Visualizer = (*VisualizerService)(nil)
