package visualizer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// DecibelSource answers the level of a frequency at a point in time.
// *spectrogram.Spectrogram satisfies it.
type DecibelSource interface {
	Decibel(seconds, hz float64) float64
}

// DefaultLoopBounds are the bar limits used by the render loop: bars reach
// 400 units at 0 dB in an 800x600 window.
func DefaultLoopBounds() BarBounds {
	b := DefaultBarBounds()
	b.MaxHeight = 400
	return b
}

// Options configures a render loop. Zero values select the defaults.
type Options struct {
	// BarColor fills every bar
	BarColor domain.RGB

	// Background is cleared behind the bars every frame
	Background domain.RGB

	// Frequencies lists one target frequency per bar (default: DefaultFrequencies)
	Frequencies []float64

	// Bounds apply to every bar (default: DefaultLoopBounds)
	Bounds *BarBounds

	// Tau is the bar smoothing time constant in seconds (default: DefaultTau)
	Tau float64

	// FrameRate caps frames per second; 0 renders as fast as the display allows
	FrameRate int

	// Stop ends the loop when closed
	Stop <-chan struct{}

	// Finished ends the loop when closed, typically the engine's end of stream
	Finished <-chan struct{}

	// Now replaces the wall clock used for frame deltas
	Now func() time.Time
}

// Loop drives bars from a spectrogram and a playback clock onto a display.
//
// State machine: Idle -> Playing -> Stopped. Run may be called once.
type Loop struct {
	// Dependencies (injected)
	logger   *slog.Logger
	source   DecibelSource
	playback ports.Playback
	display  ports.Display
	bus      ports.EventBus

	// Configuration
	barColor   domain.RGB
	background domain.RGB
	frameRate  int
	stop       <-chan struct{}
	finished   <-chan struct{}
	now        func() time.Time

	// Frame state, owned by the Run goroutine
	bars     []*Bar
	width    int
	height   int
	barWidth float64
	frames   uint64

	mu       sync.Mutex
	state    domain.LoopState
	stopOnce sync.Once
}

// NewLoop creates an idle loop sized to the display's current drawable area.
// The bus may be nil.
func NewLoop(
	logger *slog.Logger,
	source DecibelSource,
	playback ports.Playback,
	display ports.Display,
	bus ports.EventBus,
	opts Options,
) (*Loop, error) {
	if source == nil || playback == nil || display == nil {
		return nil, domain.ErrNotInitialized
	}

	freqs := opts.Frequencies
	if len(freqs) == 0 {
		freqs = DefaultFrequencies()
	}
	bounds := DefaultLoopBounds()
	if opts.Bounds != nil {
		bounds = *opts.Bounds
	}
	tau := opts.Tau
	if tau == 0 {
		tau = DefaultTau
	}
	if opts.FrameRate < 0 {
		return nil, domain.NewValidationError("frame_rate", opts.FrameRate, "must not be negative")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	l := &Loop{
		logger:     logger,
		source:     source,
		playback:   playback,
		display:    display,
		bus:        bus,
		barColor:   opts.BarColor,
		background: opts.Background,
		frameRate:  opts.FrameRate,
		stop:       opts.Stop,
		finished:   opts.Finished,
		now:        now,
		state:      domain.LoopIdle,
	}

	l.width, l.height = clampSize(display.Size())
	l.barWidth = BarWidth(len(freqs), l.width)
	l.bars = make([]*Bar, len(freqs))
	for i, f := range freqs {
		bar, err := NewBar(BarX(i, len(freqs), l.width), f, opts.BarColor, bounds, tau)
		if err != nil {
			return nil, err
		}
		l.bars[i] = bar
	}

	logger.Debug("render loop created",
		slog.Int("bars", len(l.bars)),
		slog.Int("width", l.width),
		slog.Int("height", l.height),
		slog.String("bar_color", opts.BarColor.String()),
		slog.String("background", opts.Background.String()))

	return l, nil
}

// State returns the current lifecycle state.
func (l *Loop) State() domain.LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Bars returns the bars in left to right order.
// Read them only while the loop is not running.
func (l *Loop) Bars() []*Bar {
	out := make([]*Bar, len(l.bars))
	copy(out, l.bars)
	return out
}

// Size returns the window dimensions the bars are laid out for.
func (l *Loop) Size() (width, height int) {
	return l.width, l.height
}

// BarWidth returns the width shared by all bars.
func (l *Loop) BarWidth() float64 {
	return l.barWidth
}

// Frames returns the number of frames presented.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Run starts playback and renders until the window is closed, ctx is cancelled,
// Stop or Finished is closed, or presenting a frame fails.
// The display and the playback are released before Run returns.
//
// Closing the window and cancellation return nil.
// Returns domain.ErrLoopNotIdle if the loop already ran.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != domain.LoopIdle {
		l.mu.Unlock()
		return domain.ErrLoopNotIdle
	}
	l.state = domain.LoopPlaying
	l.mu.Unlock()

	if ctx.Err() != nil {
		l.shutdown(domain.StopReasonCancelled)
		return nil
	}

	l.display.Clear(l.background)
	if err := l.display.Present(); err != nil {
		l.shutdown(domain.StopReasonDisplayError)
		return domain.NewDisplayError("present", "failed to show first frame", err)
	}

	if err := l.playback.Play(); err != nil {
		l.logger.Error("failed to start playback", slog.Any("error", err))
		l.shutdown(domain.StopReasonPlaybackError)
		return fmt.Errorf("failed to start playback: %w", err)
	}

	l.logger.Info("visualization started", slog.Int("bars", len(l.bars)))
	l.publish(domain.NewVisualizationStartedEvent(len(l.bars), l.width, l.height))

	var tick <-chan time.Time
	if l.frameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(l.frameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	last := l.now()
	for {
		if reason, done := l.stopRequested(ctx); done {
			l.shutdown(reason)
			return nil
		}

		current := l.now()
		dt := current.Sub(last).Seconds()
		last = current

		for _, ev := range l.display.PollEvents() {
			switch ev.Kind {
			case ports.DisplayQuit:
				l.shutdown(domain.StopReasonWindowClosed)
				return nil
			case ports.DisplayResize:
				l.resize(ev.Width, ev.Height)
			}
		}

		if err := l.frame(dt); err != nil {
			l.logger.Error("failed to present frame", slog.Any("error", err))
			l.shutdown(domain.StopReasonDisplayError)
			return domain.NewDisplayError("present", "failed to present frame", err)
		}

		if tick == nil {
			runtime.Gosched()
			continue
		}
		select {
		case <-tick:
		case <-ctx.Done():
		case <-l.stop:
		case <-l.finished:
		}
	}
}

// frame updates every bar from the playback position and draws them.
func (l *Loop) frame(dt float64) error {
	elapsed := l.playback.Elapsed().Seconds()
	screenHeight := float64(l.height)

	for _, bar := range l.bars {
		bar.Update(dt, l.source.Decibel(elapsed, bar.Frequency()), screenHeight)
	}

	l.display.Clear(l.background)
	for _, bar := range l.bars {
		bar.Render(l.display, l.barWidth)
	}
	if err := l.display.Present(); err != nil {
		return err
	}
	l.frames++
	return nil
}

// resize lays the bars out across a new window size. The bar count never changes.
func (l *Loop) resize(width, height int) {
	l.width, l.height = clampSize(width, height)
	n := len(l.bars)
	for i, bar := range l.bars {
		bar.x = BarX(i, n, l.width)
	}
	l.barWidth = BarWidth(n, l.width)

	l.logger.Debug("window resized", slog.Int("width", l.width), slog.Int("height", l.height))
	l.publish(domain.NewVisualizationResizedEvent(l.width, l.height))
}

func (l *Loop) stopRequested(ctx context.Context) (domain.StopReason, bool) {
	select {
	case <-ctx.Done():
		return domain.StopReasonCancelled, true
	case <-l.stop:
		return domain.StopReasonCancelled, true
	case <-l.finished:
		return domain.StopReasonTrackEnded, true
	default:
		return "", false
	}
}

// shutdown releases playback and the display and enters LoopStopped. It runs once.
func (l *Loop) shutdown(reason domain.StopReason) {
	l.stopOnce.Do(func() {
		if err := l.playback.Stop(); err != nil {
			l.logger.Warn("failed to stop playback", slog.Any("error", err))
		}
		if err := l.display.Close(); err != nil {
			l.logger.Warn("failed to close display", slog.Any("error", err))
		}

		l.mu.Lock()
		l.state = domain.LoopStopped
		l.mu.Unlock()

		l.logger.Info("visualization stopped",
			slog.String("reason", string(reason)),
			slog.Uint64("frames", l.frames))
		l.publish(domain.NewVisualizationStoppedEvent(reason, l.frames))
	})
}

func (l *Loop) publish(event domain.Event) {
	if l.bus != nil {
		l.bus.Publish(event)
	}
}

func clampSize(width, height int) (int, int) {
	return max(width, 1), max(height, 1)
}
