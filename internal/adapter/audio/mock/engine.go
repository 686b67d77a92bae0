// Package mock provides a mock implementation of the AudioEngine interface.
// It plays nothing and exposes a synthetic playback clock, so the render loop can
// be tested and run headless without an audio device.
package mock

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// Engine is a mock implementation of the AudioEngine interface.
//
// By default the clock only moves through Advance. An engine created with
// NewRealtimeEngine follows the wall clock from Play instead.
//
// Thread-safety: This implementation is thread-safe. Elapsed is lock-free.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Configuration
	realtime bool

	// Track state
	loaded   bool
	playing  bool
	started  bool // Play succeeded for the loaded track
	duration atomic.Int64 // nanoseconds
	done     chan struct{}
	ended    bool
	timer    *time.Timer
	gen      int // bumped whenever a pending end of track becomes stale
	mu       sync.Mutex

	// Clock
	elapsed   atomic.Int64 // nanoseconds while stopped or in manual mode
	startedAt atomic.Int64 // unix nanoseconds of Play in realtime mode, 0 otherwise

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	failStop bool

	// Call counters
	playCalls int
	stopCalls int
}

// NewEngine creates a mock engine with a manually advanced clock.
func NewEngine() *Engine {
	return &Engine{done: make(chan struct{})}
}

// NewRealtimeEngine creates a mock engine whose clock follows the wall clock once
// playing and which reports the end of the track after its duration.
func NewRealtimeEngine() *Engine {
	e := NewEngine()
	e.realtime = true
	return e
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailStop configures the mock to fail stopping (for testing).
func (m *Engine) SetFailStop(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStop = fail
}

// Load prepares a track, replacing the current one. Only its duration is kept.
func (m *Engine) Load(pcm *domain.PCM) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLoad {
		return domain.NewAudioEngineError("load", "mock load failed", nil)
	}
	if pcm.Frames() == 0 {
		return domain.NewAudioEngineError("load", "stream has no samples", domain.ErrEmptyAudio)
	}

	m.stopLocked()
	m.loaded = true
	m.started = false
	m.ended = false
	m.done = make(chan struct{})
	m.duration.Store(int64(pcm.Duration()))
	m.elapsed.Store(0)

	m.debug("track loaded", slog.Duration("duration", pcm.Duration()))
	return nil
}

// Play starts the loaded track.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", "mock playback failed", domain.ErrPlaybackFailed)
	}
	if m.started {
		return domain.ErrAlreadyPlaying
	}

	m.started = true
	m.playing = true
	if m.realtime {
		m.startedAt.Store(time.Now().UnixNano())
		remaining := time.Duration(m.duration.Load()) - time.Duration(m.elapsed.Load())
		gen := m.gen
		m.timer = time.AfterFunc(remaining, func() { m.finish(gen) })
	}

	m.debug("playback started")
	return nil
}

// Stop halts playback and freezes the clock. A track that was never played is
// forgotten. Stop is idempotent.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopCalls++
	if m.failStop {
		return domain.NewAudioEngineError("stop", "mock stop failed", nil)
	}
	m.stopLocked()
	if !m.started {
		m.loaded = false
	}
	return nil
}

// Elapsed returns the synthetic playback position.
func (m *Engine) Elapsed() time.Duration {
	if started := m.startedAt.Load(); started != 0 {
		e := time.Duration(time.Now().UnixNano() - started)
		if d := time.Duration(m.duration.Load()); e > d {
			e = d
		}
		return e
	}
	return time.Duration(m.elapsed.Load())
}

// Advance moves a manual clock forward by d. When the clock reaches the track
// duration the track ends and Done is closed. Negative steps are ignored.
func (m *Engine) Advance(d time.Duration) {
	if d <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.realtime || !m.loaded {
		return
	}
	e := m.elapsed.Add(int64(d))
	if duration := m.duration.Load(); e >= duration {
		m.elapsed.Store(duration)
		m.endLocked()
	}
}

// Done returns a channel that is closed when the loaded track ends.
func (m *Engine) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Shutdown stops playback and forgets the loaded track.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.loaded = false
	return nil
}

// IsPlaying reports whether Play succeeded and Stop has not been called since.
func (m *Engine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// PlayCalls returns how many times Play was called.
func (m *Engine) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// StopCalls returns how many times Stop was called.
func (m *Engine) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Engine) finish(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.stopLocked()
	m.endLocked()
}

// stopLocked freezes a realtime clock at its current position.
func (m *Engine) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	if m.realtime && m.startedAt.Load() != 0 {
		m.elapsed.Store(int64(m.Elapsed()))
		m.startedAt.Store(0)
	}
	m.playing = false
}

func (m *Engine) endLocked() {
	if !m.ended {
		m.ended = true
		close(m.done)
		m.debug("track ended")
	}
}

func (m *Engine) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

// Ensure Engine implements ports.AudioEngine
var _ ports.AudioEngine = (*Engine)(nil)
