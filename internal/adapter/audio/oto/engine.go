// Package oto plays decoded tracks through the system audio device with
// github.com/ebitengine/oto/v3 and exposes the playback position as a clock.
package oto

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// clockInterval is how often the playback position is sampled from the device.
const clockInterval = 5 * time.Millisecond

var (
	sharedCtx      *oto.Context
	sharedRate     int
	sharedChannels int
	ctxOnce        sync.Once
	ctxErr         error
)

// audioContext returns the process wide output context. Only one can exist, so
// its format is fixed by the first track that is loaded.
func audioContext(sampleRate, channels int) (*oto.Context, error) {
	ctxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		}
		var ready chan struct{}
		sharedCtx, ready, ctxErr = oto.NewContext(op)
		if ctxErr == nil {
			<-ready
			sharedRate, sharedChannels = sampleRate, channels
		}
	})
	if ctxErr != nil {
		return nil, ctxErr
	}
	if sampleRate != sharedRate || channels != sharedChannels {
		return nil, fmt.Errorf("output is open at %d Hz with %d channels, track has %d Hz with %d channels: %w",
			sharedRate, sharedChannels, sampleRate, channels, domain.ErrUnsupportedFormat)
	}
	return sharedCtx, nil
}

// Engine is an AudioEngine backed by oto.
//
// Thread-safety: This implementation is thread-safe. Elapsed is lock-free.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Track state
	reader     *pcmReader
	player     *oto.Player
	channels   int
	sampleRate int
	duration   time.Duration
	playing    bool
	started    bool
	done       chan struct{}
	ended      bool
	mu         sync.Mutex

	// Position clock, written by the monitor goroutine
	elapsed atomic.Int64

	stopMonitor chan struct{}
	monitorWg   sync.WaitGroup
}

// NewEngine creates an engine. The audio device is opened on the first Load.
func NewEngine() *Engine {
	return &Engine{done: make(chan struct{})}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// Load prepares a track for playback, stopping the current one.
func (e *Engine) Load(pcm *domain.PCM) error {
	if pcm.Frames() == 0 {
		return domain.NewAudioEngineError("load", "stream has no samples", domain.ErrEmptyAudio)
	}
	if pcm.SampleRate <= 0 {
		return domain.NewAudioEngineError("load", "stream has no sample rate", domain.ErrInvalidSampleRate)
	}

	if _, err := audioContext(pcm.SampleRate, pcm.Channels); err != nil {
		return domain.NewAudioEngineError("load", "failed to open audio output", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	e.reader = newPCMReader(pcm.Samples[:pcm.Frames()*pcm.Channels])
	e.channels = pcm.Channels
	e.sampleRate = pcm.SampleRate
	e.duration = pcm.Duration()
	e.started = false
	e.ended = false
	e.done = make(chan struct{})
	e.elapsed.Store(0)

	e.debug("track loaded",
		slog.Int("sample_rate", pcm.SampleRate),
		slog.Int("channels", pcm.Channels),
		slog.Duration("duration", e.duration))
	return nil
}

// Play starts the loaded track from the beginning.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return domain.ErrAlreadyPlaying
	}
	if e.reader == nil {
		return domain.ErrNoTrackLoaded
	}

	ctx, err := audioContext(e.sampleRate, e.channels)
	if err != nil {
		return domain.NewAudioEngineError("play", "audio output unavailable", err)
	}

	e.player = ctx.NewPlayer(e.reader)
	e.player.Play()
	if err := e.player.Err(); err != nil {
		_ = e.player.Close()
		e.player = nil
		return domain.NewAudioEngineError("play", "failed to start output", err)
	}
	e.playing = true
	e.started = true

	e.stopMonitor = make(chan struct{})
	e.monitorWg.Add(1)
	go e.monitor(e.player, e.reader, e.stopMonitor, e.done)

	e.debug("playback started")
	return nil
}

// monitor samples the device position into the atomic clock and ends the track
// once every sample has been played.
func (e *Engine) monitor(player *oto.Player, reader *pcmReader, stop <-chan struct{}, done chan struct{}) {
	defer e.monitorWg.Done()

	bytesPerSecond := float64(e.sampleRate * e.channels * bytesPerSample)
	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		played := reader.consumed()*bytesPerSample - int64(player.BufferedSize())
		pos := time.Duration(float64(played) / bytesPerSecond * float64(time.Second))
		if pos > time.Duration(e.elapsed.Load()) {
			e.elapsed.Store(int64(pos))
		}

		if reader.exhausted() && player.BufferedSize() == 0 {
			e.mu.Lock()
			if e.done == done && !e.ended {
				e.ended = true
				e.elapsed.Store(int64(e.duration))
				close(done)
				e.debug("track ended")
			}
			e.mu.Unlock()
			return
		}
	}
}

// Elapsed returns the position of the audio that has reached the device.
func (e *Engine) Elapsed() time.Duration {
	return time.Duration(e.elapsed.Load())
}

// Done returns a channel that is closed when the loaded track has been played to the end.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Stop halts playback and releases the output stream and the loaded samples.
// Stop is idempotent.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.stopLocked()
	e.reader = nil
	return err
}

// Shutdown stops playback and forgets the loaded track.
// The process wide output context stays open for the next engine.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.stopLocked()
	e.reader = nil
	return err
}

func (e *Engine) stopLocked() error {
	if e.stopMonitor != nil {
		close(e.stopMonitor)
		e.stopMonitor = nil
		// The monitor takes mu when the track ends
		e.mu.Unlock()
		e.monitorWg.Wait()
		e.mu.Lock()
	}

	e.playing = false
	if e.player == nil {
		return nil
	}

	e.player.Pause()
	err := e.player.Close()
	e.player = nil
	if err != nil {
		return domain.NewAudioEngineError("stop", "failed to close output", err)
	}
	e.debug("playback stopped", slog.Duration("elapsed", e.Elapsed()))
	return nil
}

// IsPlaying reports whether the output stream is running.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

// Ensure Engine implements ports.AudioEngine
var _ ports.AudioEngine = (*Engine)(nil)
