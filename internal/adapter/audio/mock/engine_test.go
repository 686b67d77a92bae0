package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

func oneSecond() *domain.PCM {
	return &domain.PCM{SampleRate: 100, Channels: 1, Samples: make([]float32, 100)}
}

// TestPlayWithoutTrack tests that Play needs a loaded track.
func TestPlayWithoutTrack(t *testing.T) {
	engine := NewEngine()

	if err := engine.Play(); !errors.Is(err, domain.ErrNoTrackLoaded) {
		t.Errorf("Expected ErrNoTrackLoaded, got %v", err)
	}
	if engine.PlayCalls() != 1 {
		t.Errorf("Expected 1 play call, got %d", engine.PlayCalls())
	}
}

// TestLoadRejectsEmptyStream tests loading a stream without samples.
func TestLoadRejectsEmptyStream(t *testing.T) {
	engine := NewEngine()

	err := engine.Load(&domain.PCM{SampleRate: 44100, Channels: 2})
	if !errors.Is(err, domain.ErrEmptyAudio) {
		t.Errorf("Expected ErrEmptyAudio, got %v", err)
	}
	if err := engine.Load(nil); err == nil {
		t.Error("Expected error loading nil stream")
	}
}

// TestPlayOnlyOnce tests that a loaded track cannot be started twice.
func TestPlayOnlyOnce(t *testing.T) {
	engine := NewEngine()
	if err := engine.Load(oneSecond()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := engine.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !engine.IsPlaying() {
		t.Error("Engine should be playing")
	}
	if err := engine.Play(); !errors.Is(err, domain.ErrAlreadyPlaying) {
		t.Errorf("Expected ErrAlreadyPlaying, got %v", err)
	}
}

// TestPlayAfterStop tests that a stopped track cannot be restarted until reloaded.
func TestPlayAfterStop(t *testing.T) {
	engine := NewEngine()
	if err := engine.Load(oneSecond()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := engine.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := engine.Play(); !errors.Is(err, domain.ErrAlreadyPlaying) {
		t.Errorf("Expected ErrAlreadyPlaying after Stop, got %v", err)
	}

	if err := engine.Load(oneSecond()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := engine.Play(); err != nil {
		t.Errorf("Play after reload failed: %v", err)
	}
}

// TestAdvanceMovesClockAndEndsTrack tests the manual clock.
func TestAdvanceMovesClockAndEndsTrack(t *testing.T) {
	engine := NewEngine()
	if err := engine.Load(oneSecond()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	engine.Advance(250 * time.Millisecond)
	engine.Advance(-time.Second)
	if got := engine.Elapsed(); got != 250*time.Millisecond {
		t.Errorf("Expected 250ms elapsed, got %v", got)
	}

	select {
	case <-engine.Done():
		t.Fatal("Track should not have ended yet")
	default:
	}

	engine.Advance(2 * time.Second)
	if got := engine.Elapsed(); got != time.Second {
		t.Errorf("Expected clock to stop at the duration, got %v", got)
	}

	select {
	case <-engine.Done():
	default:
		t.Fatal("Done should be closed at the end of the track")
	}

	// Advancing past the end must not close Done twice
	engine.Advance(time.Second)
}

// TestLoadResetsClock tests that loading a new track restarts the clock.
func TestLoadResetsClock(t *testing.T) {
	engine := NewEngine()
	_ = engine.Load(oneSecond())
	engine.Advance(2 * time.Second)
	oldDone := engine.Done()

	if err := engine.Load(oneSecond()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if engine.Elapsed() != 0 {
		t.Errorf("Expected clock reset, got %v", engine.Elapsed())
	}
	if engine.Done() == oldDone {
		t.Error("Expected a fresh done channel")
	}
}

// TestFailureToggles tests the configurable error scenarios.
func TestFailureToggles(t *testing.T) {
	engine := NewEngine()

	engine.SetFailLoad(true)
	var engineErr *domain.AudioEngineError
	if err := engine.Load(oneSecond()); !errors.As(err, &engineErr) {
		t.Errorf("Expected AudioEngineError, got %v", err)
	}
	engine.SetFailLoad(false)

	_ = engine.Load(oneSecond())
	engine.SetFailPlay(true)
	if err := engine.Play(); !errors.Is(err, domain.ErrPlaybackFailed) {
		t.Errorf("Expected ErrPlaybackFailed, got %v", err)
	}

	engine.SetFailStop(true)
	if err := engine.Stop(); err == nil {
		t.Error("Expected Stop to fail")
	}
	if engine.StopCalls() != 1 {
		t.Errorf("Expected 1 stop call, got %d", engine.StopCalls())
	}
}

// TestRealtimeClock tests the wall clock mode.
func TestRealtimeClock(t *testing.T) {
	engine := NewRealtimeEngine()
	pcm := &domain.PCM{SampleRate: 1000, Channels: 1, Samples: make([]float32, 50)} // 50ms
	if err := engine.Load(pcm); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := engine.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	select {
	case <-engine.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Realtime track did not end")
	}

	if got := engine.Elapsed(); got != 50*time.Millisecond {
		t.Errorf("Expected clock frozen at 50ms, got %v", got)
	}
	if engine.IsPlaying() {
		t.Error("Engine should not be playing after the track ended")
	}
}

// TestRealtimeStopFreezesClock tests that Stop keeps the position reached.
func TestRealtimeStopFreezesClock(t *testing.T) {
	engine := NewRealtimeEngine()
	_ = engine.Load(oneSecond())
	_ = engine.Play()

	time.Sleep(10 * time.Millisecond)
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	frozen := engine.Elapsed()
	time.Sleep(10 * time.Millisecond)

	if frozen <= 0 || engine.Elapsed() != frozen {
		t.Errorf("Expected clock frozen at %v, got %v", frozen, engine.Elapsed())
	}

	select {
	case <-engine.Done():
		t.Error("Stopping must not end the track")
	default:
	}
}

// TestConcurrentElapsed tests reading the clock while it is advanced.
func TestConcurrentElapsed(t *testing.T) {
	engine := NewEngine()
	_ = engine.Load(&domain.PCM{SampleRate: 1000, Channels: 1, Samples: make([]float32, 100000)})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 1000 {
			engine.Advance(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		var last time.Duration
		for range 1000 {
			e := engine.Elapsed()
			if e < last {
				t.Errorf("Clock went backwards: %v < %v", e, last)
				return
			}
			last = e
		}
	}()
	wg.Wait()

	if engine.Elapsed() != time.Second {
		t.Errorf("Expected 1s elapsed, got %v", engine.Elapsed())
	}
}
