// Package ports define interfaces for dependency inversion.
// These interfaces allow the visualization core to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// PlaybackClock is a read-only source of elapsed playback time.
// Implementations must answer Elapsed with a single lock-free read because it is
// called once per frame from the render goroutine while audio plays elsewhere.
type PlaybackClock interface {
	// Elapsed returns the time since playback began. It never decreases.
	Elapsed() time.Duration
}

// Playback is the part of an audio engine the render loop drives.
type Playback interface {
	PlaybackClock

	// Play starts streaming the loaded track from the beginning.
	// It must be called at most once per loaded track.
	//
	// Returns domain.ErrAlreadyPlaying on a second call.
	Play() error

	// Stop halts playback and releases the output stream. A loaded track that
	// was never played is released too and Play then returns domain.ErrNoTrackLoaded.
	// Stop is idempotent.
	Stop() error
}

// AudioEngine is the interface for audio playback engines.
// This abstracts the underlying audio library (oto) and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	Playback

	// Load prepares a decoded track for playback, replacing any previous one.
	// The previous track is stopped first.
	//
	// Returns an error if the stream format cannot be played.
	Load(pcm *domain.PCM) error

	// Done returns a channel that is closed when the loaded track has been played to the end.
	Done() <-chan struct{}

	// Shutdown releases all engine resources.
	Shutdown() error
}

// Decoder turns an audio file into PCM samples.
type Decoder interface {
	// Decode reads and fully decodes the file at path.
	//
	// Returns a *domain.AnalysisError if the file cannot be read or decoded.
	Decode(path string) (*domain.PCM, error)

	// ReadMetadata extracts descriptive information without decoding audio.
	// It never fails; missing tags fall back to the file name.
	ReadMetadata(path string) domain.TrackInfo
}
