// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the barviz visualizer.
package domain

import (
	"time"
)

// PCM is a fully decoded audio stream held in memory.
// Samples are interleaved float32 values in [-1, 1].
type PCM struct {
	// SampleRate is the number of sample frames per second
	SampleRate int

	// Channels is the number of interleaved channels (1 = mono, 2 = stereo)
	Channels int

	// Samples holds Frames()*Channels interleaved values
	Samples []float32
}

// Frames returns the number of sample frames in the stream.
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the playback length of the stream.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(p.Frames()) / float64(p.SampleRate) * float64(time.Second))
}

// Mono averages all channels into a single float64 signal for analysis.
func (p *PCM) Mono() []float64 {
	frames := p.Frames()
	if frames == 0 {
		return nil
	}

	mono := make([]float64, frames)
	if p.Channels == 1 {
		for i, s := range p.Samples[:frames] {
			mono[i] = float64(s)
		}
		return mono
	}

	scale := 1.0 / float64(p.Channels)
	for i := range frames {
		var sum float64
		base := i * p.Channels
		for ch := 0; ch < p.Channels; ch++ {
			sum += float64(p.Samples[base+ch])
		}
		mono[i] = sum * scale
	}
	return mono
}

// TrackInfo is the descriptive metadata of an audio file.
type TrackInfo struct {
	// FilePath is the path the track was read from
	FilePath string

	// Title is the song title (from tags or file name)
	Title string

	// Artist is the performing artist name, empty when unknown
	Artist string

	// Album is the album name, empty when unknown
	Album string

	// FileFormat is the lower-case file extension including the dot
	FileFormat string
}

// DisplayName returns the text used for window titles.
func (t TrackInfo) DisplayName() string {
	if t.Artist != "" && t.Title != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// LoopState is the lifecycle state of a render loop.
type LoopState int

const (
	// LoopIdle means the loop is constructed but has not shown a frame
	LoopIdle LoopState = iota

	// LoopPlaying means frames are being rendered and audio is streaming
	LoopPlaying

	// LoopStopped is terminal; window and audio have been released
	LoopStopped
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopPlaying:
		return "playing"
	case LoopStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason explains why a render loop entered LoopStopped.
type StopReason string

const (
	StopReasonWindowClosed  StopReason = "window_closed"
	StopReasonCancelled     StopReason = "cancelled"
	StopReasonTrackEnded    StopReason = "track_ended"
	StopReasonDisplayError  StopReason = "display_error"
	StopReasonPlaybackError StopReason = "playback_error"
)
