// Package domain defines events for the event-driven architecture.
// Events let the surrounding shell follow a visualization without callbacks.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Analysis events
	EventAnalysisCompleted EventType = "analysis.completed"
	EventAnalysisFailed    EventType = "analysis.failed"

	// Visualization lifecycle events
	EventVisualizationStarted EventType = "visualization.started"
	EventVisualizationResized EventType = "visualization.resized"
	EventVisualizationStopped EventType = "visualization.stopped"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// AnalysisCompletedEvent is published when a spectrogram has been built for a track.
type AnalysisCompletedEvent struct {
	baseEvent
	Track    TrackInfo
	Bins     int
	Frames   int
	Duration time.Duration
	Elapsed  time.Duration // time spent decoding and analyzing
}

// Type returns the event type.
func (e AnalysisCompletedEvent) Type() EventType {
	return EventAnalysisCompleted
}

// NewAnalysisCompletedEvent creates a new AnalysisCompletedEvent.
func NewAnalysisCompletedEvent(track TrackInfo, bins, frames int, duration, elapsed time.Duration) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Bins:      bins,
		Frames:    frames,
		Duration:  duration,
		Elapsed:   elapsed,
	}
}

// AnalysisFailedEvent is published when decoding or analysis rejects a track.
type AnalysisFailedEvent struct {
	baseEvent
	FilePath string
	Error    error
}

// Type returns the event type.
func (e AnalysisFailedEvent) Type() EventType {
	return EventAnalysisFailed
}

// NewAnalysisFailedEvent creates a new AnalysisFailedEvent.
func NewAnalysisFailedEvent(path string, err error) AnalysisFailedEvent {
	return AnalysisFailedEvent{
		baseEvent: newBaseEvent(),
		FilePath:  path,
		Error:     err,
	}
}

// VisualizationStartedEvent is published on the Idle to Playing transition.
type VisualizationStartedEvent struct {
	baseEvent
	Bars   int
	Width  int
	Height int
}

// Type returns the event type.
func (e VisualizationStartedEvent) Type() EventType {
	return EventVisualizationStarted
}

// NewVisualizationStartedEvent creates a new VisualizationStartedEvent.
func NewVisualizationStartedEvent(bars, width, height int) VisualizationStartedEvent {
	return VisualizationStartedEvent{
		baseEvent: newBaseEvent(),
		Bars:      bars,
		Width:     width,
		Height:    height,
	}
}

// VisualizationResizedEvent is published after the bars were laid out for a new window size.
type VisualizationResizedEvent struct {
	baseEvent
	Width  int
	Height int
}

// Type returns the event type.
func (e VisualizationResizedEvent) Type() EventType {
	return EventVisualizationResized
}

// NewVisualizationResizedEvent creates a new VisualizationResizedEvent.
func NewVisualizationResizedEvent(width, height int) VisualizationResizedEvent {
	return VisualizationResizedEvent{
		baseEvent: newBaseEvent(),
		Width:     width,
		Height:    height,
	}
}

// VisualizationStoppedEvent is published once window and audio have been released.
type VisualizationStoppedEvent struct {
	baseEvent
	Reason StopReason
	Frames uint64
}

// Type returns the event type.
func (e VisualizationStoppedEvent) Type() EventType {
	return EventVisualizationStopped
}

// NewVisualizationStoppedEvent creates a new VisualizationStoppedEvent.
func NewVisualizationStoppedEvent(reason StopReason, frames uint64) VisualizationStoppedEvent {
	return VisualizationStoppedEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
		Frames:    frames,
	}
}
