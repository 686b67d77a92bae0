// Package domain defines domain-specific errors.
// These errors represent visualizer failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that components can return.
var (
	// ErrEmptyAudio is returned when a track decodes to zero samples.
	ErrEmptyAudio = errors.New("audio contains no samples")

	// ErrInvalidSampleRate is returned when the sample rate is not positive.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilePath is returned when a file path is empty or points to a directory.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrNoTrackLoaded is returned when playback is attempted with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrAlreadyPlaying is returned when playback of a loaded track is started twice.
	ErrAlreadyPlaying = errors.New("playback already started")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrLoopNotIdle is returned when Run is called on a loop that already ran.
	ErrLoopNotIdle = errors.New("render loop is not idle")

	// ErrVisualizationRunning is returned when a second visualization is requested
	// while one is still on screen.
	ErrVisualizationRunning = errors.New("a visualization is already running")

	// ErrDisplayClosed is returned when drawing on a display that was closed.
	ErrDisplayClosed = errors.New("display closed")
)

// AnalysisError is returned when audio cannot be turned into a spectrogram.
// It is raised once, before any window is shown.
type AnalysisError struct {
	Op      string // Operation that failed (e.g., "decode", "build")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("analysis %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("analysis %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(op, path, message string, err error) *AnalysisError {
	return &AnalysisError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// IsAnalysisError reports whether err carries an AnalysisError.
func IsAnalysisError(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "stop")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// DisplayError represents a failure of the window backend.
type DisplayError struct {
	Op      string // Operation that failed (e.g., "open", "present")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *DisplayError) Error() string {
	return fmt.Sprintf("display %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *DisplayError) Unwrap() error {
	return e.Err
}

// NewDisplayError creates a new DisplayError.
func NewDisplayError(op, message string, err error) *DisplayError {
	return &DisplayError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
