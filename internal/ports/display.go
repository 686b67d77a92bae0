package ports

import (
	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// DisplayEventKind identifies what happened to a display.
type DisplayEventKind int

const (
	// DisplayQuit is emitted when the user closes the window or presses a quit key.
	DisplayQuit DisplayEventKind = iota + 1

	// DisplayResize is emitted when the drawable area changes size.
	DisplayResize
)

// DisplayEvent is a window or input event drained by the render loop.
type DisplayEvent struct {
	Kind   DisplayEventKind
	Width  int
	Height int
}

// Canvas is the drawing surface a bar renders onto.
type Canvas interface {
	// FillRect fills the axis aligned rectangle with the color.
	// Coordinates are in window units with the origin at the top left.
	FillRect(x, y, width, height float64, c domain.RGB)
}

// Display is an OS window owned by one render loop.
//
// All methods are called from the render goroutine only.
type Display interface {
	Canvas

	// Size returns the current drawable size.
	Size() (width, height int)

	// PollEvents returns all pending events without blocking.
	PollEvents() []DisplayEvent

	// Clear fills the whole frame with the color.
	Clear(c domain.RGB)

	// Present makes the drawn frame visible.
	Present() error

	// Close releases the window. Close is idempotent.
	Close() error
}

// DisplayFactory opens a new window with the given title and initial size.
type DisplayFactory func(title string, width, height int) (Display, error)
