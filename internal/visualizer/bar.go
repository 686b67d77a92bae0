// Package visualizer animates frequency bars over a spectrogram in sync with playback.
package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// DefaultTau is the smoothing time constant of a bar, in seconds.
const DefaultTau = 0.1

// BarBounds are the height and decibel limits a bar maps between.
type BarBounds struct {
	MinHeight  float64
	MaxHeight  float64
	MinDecibel float64
	MaxDecibel float64
}

// DefaultBarBounds returns 10..100 units of height for -80..0 dB.
func DefaultBarBounds() BarBounds {
	return BarBounds{MinHeight: 10, MaxHeight: 100, MinDecibel: -80, MaxDecibel: 0}
}

// Validate checks that the bounds describe a usable mapping.
func (b BarBounds) Validate() error {
	if math.IsNaN(b.MinHeight) || math.IsNaN(b.MaxHeight) || b.MinHeight < 0 || b.MaxHeight < b.MinHeight {
		return domain.NewValidationError("bar_height", [2]float64{b.MinHeight, b.MaxHeight},
			"heights must satisfy 0 <= min <= max")
	}
	if math.IsNaN(b.MinDecibel) || math.IsNaN(b.MaxDecibel) || b.MaxDecibel == b.MinDecibel {
		return domain.NewValidationError("bar_decibel", [2]float64{b.MinDecibel, b.MaxDecibel},
			"decibel range must not be empty")
	}
	return nil
}

// ratio is the height gained per decibel.
func (b BarBounds) ratio() float64 {
	return (b.MaxHeight - b.MinHeight) / (b.MaxDecibel - b.MinDecibel)
}

// Bar is one vertical indicator bound to a single frequency.
// A bar is owned by one goroutine; it has no internal locking.
type Bar struct {
	x         float64
	y         float64
	frequency float64
	color     domain.RGB
	height    float64
	bounds    BarBounds
	tau       float64
	ratio     float64
}

// NewBar creates a bar at horizontal position x starting at its minimum height.
func NewBar(x, frequency float64, color domain.RGB, bounds BarBounds, tau float64) (*Bar, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if !(tau > 0) || math.IsInf(tau, 1) {
		return nil, domain.NewValidationError("tau", tau, "must be a positive duration in seconds")
	}
	return &Bar{
		x:         x,
		frequency: frequency,
		color:     color,
		height:    bounds.MinHeight,
		bounds:    bounds,
		tau:       tau,
		ratio:     bounds.ratio(),
	}, nil
}

// X returns the left edge of the bar.
func (b *Bar) X() float64 { return b.x }

// Y returns the top of the bar's maximum extent.
func (b *Bar) Y() float64 { return b.y }

// Frequency returns the frequency the bar follows, in Hz.
func (b *Bar) Frequency() float64 { return b.frequency }

// Height returns the current height, always within the bar's bounds.
func (b *Bar) Height() float64 { return b.height }

// Color returns the fill color.
func (b *Bar) Color() domain.RGB { return b.color }

// Bounds returns the limits the bar was created with.
func (b *Bar) Bounds() BarBounds { return b.bounds }

// Update moves the bar toward the height matching decibel and anchors it to the
// bottom of a screen that is screenHeight tall.
//
// The target height is not clamped, only the result is, so a bar near its limit
// still moves quickly toward it. A negative dt counts as zero.
func (b *Bar) Update(dt, decibel, screenHeight float64) {
	if !(dt > 0) {
		dt = 0
	}

	desired := decibel*b.ratio + b.bounds.MaxHeight
	b.y = screenHeight - b.bounds.MaxHeight

	velocity := (desired - b.height) / b.tau
	height := b.height + velocity*dt
	if math.IsNaN(height) {
		return
	}
	b.height = clamp(b.bounds.MinHeight, b.bounds.MaxHeight, height)
}

// Render fills the bar's rectangle, growing upward from the bottom of its extent.
func (b *Bar) Render(canvas ports.Canvas, width float64) {
	canvas.FillRect(b.x, b.y+b.bounds.MaxHeight-b.height, width, b.height, b.color)
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
