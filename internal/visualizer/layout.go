package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// Default frequency band covered by the bars: 100 Hz steps from 100 Hz up to 8 kHz.
const (
	DefaultMinFrequency  = 100.0
	DefaultMaxFrequency  = 8000.0
	DefaultFrequencyStep = 100.0
)

// Frequencies returns evenly spaced frequencies from start up to but excluding stop.
func Frequencies(start, stop, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, domain.NewValidationError("frequency_step", step, "must be positive")
	}
	if !(stop > start) || math.IsInf(stop, 0) || math.IsInf(start, 0) {
		return nil, domain.NewValidationError("frequency_range", [2]float64{start, stop},
			"stop must be greater than start")
	}

	n := int(math.Ceil((stop - start) / step))
	freqs := make([]float64, 0, n)
	for i := range n {
		f := start + float64(i)*step
		if f >= stop {
			break
		}
		freqs = append(freqs, f)
	}
	return freqs, nil
}

// DefaultFrequencies returns the 79 frequencies 100, 200, ..., 7900 Hz.
func DefaultFrequencies() []float64 {
	freqs, _ := Frequencies(DefaultMinFrequency, DefaultMaxFrequency, DefaultFrequencyStep)
	return freqs
}

// BarX returns the left edge of bar i of n across a window width units wide.
func BarX(i, n, width int) float64 {
	return float64(i) * float64(width) / float64(n)
}

// BarWidth returns the width shared by n bars across width units.
func BarWidth(n, width int) float64 {
	return float64(width) / float64(n)
}
