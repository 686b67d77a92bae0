package spectrogram

import (
	"math"
)

// Spectrogram is an immutable grid of decibel magnitudes indexed by frequency bin
// and time frame. All methods are read-only and safe for concurrent use.
type Spectrogram struct {
	cells []float32 // bins*frames, bin major

	bins       int
	frames     int
	sampleRate int
	hopLength  int
	fftSize    int
	floor      float64

	timeIndexRatio      float64
	frequencyIndexRatio float64
}

// Bins returns the number of frequency rows.
func (s *Spectrogram) Bins() int { return s.bins }

// Frames returns the number of time columns.
func (s *Spectrogram) Frames() int { return s.frames }

// SampleRate returns the sample rate of the analyzed signal.
func (s *Spectrogram) SampleRate() int { return s.sampleRate }

// TimeIndexRatio returns frames per second of audio.
func (s *Spectrogram) TimeIndexRatio() float64 { return s.timeIndexRatio }

// FrequencyIndexRatio returns bins per Hz.
func (s *Spectrogram) FrequencyIndexRatio() float64 { return s.frequencyIndexRatio }

// Floor returns the lowest value any cell can hold.
func (s *Spectrogram) Floor() float64 { return s.floor }

// Ceiling returns the value of the loudest cell.
func (s *Spectrogram) Ceiling() float64 { return 0 }

// BinFrequency returns the center frequency of row k in Hz.
func (s *Spectrogram) BinFrequency(k int) float64 {
	return float64(k) * float64(s.sampleRate) / float64(s.fftSize)
}

// FrameTime returns the center time of column j in seconds.
func (s *Spectrogram) FrameTime(j int) float64 {
	return (float64(j*s.hopLength) + float64(s.fftSize/2)) / float64(s.sampleRate)
}

// At returns the cell at (bin, frame), clamping both indices into range.
func (s *Spectrogram) At(bin, frame int) float64 {
	bin = clampIndex(bin, s.bins)
	frame = clampIndex(frame, s.frames)
	return float64(s.cells[bin*s.frames+frame])
}

// Decibel returns the level of the cell nearest to (seconds, hz).
// Out of range, negative, infinite and NaN inputs are clamped to the closest edge,
// so the result always lies in [Floor(), Ceiling()]. Neighboring cells are not
// interpolated.
func (s *Spectrogram) Decibel(seconds, hz float64) float64 {
	bin := nearestIndex(hz*s.frequencyIndexRatio, s.bins)
	frame := nearestIndex(seconds*s.timeIndexRatio, s.frames)
	return float64(s.cells[bin*s.frames+frame])
}

func nearestIndex(pos float64, n int) int {
	if math.IsNaN(pos) || pos <= 0 {
		return 0
	}
	if pos >= float64(n-1) {
		return n - 1
	}
	return int(math.Round(pos))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
