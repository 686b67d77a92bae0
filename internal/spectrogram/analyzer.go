// Package spectrogram turns decoded audio into a time x frequency decibel matrix.
//
// A Spectrogram is built once per track, before playback starts, and is immutable
// afterwards so the render loop can query it every frame without locking.
package spectrogram

import (
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// Config holds the short-time Fourier transform parameters.
type Config struct {
	// HopLength is the number of samples between consecutive frames
	HopLength int

	// FFTSize is the window length in samples; it must be even
	FFTSize int

	// TopDB is the dynamic range kept below the loudest cell; quieter cells read -TopDB
	TopDB float64

	// Amin is the smallest magnitude considered before taking the logarithm
	Amin float64

	// SampleRate is the rate tracks are analyzed at. Faster streams are
	// downsampled first; 0 analyzes every stream at its own rate.
	SampleRate int

	// Workers is the number of goroutines computing frames (0 = one per CPU)
	Workers int
}

// DefaultConfig returns the parameters used for music: hop 512, FFT 8192, 80 dB
// range, analyzed at 22050 Hz.
func DefaultConfig() Config {
	return Config{
		HopLength:  512,
		FFTSize:    8192,
		TopDB:      80,
		Amin:       1e-5,
		SampleRate: DefaultSampleRate,
	}
}

// Validate checks that the parameters describe a usable transform.
func (c Config) Validate() error {
	if c.HopLength <= 0 {
		return domain.NewValidationError("hop_length", c.HopLength, "must be positive")
	}
	if c.FFTSize < 2 || c.FFTSize%2 != 0 {
		return domain.NewValidationError("fft_size", c.FFTSize, "must be an even number of at least 2")
	}
	if c.TopDB <= 0 || math.IsNaN(c.TopDB) {
		return domain.NewValidationError("top_db", c.TopDB, "must be positive")
	}
	if c.Amin <= 0 || math.IsNaN(c.Amin) {
		return domain.NewValidationError("amin", c.Amin, "must be positive")
	}
	if c.SampleRate < 0 {
		return domain.NewValidationError("sample_rate", c.SampleRate, "must not be negative")
	}
	if c.Workers < 0 {
		return domain.NewValidationError("workers", c.Workers, "must not be negative")
	}
	return nil
}

// Analyzer builds spectrograms with a fixed configuration.
// It is safe to call Build from several goroutines.
type Analyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer after validating cfg.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// SetLogger sets the logger for this analyzer.
// This should be called after construction before building spectrograms.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Build computes the decibel spectrogram of a mono signal.
//
// Frames are centered: frame j covers samples [j*hop - n/2, j*hop + n/2), zero padded
// outside the signal. Magnitudes are converted relative to the loudest cell of the
// whole track, which reads 0 dB.
//
// Returns a *domain.AnalysisError when samples is empty or sampleRate is not positive.
func (a *Analyzer) Build(samples []float64, sampleRate int) (*Spectrogram, error) {
	if len(samples) == 0 {
		return nil, domain.NewAnalysisError("build", "", "no samples to analyze", domain.ErrEmptyAudio)
	}
	if sampleRate <= 0 {
		return nil, domain.NewAnalysisError("build", "",
			"sample rate must be positive", domain.ErrInvalidSampleRate)
	}

	start := time.Now()
	n := a.cfg.FFTSize
	hop := a.cfg.HopLength
	bins := n/2 + 1
	frames := 1 + len(samples)/hop

	if a.logger != nil {
		a.logger.Debug("building spectrogram",
			slog.Int("samples", len(samples)),
			slog.Int("sample_rate", sampleRate),
			slog.Int("bins", bins),
			slog.Int("frames", frames))
	}

	cells := make([]float32, bins*frames)
	peak := a.transform(samples, cells, frames, bins)

	floor := -a.cfg.TopDB
	if peak <= a.cfg.Amin {
		// No loudest instant to refer to; a silent track stays at the floor.
		for i := range cells {
			cells[i] = float32(floor)
		}
	} else {
		refDB := 20 * math.Log10(peak)
		for i, m := range cells {
			cells[i] = float32(toDecibel(float64(m), refDB, a.cfg.Amin, floor))
		}
	}

	half := float64(n / 2)
	maxFrequency := float64(sampleRate) / 2
	maxTime := (float64((frames-1)*hop) + half) / float64(sampleRate)

	s := &Spectrogram{
		cells:               cells,
		bins:                bins,
		frames:              frames,
		sampleRate:          sampleRate,
		hopLength:           hop,
		fftSize:             n,
		floor:               floor,
		frequencyIndexRatio: float64(bins) / maxFrequency,
		timeIndexRatio:      float64(frames) / maxTime,
	}

	if a.logger != nil {
		a.logger.Info("spectrogram built",
			slog.Int("bins", bins),
			slog.Int("frames", frames),
			slog.Float64("time_index_ratio", s.timeIndexRatio),
			slog.Float64("frequency_index_ratio", s.frequencyIndexRatio),
			slog.Duration("elapsed", time.Since(start)))
	}

	return s, nil
}

// toDecibel converts a magnitude to dB relative to refDB, saturating at floor.
func toDecibel(magnitude, refDB, amin, floor float64) float64 {
	db := 20*math.Log10(math.Max(amin, magnitude)) - refDB
	if db < floor {
		return floor
	}
	return db
}

// BuildPCM downmixes a decoded stream to mono and builds its spectrogram.
// Streams faster than the configured analysis rate are downsampled to it; the
// stream itself is left untouched for playback.
func (a *Analyzer) BuildPCM(pcm *domain.PCM) (*Spectrogram, error) {
	if pcm == nil {
		return nil, domain.NewAnalysisError("build", "", "no audio stream", domain.ErrEmptyAudio)
	}

	samples, rate := pcm.Mono(), pcm.SampleRate
	if target := a.cfg.SampleRate; target > 0 && rate > target && len(samples) > 0 {
		start := time.Now()
		samples = downsample(samples, rate, target, a.workerCount(len(samples)))
		if a.logger != nil {
			a.logger.Debug("stream downsampled for analysis",
				slog.Int("from", rate),
				slog.Int("to", target),
				slog.Duration("elapsed", time.Since(start)))
		}
		rate = target
	}
	return a.Build(samples, rate)
}

// workerCount returns the number of goroutines to split jobs units of work over.
func (a *Analyzer) workerCount(jobs int) int {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > jobs {
		workers = jobs
	}
	return workers
}
