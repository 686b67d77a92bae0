package spectrogram

import (
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// periodicHann returns an n-point Hann window suited to spectral analysis.
// The symmetric window of n+1 points with its last point dropped is periodic in n.
func periodicHann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

// transform writes the STFT magnitude of every frame into cells (bin major) and
// returns the largest magnitude seen. Frames are striped across workers; each
// worker owns its FFT plan and buffers because fourier.FFT is not safe for
// concurrent use.
func (a *Analyzer) transform(samples []float64, cells []float32, frames, bins int) float64 {
	n := a.cfg.FFTSize
	hop := a.cfg.HopLength
	win := periodicHann(n)

	workers := a.workerCount(frames)

	peaks := make([]float64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			fft := fourier.NewFFT(n)
			buf := make([]float64, n)
			coeffs := make([]complex128, bins)
			var peak float64

			for j := w; j < frames; j += workers {
				fillFrame(buf, samples, win, j*hop-n/2)
				coeffs = fft.Coefficients(coeffs, buf)
				for k, c := range coeffs {
					m := float32(cmplx.Abs(c))
					cells[k*frames+j] = m
					if float64(m) > peak {
						peak = float64(m)
					}
				}
			}
			peaks[w] = peak
		}()
	}
	wg.Wait()

	var peak float64
	for _, p := range peaks {
		if p > peak {
			peak = p
		}
	}
	return peak
}

// fillFrame copies the windowed samples starting at offset into buf, zero padding
// positions that fall outside the signal.
func fillFrame(buf, samples, win []float64, offset int) {
	for k := range buf {
		i := offset + k
		if i < 0 || i >= len(samples) {
			buf[k] = 0
			continue
		}
		buf[k] = samples[i] * win[k]
	}
}
