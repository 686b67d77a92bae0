package spectrogram

import (
	"math"
	"sync"
)

// DefaultSampleRate is the rate tracks are analyzed at unless configured otherwise.
const DefaultSampleRate = 22050

const (
	// kernelZeros is the number of sinc zero crossings on each side of the
	// interpolation kernel.
	kernelZeros = 16

	// kernelResolution is the number of table entries per zero crossing.
	kernelResolution = 512
)

// kernel holds one half of a Hann windowed sinc, sampled kernelResolution times
// per zero crossing. kernel[i] is the value at i/kernelResolution crossings.
var kernel = sync.OnceValue(func() []float64 {
	n := kernelZeros*kernelResolution + 1
	table := make([]float64, n+1) // trailing zero lets lookups read i+1
	for i := range n {
		x := float64(i) / kernelResolution
		w := 0.5 * (1 + math.Cos(math.Pi*x/kernelZeros))
		table[i] = sinc(x) * w
	}
	return table
})

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// kernelAt returns the kernel value at x zero crossings from its center.
func kernelAt(table []float64, x float64) float64 {
	x = math.Abs(x) * kernelResolution
	i := int(x)
	if i >= len(table)-1 {
		return 0
	}
	frac := x - float64(i)
	return table[i] + frac*(table[i+1]-table[i])
}

// downsample converts a mono signal from srcRate to the lower dstRate.
//
// Every output sample is the input convolved with a low-pass kernel cut at the
// new Nyquist frequency, evaluated at the output instant, so content above it
// is removed instead of folding back into the analyzed band.
func downsample(samples []float64, srcRate, dstRate, workers int) []float64 {
	ratio := float64(srcRate) / float64(dstRate)
	out := make([]float64, int(math.Ceil(float64(len(samples))/ratio)))
	if len(out) == 0 {
		return out
	}

	table := kernel()
	scale := 1 / ratio
	half := kernelZeros * ratio // kernel half width in input samples

	if workers > len(out) {
		workers = len(out)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(out) + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < len(out); lo += chunk {
		hi := min(lo+chunk, len(out))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				center := float64(i) * ratio
				first := max(int(math.Ceil(center-half)), 0)
				last := min(int(math.Floor(center+half)), len(samples)-1)

				var acc float64
				for k := first; k <= last; k++ {
					acc += samples[k] * kernelAt(table, (float64(k)-center)*scale)
				}
				out[i] = acc * scale
			}
		}()
	}
	wg.Wait()
	return out
}
