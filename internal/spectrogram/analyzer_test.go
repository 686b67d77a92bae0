package spectrogram

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/logger"
)

func sine(freq float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func newTestAnalyzer(t *testing.T, cfg Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg)
	require.NoError(t, err)
	a.SetLogger(logger.NewTestLogger())
	return a
}

func TestBuild_RejectsDegenerateInput(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	s, err := a.Build(nil, 22050)
	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, domain.IsAnalysisError(err))
	assert.ErrorIs(t, err, domain.ErrEmptyAudio)

	s, err = a.Build([]float64{0.1, 0.2}, 0)
	assert.Nil(t, s)
	assert.True(t, domain.IsAnalysisError(err))
	assert.ErrorIs(t, err, domain.ErrInvalidSampleRate)

	_, err = a.Build([]float64{0.1}, -44100)
	assert.ErrorIs(t, err, domain.ErrInvalidSampleRate)

	_, err = a.BuildPCM(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyAudio)

	_, err = a.BuildPCM(&domain.PCM{SampleRate: 44100, Channels: 2})
	assert.ErrorIs(t, err, domain.ErrEmptyAudio)
}

func TestBuild_Dimensions(t *testing.T) {
	a := newTestAnalyzer(t, Config{HopLength: 4, FFTSize: 16, TopDB: 80, Amin: 1e-5, Workers: 2})

	s, err := a.Build([]float64{0, 1, 0, -1, 0, 1, 0, -1, 0, 1}, 8000)
	require.NoError(t, err)

	assert.Equal(t, 9, s.Bins())
	assert.Equal(t, 3, s.Frames())
	assert.Equal(t, 8000, s.SampleRate())
	assert.InDelta(t, 9.0/4000.0, s.FrequencyIndexRatio(), 1e-12)

	maxTime := (2.0*4 + 8) / 8000
	assert.InDelta(t, 3/maxTime, s.TimeIndexRatio(), 1e-9)
	assert.InDelta(t, 500.0, s.BinFrequency(1), 1e-9)
	assert.InDelta(t, 4000.0, s.BinFrequency(8), 1e-9)
	assert.InDelta(t, 8.0/8000, s.FrameTime(0), 1e-12)
	assert.Equal(t, -80.0, s.Floor())
}

func TestBuild_SineScenario(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	s, err := a.Build(sine(440, 22050, 1), 22050)
	require.NoError(t, err)

	assert.Equal(t, 4097, s.Bins())
	assert.Equal(t, 44, s.Frames())

	assert.InDelta(t, 0, s.Decibel(0.5, 440), 3, "tone should read close to the loudest level")
	assert.InDelta(t, -80, s.Decibel(0.5, 8000), 1, "far from the tone should sit at the floor")
}

func TestBuild_LoudestCellIsZero(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	samples := sine(1000, 16000, 0.5)
	for i := range samples {
		samples[i] *= 0.25
	}
	s, err := a.Build(samples, 16000)
	require.NoError(t, err)

	loudest := math.Inf(-1)
	quietest := math.Inf(1)
	for _, c := range s.cells {
		loudest = math.Max(loudest, float64(c))
		quietest = math.Min(quietest, float64(c))
	}
	assert.Equal(t, 0.0, loudest)
	assert.GreaterOrEqual(t, quietest, -80.0)
}

func TestBuild_LoudnessLocalization(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	const tone = 1000.0
	s, err := a.Build(sine(tone, 44100, 1), 44100)
	require.NoError(t, err)

	for _, far := range []float64{300, 2500, 6100, 12000} {
		assert.Greater(t, s.Decibel(0.5, tone), s.Decibel(0.5, far)+20,
			"%v Hz should be much quieter than the tone", far)
	}
}

func TestBuild_SilenceStaysAtFloor(t *testing.T) {
	a := newTestAnalyzer(t, Config{HopLength: 256, FFTSize: 1024, TopDB: 60, Amin: 1e-5})

	s, err := a.Build(make([]float64, 4000), 8000)
	require.NoError(t, err)

	for _, c := range s.cells {
		require.Equal(t, float32(-60), c)
	}
	assert.Equal(t, -60.0, s.Decibel(0.1, 1000))
}

func TestDecibel_ClampsOutOfRange(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	s, err := a.Build(sine(440, 22050, 1), 22050)
	require.NoError(t, err)

	last := s.Frames() - 1
	top := s.Bins() - 1

	assert.Equal(t, s.At(0, 0), s.Decibel(-5, -100))
	assert.Equal(t, s.At(top, last), s.Decibel(1e9, 1e9))
	assert.Equal(t, s.At(top, last), s.Decibel(math.Inf(1), math.Inf(1)))
	assert.Equal(t, s.At(0, 0), s.Decibel(math.Inf(-1), math.Inf(-1)))
	assert.Equal(t, s.At(0, 0), s.Decibel(math.NaN(), math.NaN()))
	assert.Equal(t, s.At(0, last), s.Decibel(1e9, 0))

	assert.Equal(t, s.At(0, 0), s.At(-1, -1))
	assert.Equal(t, s.At(top, last), s.At(top+10, last+10))
}

func TestDecibel_AlwaysWithinRange(t *testing.T) {
	a := newTestAnalyzer(t, Config{HopLength: 128, FFTSize: 512, TopDB: 80, Amin: 1e-5})

	rng := rand.New(rand.NewSource(7))
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}
	s, err := a.Build(samples, 8000)
	require.NoError(t, err)

	special := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 0, 1e12}
	check := func(tm, f float64) {
		db := s.Decibel(tm, f)
		require.False(t, math.IsNaN(db))
		require.GreaterOrEqual(t, db, -80.0)
		require.LessOrEqual(t, db, 0.0)
	}

	for range 2000 {
		check(rng.Float64()*4-1, rng.Float64()*10000-1000)
	}
	for _, tm := range special {
		for _, f := range special {
			check(tm, f)
		}
	}
}

func TestBuild_WorkerCountDoesNotChangeResult(t *testing.T) {
	samples := sine(523.25, 22050, 0.4)

	cfg := Config{HopLength: 256, FFTSize: 2048, TopDB: 80, Amin: 1e-5, Workers: 1}
	one, err := newTestAnalyzer(t, cfg).Build(samples, 22050)
	require.NoError(t, err)

	cfg.Workers = 5
	many, err := newTestAnalyzer(t, cfg).Build(samples, 22050)
	require.NoError(t, err)

	assert.Equal(t, one.cells, many.cells)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero hop", Config{HopLength: 0, FFTSize: 8, TopDB: 80, Amin: 1e-5}, "hop_length"},
		{"odd fft", Config{HopLength: 4, FFTSize: 9, TopDB: 80, Amin: 1e-5}, "fft_size"},
		{"tiny fft", Config{HopLength: 4, FFTSize: 0, TopDB: 80, Amin: 1e-5}, "fft_size"},
		{"no range", Config{HopLength: 4, FFTSize: 8, TopDB: 0, Amin: 1e-5}, "top_db"},
		{"nan range", Config{HopLength: 4, FFTSize: 8, TopDB: math.NaN(), Amin: 1e-5}, "top_db"},
		{"zero amin", Config{HopLength: 4, FFTSize: 8, TopDB: 80}, "amin"},
		{"negative rate", Config{HopLength: 4, FFTSize: 8, TopDB: 80, Amin: 1e-5, SampleRate: -1}, "sample_rate"},
		{"negative workers", Config{HopLength: 4, FFTSize: 8, TopDB: 80, Amin: 1e-5, Workers: -1}, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			a, err := NewAnalyzer(tt.cfg)
			assert.Nil(t, a)
			assert.Error(t, err)
		})
	}
}

func TestPeriodicHann(t *testing.T) {
	w := periodicHann(8)
	require.Len(t, w, 8)
	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 1, w[4], 1e-12)
	assert.InDelta(t, w[1], w[7], 1e-12)
}

func TestBuildPCM_DownsamplesFastStreams(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	// 440 Hz plus a 15 kHz tone that would fold onto 7050 Hz without filtering.
	const rate = 44100
	low, high := sine(440, rate, 1), sine(15000, rate, 1)
	pcm := &domain.PCM{SampleRate: rate, Channels: 2, Samples: make([]float32, 2*rate)}
	for i := range low {
		v := float32(0.5*low[i] + 0.5*high[i])
		pcm.Samples[2*i], pcm.Samples[2*i+1] = v, v
	}

	s, err := a.BuildPCM(pcm)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, s.SampleRate())
	assert.Equal(t, 4097, s.Bins())

	assert.Greater(t, s.Decibel(0.5, 440), -6.0)
	assert.Less(t, s.Decibel(0.5, 7050), -30.0, "no alias of the 15 kHz tone")
}

func TestBuildPCM_KeepsSlowStreams(t *testing.T) {
	a := newTestAnalyzer(t, Config{HopLength: 128, FFTSize: 256, TopDB: 80, Amin: 1e-5, SampleRate: 22050})

	samples := sine(440, 8000, 0.5)
	pcm := &domain.PCM{SampleRate: 8000, Channels: 1, Samples: make([]float32, len(samples))}
	for i, v := range samples {
		pcm.Samples[i] = float32(v)
	}

	s, err := a.BuildPCM(pcm)
	require.NoError(t, err)
	assert.Equal(t, 8000, s.SampleRate())
}

func TestDownsample_PreservesLowFrequencies(t *testing.T) {
	in := sine(100, 48000, 0.1)
	out := downsample(in, 48000, 16000, 3)
	require.Len(t, out, 1600)

	want := sine(100, 16000, 0.1)
	// Away from the edges the band-limited copy matches the slower sine.
	for i := 100; i < 1500; i++ {
		assert.InDelta(t, want[i], out[i], 0.01, "sample %d", i)
	}
}

func TestDownsample_WorkerCountDoesNotChangeResult(t *testing.T) {
	in := sine(1234, 44100, 0.05)
	assert.Equal(t, downsample(in, 44100, 22050, 1), downsample(in, 44100, 22050, 7))
}
