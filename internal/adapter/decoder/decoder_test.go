package decoder

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/logger"
)

func writeWAV(t *testing.T, name string, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func newTestDecoder() *Decoder {
	d := New()
	d.SetLogger(logger.NewTestLogger())
	return d
}

func TestDecode_WAV16Mono(t *testing.T) {
	data := make([]int, 800)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*440*float64(i)/8000))
	}
	data[0] = 32767
	data[1] = -32768
	path := writeWAV(t, "tone.wav", 8000, 16, 1, data)

	pcm, err := newTestDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, pcm.SampleRate)
	assert.Equal(t, 1, pcm.Channels)
	assert.Equal(t, 800, pcm.Frames())
	assert.InDelta(t, 0.1, pcm.Duration().Seconds(), 1e-9)
	assert.InDelta(t, 32767.0/32768, pcm.Samples[0], 1e-6)
	assert.Equal(t, float32(-1), pcm.Samples[1])
	assert.InDelta(t, float64(data[5])/32768, pcm.Samples[5], 1e-6)
}

func TestDecode_WAV8Stereo(t *testing.T) {
	// unsigned 8-bit: 128 is silence
	path := writeWAV(t, "stereo.WAV", 4000, 8, 2, []int{128, 255, 0, 128, 192, 64})

	pcm, err := newTestDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 3, pcm.Frames())
	assert.InDeltaSlice(t,
		[]float32{0, 127.0 / 128, -1, 0, 0.5, -0.5},
		pcm.Samples, 1e-6)
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "broken.mp3")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an mp3 frame"), 0o600))

	notWav := filepath.Join(dir, "fake.wav")
	require.NoError(t, os.WriteFile(notWav, []byte("RIFX0000"), 0o600))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty path", "", domain.ErrInvalidFilePath},
		{"missing file", filepath.Join(dir, "missing.wav"), domain.ErrFileNotFound},
		{"directory", dir, domain.ErrInvalidFilePath},
		{"unsupported extension", text, domain.ErrUnsupportedFormat},
		{"corrupt mp3", garbage, nil},
		{"corrupt wav", notWav, nil},
	}

	d := newTestDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := d.Decode(tt.path)
			assert.Nil(t, pcm)
			require.Error(t, err)
			assert.True(t, domain.IsAnalysisError(err), "got %T", err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for _, ext := range SupportedFormats() {
		assert.True(t, IsSupported("song"+ext))
	}
	assert.True(t, IsSupported("/music/Song.FLAC"))
	assert.False(t, IsSupported("song.aac"))
	assert.False(t, IsSupported("song"))
}

func TestReadMetadata_FallsBackToFileName(t *testing.T) {
	path := writeWAV(t, "My Song.wav", 8000, 16, 1, []int{0, 1, 2})

	info := newTestDecoder().ReadMetadata(path)
	assert.Equal(t, path, info.FilePath)
	assert.Equal(t, "My Song", info.Title)
	assert.Equal(t, ".wav", info.FileFormat)
	assert.Empty(t, info.Artist)
	assert.Equal(t, "My Song", info.DisplayName())
}

func TestReadMetadata_MissingFile(t *testing.T) {
	info := newTestDecoder().ReadMetadata("/does/not/exist/Track.MP3")
	assert.Equal(t, "Track", info.Title)
	assert.Equal(t, ".mp3", info.FileFormat)
}
