// Package decoder reads audio files fully into memory as float32 PCM.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// wavFormatFloat is the WAVE format tag of IEEE float samples.
const wavFormatFloat = 3

// decodeFunc decodes an opened file into interleaved float32 samples.
type decodeFunc func(f *os.File) (*domain.PCM, error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeOGG,
	".flac": decodeFLAC,
}

// SupportedFormats returns the file extensions Decode accepts.
func SupportedFormats() []string {
	return []string{".flac", ".mp3", ".ogg", ".wav"}
}

// IsSupported reports whether the file extension of path can be decoded.
func IsSupported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Decoder decodes WAV, MP3, Ogg Vorbis and FLAC files by extension.
type Decoder struct {
	logger *slog.Logger
}

// New creates a decoder.
func New() *Decoder {
	return &Decoder{}
}

// SetLogger sets the logger for this decoder.
func (d *Decoder) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Decode reads the whole file at path.
//
// Every failure is a *domain.AnalysisError wrapping one of domain.ErrInvalidFilePath,
// domain.ErrFileNotFound, domain.ErrUnsupportedFormat, domain.ErrEmptyAudio or the
// codec's own error.
func (d *Decoder) Decode(path string) (*domain.PCM, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, domain.NewAnalysisError("decode", path,
			fmt.Sprintf("unsupported format %q", ext), domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewAnalysisError("decode", path, "failed to open file", err)
	}
	defer f.Close()

	start := time.Now()
	pcm, err := decode(f)
	if err != nil {
		return nil, domain.NewAnalysisError("decode", path, err.Error(), err)
	}
	if pcm.Frames() == 0 {
		return nil, domain.NewAnalysisError("decode", path, "file contains no audio", domain.ErrEmptyAudio)
	}
	if pcm.SampleRate <= 0 {
		return nil, domain.NewAnalysisError("decode", path,
			fmt.Sprintf("invalid sample rate %d", pcm.SampleRate), domain.ErrInvalidSampleRate)
	}

	if d.logger != nil {
		d.logger.Debug("decoded audio",
			slog.String("file_path", path),
			slog.Int("sample_rate", pcm.SampleRate),
			slog.Int("channels", pcm.Channels),
			slog.Duration("duration", pcm.Duration()),
			slog.Duration("elapsed", time.Since(start)))
	}
	return pcm, nil
}

func checkPath(path string) error {
	if path == "" {
		return domain.NewAnalysisError("decode", path, "empty file path", domain.ErrInvalidFilePath)
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewAnalysisError("decode", path, "file does not exist", domain.ErrFileNotFound)
	}
	if err != nil {
		return domain.NewAnalysisError("decode", path, "failed to stat file", err)
	}
	if info.IsDir() {
		return domain.NewAnalysisError("decode", path, "path is a directory", domain.ErrInvalidFilePath)
	}
	return nil
}

func decodeWAV(f *os.File) (*domain.PCM, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if dec.WavAudioFormat == wavFormatFloat {
		return nil, fmt.Errorf("floating point WAV: %w", domain.ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	scale := 1 / float32(int64(1)<<(bitDepth-1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = float32(v) * scale
	}

	return &domain.PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}

func decodeMP3(f *os.File) (*domain.PCM, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	// go-mp3 always produces 16-bit little endian stereo
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float32(v) / 32768
	}

	return &domain.PCM{SampleRate: dec.SampleRate(), Channels: 2, Samples: samples}, nil
}

func decodeOGG(f *os.File) (*domain.PCM, error) {
	samples, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &domain.PCM{SampleRate: format.SampleRate, Channels: format.Channels, Samples: samples}, nil
}

func decodeFLAC(f *os.File) (*domain.PCM, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if info.BitsPerSample == 0 || channels == 0 {
		return nil, errors.New("FLAC stream has no samples")
	}
	scale := 1 / float32(int64(1)<<(info.BitsPerSample-1))
	samples := make([]float32, 0, int(info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding FLAC frame: %w", err)
		}

		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			for ch := range channels {
				samples = append(samples, float32(frame.Subframes[ch].Samples[i])*scale)
			}
		}
	}

	return &domain.PCM{SampleRate: int(info.SampleRate), Channels: channels, Samples: samples}, nil
}

// Ensure Decoder implements ports.Decoder
var _ ports.Decoder = (*Decoder)(nil)
