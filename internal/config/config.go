// Package config loads visualizer settings from defaults, an optional config file,
// BARVIZ_* environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/spectrogram"
	"github.com/tejashwikalptaru/barviz/internal/visualizer"
)

// EnvPrefix is prepended to every environment variable, e.g. BARVIZ_BAR_COLOR.
const EnvPrefix = "BARVIZ"

// ErrHelp is returned by Load when --help was requested.
var ErrHelp = pflag.ErrHelp

// Config holds all configuration for the application
type Config struct {
	AudioPath       string
	BarColor        domain.RGB
	BackgroundColor domain.RGB
	Window          WindowConfig
	Analysis        spectrogram.Config
	Bars            BarsConfig
	FrameRate       int
	CloseOnFinish   bool
	MockAudio       bool
	ShowVersion     bool
	Log             LogConfig
}

// WindowConfig holds the initial visualization window size
type WindowConfig struct {
	Width  int
	Height int
}

// BarsConfig holds the bar layout and animation settings
type BarsConfig struct {
	MinFrequency  float64
	MaxFrequency  float64
	FrequencyStep float64
	Bounds        visualizer.BarBounds
	Tau           float64
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Frequencies returns the bar frequencies described by the configuration.
func (b BarsConfig) Frequencies() ([]float64, error) {
	return visualizer.Frequencies(b.MinFrequency, b.MaxFrequency, b.FrequencyStep)
}

func setDefaults(v *viper.Viper) {
	analysis := spectrogram.DefaultConfig()
	bounds := visualizer.DefaultLoopBounds()

	v.SetDefault("audio", "")
	v.SetDefault("bar-color", domain.DefaultBarColor.String())
	v.SetDefault("background-color", domain.DefaultBackgroundColor.String())
	v.SetDefault("width", 800)
	v.SetDefault("height", 600)
	v.SetDefault("hop-length", analysis.HopLength)
	v.SetDefault("fft-size", analysis.FFTSize)
	v.SetDefault("top-db", analysis.TopDB)
	v.SetDefault("analysis-rate", analysis.SampleRate)
	v.SetDefault("workers", 0)
	v.SetDefault("min-frequency", visualizer.DefaultMinFrequency)
	v.SetDefault("max-frequency", visualizer.DefaultMaxFrequency)
	v.SetDefault("frequency-step", visualizer.DefaultFrequencyStep)
	v.SetDefault("min-height", bounds.MinHeight)
	v.SetDefault("max-height", bounds.MaxHeight)
	v.SetDefault("min-decibel", bounds.MinDecibel)
	v.SetDefault("max-decibel", bounds.MaxDecibel)
	v.SetDefault("tau", visualizer.DefaultTau)
	v.SetDefault("frame-rate", 60)
	v.SetDefault("close-on-finish", false)
	v.SetDefault("mock-audio", false)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
}

// NewFlagSet declares the command line flags. Flag defaults are left empty so
// that unset flags never hide values from the config file or environment.
func NewFlagSet(name string, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	fs.String("config", "", "path to a config file (yaml, toml or json)")
	fs.StringP("audio", "a", "", "audio file to visualize; opens the launcher when empty")
	fs.String("bar-color", "", "bar color as #rrggbb or rgb(r, g, b) (default "+domain.DefaultBarColor.String()+")")
	fs.String("background-color", "", "background color (default "+domain.DefaultBackgroundColor.String()+")")
	fs.Int("width", 0, "initial window width (default 800)")
	fs.Int("height", 0, "initial window height (default 600)")
	fs.Int("hop-length", 0, "samples between analysis frames (default 512)")
	fs.Int("fft-size", 0, "analysis window length in samples (default 8192)")
	fs.Float64("top-db", 0, "dynamic range below the loudest point (default 80)")
	fs.Int("analysis-rate", 0, "sample rate faster tracks are analyzed at (default 22050)")
	fs.Int("workers", 0, "goroutines used for analysis (default: one per CPU)")
	fs.Float64("min-frequency", 0, "frequency of the first bar in Hz (default 100)")
	fs.Float64("max-frequency", 0, "frequency limit of the bars in Hz, exclusive (default 8000)")
	fs.Float64("frequency-step", 0, "spacing between bar frequencies in Hz (default 100)")
	fs.Float64("min-height", 0, "bar height at the quietest level (default 10)")
	fs.Float64("max-height", 0, "bar height at the loudest level (default 400)")
	fs.Float64("min-decibel", 0, "level mapped to the minimum height (default -80)")
	fs.Float64("max-decibel", 0, "level mapped to the maximum height (default 0)")
	fs.Float64("tau", 0, "bar smoothing time constant in seconds (default 0.1)")
	fs.Int("frame-rate", 0, "frames per second, 0 for uncapped (default 60)")
	fs.Bool("close-on-finish", false, "close the window when the track ends")
	fs.Bool("mock-audio", false, "use a silent synthetic clock instead of the audio device")
	fs.String("log-level", "", "debug, info, warn or error (default info)")
	fs.String("log-format", "", "text or json (default text)")
	fs.BoolP("version", "v", false, "print the version and exit")
	return fs
}

// Load parses args (without the program name) and resolves the configuration.
// A single positional argument is taken as the audio path.
func Load(args []string, output io.Writer) (*Config, error) {
	fs := NewFlagSet("barviz", output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// Only flags set on the command line override the other sources
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}
		bindErr = errors.Join(bindErr, v.BindPFlag(f.Name, f))
	})
	if bindErr != nil {
		return nil, bindErr
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if fs.Changed("audio") {
			return nil, errors.New("audio path given both as flag and argument")
		}
		v.Set("audio", fs.Arg(0))
	default:
		return nil, fmt.Errorf("expected at most one audio file, got %d arguments", fs.NArg())
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.ShowVersion, _ = fs.GetBool("version")
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	barColor, err := ParseColor(v.GetString("bar-color"))
	if err != nil {
		return nil, fmt.Errorf("bar-color: %w", err)
	}
	background, err := ParseColor(v.GetString("background-color"))
	if err != nil {
		return nil, fmt.Errorf("background-color: %w", err)
	}

	cfg := &Config{
		AudioPath:       v.GetString("audio"),
		BarColor:        barColor,
		BackgroundColor: background,
		Window: WindowConfig{
			Width:  v.GetInt("width"),
			Height: v.GetInt("height"),
		},
		Analysis: spectrogram.Config{
			HopLength:  v.GetInt("hop-length"),
			FFTSize:    v.GetInt("fft-size"),
			TopDB:      v.GetFloat64("top-db"),
			Amin:       spectrogram.DefaultConfig().Amin,
			SampleRate: v.GetInt("analysis-rate"),
			Workers:    v.GetInt("workers"),
		},
		Bars: BarsConfig{
			MinFrequency:  v.GetFloat64("min-frequency"),
			MaxFrequency:  v.GetFloat64("max-frequency"),
			FrequencyStep: v.GetFloat64("frequency-step"),
			Bounds: visualizer.BarBounds{
				MinHeight:  v.GetFloat64("min-height"),
				MaxHeight:  v.GetFloat64("max-height"),
				MinDecibel: v.GetFloat64("min-decibel"),
				MaxDecibel: v.GetFloat64("max-decibel"),
			},
			Tau: v.GetFloat64("tau"),
		},
		FrameRate:     v.GetInt("frame-rate"),
		CloseOnFinish: v.GetBool("close-on-finish"),
		MockAudio:     v.GetBool("mock-audio"),
		Log: LogConfig{
			Level:  v.GetString("log-level"),
			Format: strings.ToLower(v.GetString("log-format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting that has a constrained range.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return domain.NewValidationError("window", fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height),
			"width and height must be positive")
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if _, err := c.Bars.Frequencies(); err != nil {
		return err
	}
	if err := c.Bars.Bounds.Validate(); err != nil {
		return err
	}
	if !(c.Bars.Tau > 0) {
		return domain.NewValidationError("tau", c.Bars.Tau, "must be positive")
	}
	if c.FrameRate < 0 {
		return domain.NewValidationError("frame-rate", c.FrameRate, "must not be negative")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return domain.NewValidationError("log-format", c.Log.Format, "must be text or json")
	}
	return nil
}

// ParseColor reads "#rgb", "#rrggbb", "rrggbb" or "rgb(r, g, b)" / "rgba(r, g, b, a)".
// Alpha is ignored.
func ParseColor(s string) (domain.RGB, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "rgb") {
		open := strings.IndexByte(lower, '(')
		if open < 0 || !strings.HasSuffix(lower, ")") {
			return domain.RGB{}, fmt.Errorf("invalid color %q", s)
		}
		parts := strings.Split(lower[open+1:len(lower)-1], ",")
		if len(parts) != 3 && len(parts) != 4 {
			return domain.RGB{}, fmt.Errorf("invalid color %q: expected 3 or 4 channels", s)
		}
		var ch [3]uint8
		for i := range ch {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || n < 0 || n > 255 {
				return domain.RGB{}, fmt.Errorf("invalid color %q: channel %d must be 0-255", s, i+1)
			}
			ch[i] = uint8(n)
		}
		return domain.RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
	}

	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return domain.RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return domain.RGB{R: r, G: g, B: b}, nil
}
