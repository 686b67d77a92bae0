package app

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/barviz/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/barviz/internal/config"
	"github.com/tejashwikalptaru/barviz/internal/domain"
)

func testConfig(t *testing.T, args ...string) Config {
	t.Helper()
	settings, err := config.Load(append([]string{"--mock-audio"}, args...), io.Discard)
	require.NoError(t, err)

	cfg := DefaultConfig(settings)
	cfg.LogOutput = io.Discard
	cfg.TestFyneApp = test.NewApp()
	t.Cleanup(cfg.TestFyneApp.Quit)
	return cfg
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.GetEventBus())
	assert.NotNil(t, app.GetVisualizer())
	assert.NotNil(t, app.GetFyneApp())
	assert.IsType(t, &mock.Engine{}, app.GetAudioEngine())

	assert.NoError(t, app.Shutdown())
}

func TestNewApplication_NoSettings(t *testing.T) {
	_, err := NewApplication(Config{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestApplication_RunMissingFile(t *testing.T) {
	app, err := NewApplication(testConfig(t, "/definitely/not/here.wav"))
	require.NoError(t, err)
	defer app.Shutdown()

	err = app.Run()
	require.Error(t, err)
	assert.True(t, domain.IsAnalysisError(err))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestApplication_ShutdownIsIdempotent(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	assert.NoError(t, app.Shutdown())
	assert.NoError(t, app.Shutdown())
}

func TestLoggerConfig(t *testing.T) {
	var buf bytes.Buffer

	lc := loggerConfig(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	assert.Equal(t, slog.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Same(t, &buf, lc.Output)

	t.Setenv("BARVIZ_LOG_LEVEL", "")
	lc = loggerConfig(config.LogConfig{Level: "chatty"}, nil)
	assert.Equal(t, slog.LevelInfo, lc.Level, "unknown levels keep the default")
	assert.Equal(t, "text", lc.Format)
}

func TestVersionInfo(t *testing.T) {
	v := VersionInfo{Version: "dev", GitCommit: "abc123", BuildTime: "now"}
	assert.Equal(t, "dev", v.String())
	assert.Equal(t, "barviz dev (commit: abc123, built: now)", v.FullString())

	v.GitTag = "v1.2.0"
	assert.Equal(t, "barviz v1.2.0 (commit: abc123, built: now)", v.FullString())
}
