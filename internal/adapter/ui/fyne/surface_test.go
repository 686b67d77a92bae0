package fyne

import (
	"image/color"
	"testing"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/logger"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

var (
	red  = domain.RGB{R: 255}
	blue = domain.RGB{B: 255}
)

func rgbaOf(c domain.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func newTestSurface(t *testing.T, width, height int) *Surface {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	s := newSurface(app.NewWindow("test"), width, height, logger.NewTestLogger())
	s.PollEvents() // drop the layout resize
	return s
}

func TestFrameBuffer_ClearAndFill(t *testing.T) {
	fb := newFrameBuffer(4, 4)
	fb.clear(red)
	fb.fillRect(0, 0, 2, 4, blue)

	assert.Equal(t, rgbaOf(blue), fb.img.RGBAAt(0, 0))
	assert.Equal(t, rgbaOf(blue), fb.img.RGBAAt(1, 3))
	assert.Equal(t, rgbaOf(red), fb.img.RGBAAt(2, 0))
	assert.Equal(t, rgbaOf(red), fb.img.RGBAAt(3, 3))
}

func TestFrameBuffer_EmptyRectIsIgnored(t *testing.T) {
	fb := newFrameBuffer(2, 2)
	fb.clear(red)
	fb.fillRect(0, 0, 0, 2, blue)
	fb.fillRect(0, 0, 2, -1, blue)

	assert.Equal(t, rgbaOf(red), fb.img.RGBAAt(0, 0))
}

func TestSurface_InitialSize(t *testing.T) {
	s := newTestSurface(t, 40, 30)
	w, h := s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestSurface_PresentPublishesFrame(t *testing.T) {
	s := newTestSurface(t, 4, 4)

	s.Clear(red)
	s.FillRect(0, 0, 2, 4, blue)
	// Not visible until presented.
	assert.Equal(t, color.RGBA{}, s.front.RGBAAt(0, 0))

	require.NoError(t, s.Present())
	assert.Equal(t, rgbaOf(blue), s.front.RGBAAt(0, 0))
	assert.Equal(t, rgbaOf(red), s.front.RGBAAt(3, 0))

	img := s.generate(8, 8)
	assert.Equal(t, rgbaOf(blue), img.At(1, 1))
	assert.Equal(t, rgbaOf(red), img.At(7, 7))
}

func TestSurface_ResizeEvent(t *testing.T) {
	s := newTestSurface(t, 40, 30)

	s.view.Resize(fyneapp.NewSize(80, 60))
	events := s.PollEvents()
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, ports.DisplayResize, last.Kind)
	assert.Equal(t, 80, last.Width)
	assert.Equal(t, 60, last.Height)

	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 60, h)
	assert.Equal(t, 80, s.back.img.Bounds().Dx())

	assert.Empty(t, s.PollEvents(), "events are drained")
}

func TestSurface_QuitKeys(t *testing.T) {
	for _, key := range []fyneapp.KeyName{fyneapp.KeyEscape, fyneapp.KeyQ} {
		t.Run(string(key), func(t *testing.T) {
			s := newTestSurface(t, 10, 10)
			s.window.Canvas().OnTypedKey()(&fyneapp.KeyEvent{Name: key})

			events := s.PollEvents()
			require.Len(t, events, 1)
			assert.Equal(t, ports.DisplayQuit, events[0].Kind)
		})
	}
}

func TestSurface_OtherKeysIgnored(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	s.window.Canvas().OnTypedKey()(&fyneapp.KeyEvent{Name: fyneapp.KeySpace})
	assert.Empty(t, s.PollEvents())
}

func TestSurface_ResizesAreCoalesced(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	for i := 1; i <= 200; i++ {
		s.view.Resize(fyneapp.NewSize(float32(10+i), 20))
	}

	events := s.PollEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ports.DisplayEvent{Kind: ports.DisplayResize, Width: 210, Height: 20}, events[0])
}

func TestSurface_CloseRequestSurvivesResizeBurst(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	for i := 1; i <= 500; i++ {
		s.view.Resize(fyneapp.NewSize(float32(10+i), float32(10+i)))
	}
	s.requestQuit() // what the close button does

	events := s.PollEvents()
	require.Len(t, events, 2)
	assert.Equal(t, ports.DisplayResize, events[0].Kind)
	assert.Equal(t, ports.DisplayQuit, events[1].Kind)

	// Still reported on the next poll.
	assert.Equal(t, []ports.DisplayEvent{{Kind: ports.DisplayQuit}}, s.PollEvents())
}

func TestSurface_CloseIsIdempotent(t *testing.T) {
	s := newTestSurface(t, 10, 10)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Present(), domain.ErrDisplayClosed)

	s.requestQuit()
	assert.Empty(t, s.PollEvents(), "closed surfaces take no events")
}

func TestNewSurfaceFactory_NoApp(t *testing.T) {
	factory := NewSurfaceFactory(nil, logger.NewTestLogger())
	_, err := factory("x", 10, 10)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestNewSurfaceFactory_OpensWindow(t *testing.T) {
	app := test.NewApp()
	t.Cleanup(app.Quit)

	display, err := NewSurfaceFactory(app, logger.NewTestLogger())("song", 32, 24)
	require.NoError(t, err)
	t.Cleanup(func() { _ = display.Close() })

	w, h := display.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}
