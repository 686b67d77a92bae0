package fyne

import (
	"image"
	"image/draw"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// frameBuffer is an off-screen RGBA image drawn with gg.
type frameBuffer struct {
	img *image.RGBA
	dc  *gg.Context
}

func newFrameBuffer(width, height int) *frameBuffer {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &frameBuffer{img: img, dc: gg.NewContextForRGBA(img)}
}

func (f *frameBuffer) clear(c domain.RGB) {
	f.dc.SetColor(c)
	f.dc.Clear()
}

func (f *frameBuffer) fillRect(x, y, width, height float64, c domain.RGB) {
	if width <= 0 || height <= 0 {
		return
	}
	f.dc.SetColor(c)
	f.dc.DrawRectangle(x, y, width, height)
	f.dc.Fill()
}

// surfaceView is the widget showing the presented frame. It reports its size changes.
type surfaceView struct {
	widget.BaseWidget

	raster   *canvas.Raster
	onResize func(fyneapp.Size)
}

func newSurfaceView(generate func(w, h int) image.Image, onResize func(fyneapp.Size)) *surfaceView {
	v := &surfaceView{
		raster:   canvas.NewRaster(generate),
		onResize: onResize,
	}
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *surfaceView) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize lets the window shrink down to a single unit.
func (v *surfaceView) MinSize() fyneapp.Size {
	return fyneapp.NewSize(1, 1)
}

// Resize implements fyne.CanvasObject.
func (v *surfaceView) Resize(size fyneapp.Size) {
	v.BaseWidget.Resize(size)
	if v.onResize != nil {
		v.onResize(size)
	}
}

// Surface is a fyne window implementing ports.Display.
//
// Frames are drawn into a back buffer on the render goroutine and copied to the
// front buffer on Present; the raster only ever reads the front buffer.
type Surface struct {
	window fyneapp.Window
	view   *surfaceView
	logger *slog.Logger

	// Window events between two polls: only the latest size is kept and a quit
	// request stays set once made.
	pendingMu     sync.Mutex
	pending       bool
	pendingWidth  int
	pendingHeight int
	quit          atomic.Bool

	// render goroutine only
	back          *frameBuffer
	width, height int

	mu    sync.Mutex // guards front
	front *image.RGBA

	closed    atomic.Bool
	closeOnce sync.Once
}

// newSurface builds the surface around an already created window.
func newSurface(window fyneapp.Window, width, height int, logger *slog.Logger) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	s := &Surface{
		window: window,
		logger: logger,
		back:   newFrameBuffer(width, height),
		width:  width,
		height: height,
		front:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	s.view = newSurfaceView(s.generate, s.viewResized)

	window.SetPadded(false)
	window.SetContent(s.view)
	window.Resize(fyneapp.NewSize(float32(width), float32(height)))
	window.SetCloseIntercept(s.requestQuit)
	window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		switch ev.Name {
		case fyneapp.KeyEscape, fyneapp.KeyQ:
			s.requestQuit()
		}
	})
	return s
}

// NewSurfaceFactory returns a ports.DisplayFactory opening windows on app.
// Windows are created on the fyne main goroutine.
func NewSurfaceFactory(app fyneapp.App, logger *slog.Logger) ports.DisplayFactory {
	return func(title string, width, height int) (ports.Display, error) {
		if app == nil {
			return nil, domain.NewDisplayError("open", "no application to open a window on", domain.ErrNotInitialized)
		}

		var s *Surface
		fyneapp.DoAndWait(func() {
			window := app.NewWindow(title)
			s = newSurface(window, width, height, logger)
			window.Show()
		})

		logger.Info("window opened",
			slog.String("title", title),
			slog.Int("width", width),
			slog.Int("height", height))
		return s, nil
	}
}

// requestQuit records a close request. It is never dropped and stays set.
func (s *Surface) requestQuit() {
	if s.closed.Load() {
		return
	}
	if !s.quit.Swap(true) {
		s.logger.Debug("quit requested")
	}
}

// viewResized records the latest view size; earlier unpolled sizes are replaced.
func (s *Surface) viewResized(size fyneapp.Size) {
	w := int(math.Round(float64(size.Width)))
	h := int(math.Round(float64(size.Height)))
	if w <= 0 || h <= 0 || s.closed.Load() {
		return
	}
	s.pendingMu.Lock()
	s.pending, s.pendingWidth, s.pendingHeight = true, w, h
	s.pendingMu.Unlock()
}

// generate scales the front buffer to the raster's pixel size.
func (s *Surface) generate(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front == nil {
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), s.front, s.front.Bounds(), draw.Src, nil)
	return dst
}

// Size implements ports.Display.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// PollEvents implements ports.Display. It reports at most one resize, carrying
// the latest size, which also resizes the back buffer. A quit request is
// reported on every poll once made.
func (s *Surface) PollEvents() []ports.DisplayEvent {
	if s.closed.Load() {
		return nil
	}

	var out []ports.DisplayEvent

	s.pendingMu.Lock()
	resized, w, h := s.pending, s.pendingWidth, s.pendingHeight
	s.pending = false
	s.pendingMu.Unlock()

	if resized {
		s.resizeBuffer(w, h)
		out = append(out, ports.DisplayEvent{Kind: ports.DisplayResize, Width: w, Height: h})
	}
	if s.quit.Load() {
		out = append(out, ports.DisplayEvent{Kind: ports.DisplayQuit})
	}
	return out
}

func (s *Surface) resizeBuffer(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.back = newFrameBuffer(width, height)
}

// Clear implements ports.Display.
func (s *Surface) Clear(c domain.RGB) {
	s.back.clear(c)
}

// FillRect implements ports.Canvas.
func (s *Surface) FillRect(x, y, width, height float64, c domain.RGB) {
	s.back.fillRect(x, y, width, height, c)
}

// Present implements ports.Display.
//
// Returns domain.ErrDisplayClosed once the surface was closed.
func (s *Surface) Present() error {
	if s.closed.Load() {
		return domain.ErrDisplayClosed
	}

	s.mu.Lock()
	if s.front == nil || s.front.Bounds() != s.back.img.Bounds() {
		s.front = image.NewRGBA(s.back.img.Bounds())
	}
	copy(s.front.Pix, s.back.img.Pix)
	s.mu.Unlock()

	fyneapp.Do(s.view.raster.Refresh)
	return nil
}

// Close implements ports.Display. It is safe to call multiple times.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		fyneapp.DoAndWait(s.window.Close)
		s.logger.Debug("window closed")
	})
	return nil
}

var _ ports.Display = (*Surface)(nil)
