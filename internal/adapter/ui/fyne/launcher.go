// Package fyne adapts the fyne toolkit to the visualizer: the Surface the render
// loop draws on and the Launcher window used to start visualizations.
package fyne

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// Launcher window geometry.
const (
	APPNAME        = "barviz"
	LauncherWidth  = 420
	LauncherHeight = 260
)

var swatchSize = fyneapp.NewSize(48, 24)

// Launcher is the customizer window: it picks a file and two colors and starts
// a visualization with them.
type Launcher struct {
	app        fyneapp.App
	window     fyneapp.Window
	visualizer ports.Visualizer
	bus        ports.EventBus
	prefs      ports.PreferencesRepository
	logger     *slog.Logger
	extensions []string

	// UI components
	pathLabel   *widget.Label
	browse      *widget.Button
	barSwatch   *canvas.Rectangle
	barButton   *widget.Button
	bgSwatch    *canvas.Rectangle
	bgButton    *widget.Button
	startButton *widget.Button
	status      *widget.Label

	// State
	mu       sync.Mutex
	ctx      context.Context
	path     string
	barColor domain.RGB
	bgColor  domain.RGB
	running  bool

	// Lifecycle management
	closeOnce sync.Once
}

// NewLauncher creates the launcher window. Files are filtered by extensions.
//
// When prefs is not nil the launcher starts with the colors and file of the last
// visualization and remembers them for the next session.
func NewLauncher(
	ctx context.Context,
	app fyneapp.App,
	visualizer ports.Visualizer,
	bus ports.EventBus,
	prefs ports.PreferencesRepository,
	extensions []string,
	logger *slog.Logger,
) *Launcher {
	l := &Launcher{
		app:        app,
		visualizer: visualizer,
		bus:        bus,
		prefs:      prefs,
		logger:     logger,
		extensions: extensions,
		ctx:        ctx,
		barColor:   domain.DefaultBarColor,
		bgColor:    domain.DefaultBackgroundColor,
	}

	if prefs != nil {
		if bar, bg, ok := prefs.LoadColors(); ok {
			l.barColor, l.bgColor = bar, bg
		}
	}

	l.window = app.NewWindow(APPNAME)
	l.buildUI()
	l.window.Resize(fyneapp.NewSize(LauncherWidth, LauncherHeight))

	if prefs != nil {
		if last := prefs.LoadLastFile(); last != "" {
			if _, err := os.Stat(last); err == nil {
				l.SetAudioPath(last)
			}
		}
	}
	return l
}

func (l *Launcher) buildUI() {
	l.pathLabel = widget.NewLabel("No file selected")
	l.pathLabel.Truncation = fyneapp.TextTruncateEllipsis
	l.browse = widget.NewButton("Browse...", l.chooseFile)

	l.barSwatch = canvas.NewRectangle(l.barColor)
	l.barSwatch.SetMinSize(swatchSize)
	l.barButton = widget.NewButton("Bar color", func() {
		NewColorDialog(l.window, "Bar color", l.BarColor(), l.SetBarColor).Show()
	})

	l.bgSwatch = canvas.NewRectangle(l.bgColor)
	l.bgSwatch.SetMinSize(swatchSize)
	l.bgButton = widget.NewButton("Background color", func() {
		NewColorDialog(l.window, "Background color", l.BackgroundColor(), l.SetBackgroundColor).Show()
	})

	l.startButton = widget.NewButton("Visualize!", l.start)
	l.startButton.Importance = widget.HighImportance
	l.startButton.Disable()

	l.status = widget.NewLabel("")
	l.status.Wrapping = fyneapp.TextWrapWord

	title := widget.NewLabelWithStyle(APPNAME, fyneapp.TextAlignCenter, fyneapp.TextStyle{Bold: true})

	content := container.NewVBox(
		title,
		container.NewBorder(nil, nil, nil, l.browse, l.pathLabel),
		container.NewBorder(nil, nil, l.barSwatch, nil, l.barButton),
		container.NewBorder(nil, nil, l.bgSwatch, nil, l.bgButton),
		l.startButton,
		l.status,
	)
	l.window.SetContent(container.NewPadded(content))
}

func (l *Launcher) chooseFile() {
	NewFileDialog(l.window, l.extensions, l.SetAudioPath, l.logger).Show()
}

// SetAudioPath selects the file to visualize. Call it on the fyne goroutine.
func (l *Launcher) SetAudioPath(path string) {
	l.mu.Lock()
	l.path = path
	running := l.running
	l.mu.Unlock()

	l.pathLabel.SetText(filepath.Base(path))
	if path != "" && !running {
		l.startButton.Enable()
	}
	l.logger.Debug("audio file selected", slog.String("file_path", path))
}

// AudioPath returns the selected file.
func (l *Launcher) AudioPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetBarColor changes the color of the bars of the next visualization.
func (l *Launcher) SetBarColor(c domain.RGB) {
	l.mu.Lock()
	l.barColor = c
	l.mu.Unlock()

	l.barSwatch.FillColor = c
	l.barSwatch.Refresh()
}

// BarColor returns the selected bar color.
func (l *Launcher) BarColor() domain.RGB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.barColor
}

// SetBackgroundColor changes the background of the next visualization.
func (l *Launcher) SetBackgroundColor(c domain.RGB) {
	l.mu.Lock()
	l.bgColor = c
	l.mu.Unlock()

	l.bgSwatch.FillColor = c
	l.bgSwatch.Refresh()
}

// BackgroundColor returns the selected background color.
func (l *Launcher) BackgroundColor() domain.RGB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bgColor
}

// start runs a visualization in the background. The launcher stays usable for
// picking the next file but cannot start a second run until this one stops.
func (l *Launcher) start() {
	l.mu.Lock()
	if l.running || l.path == "" {
		l.mu.Unlock()
		return
	}
	l.running = true
	path, bar, bg, ctx := l.path, l.barColor, l.bgColor, l.ctx
	l.mu.Unlock()

	l.startButton.Disable()
	l.status.SetText("Analyzing " + filepath.Base(path) + "...")
	l.remember(path, bar, bg)

	var sub domain.SubscriptionID
	if l.bus != nil {
		sub = l.bus.SubscribeOnce(domain.EventVisualizationStarted, func(domain.Event) {
			fyneapp.Do(func() { l.status.SetText("Playing " + filepath.Base(path)) })
		})
	}

	go func() {
		err := l.visualizer.Run(ctx, path, bar, bg)
		if l.bus != nil {
			l.bus.Unsubscribe(sub) // still pending when the run failed early
		}
		fyneapp.Do(func() { l.finished(err) })
	}()
}

func (l *Launcher) remember(path string, bar, bg domain.RGB) {
	if l.prefs == nil {
		return
	}
	if err := l.prefs.SaveColors(bar, bg); err != nil {
		l.logger.Warn("failed to save colors", slog.Any("error", err))
	}
	if err := l.prefs.SaveLastFile(path); err != nil {
		l.logger.Warn("failed to save last file", slog.Any("error", err))
	}
}

func (l *Launcher) finished(err error) {
	l.mu.Lock()
	l.running = false
	hasPath := l.path != ""
	l.mu.Unlock()

	if hasPath {
		l.startButton.Enable()
	}
	if err != nil {
		l.logger.Error("visualization failed", slog.Any("error", err))
		l.status.SetText(err.Error())
		dialog.ShowError(err, l.window)
		return
	}
	l.status.SetText("")
}

// Running reports whether a visualization started from this launcher is on screen.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Window returns the underlying fyne window.
func (l *Launcher) Window() fyneapp.Window {
	return l.window
}

// Show shows the launcher window.
func (l *Launcher) Show() {
	l.window.Show()
}

// Close closes the launcher window. It's safe to call multiple times.
func (l *Launcher) Close() {
	l.closeOnce.Do(func() {
		l.window.Close()
	})
}
