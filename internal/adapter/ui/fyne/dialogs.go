package fyne

import (
	"image/color"
	"log/slog"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// FileDialog is a helper for choosing an audio file.
type FileDialog struct {
	window     fyneapp.Window
	extensions []string
	callback   func(string)
	logger     *slog.Logger
}

// NewFileDialog creates a file dialog listing only files with the given extensions.
// An empty list shows every file.
func NewFileDialog(window fyneapp.Window, extensions []string, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:     window,
		extensions: extensions,
		callback:   callback,
		logger:     logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	open := dialog.NewFileOpen(func(reader fyneapp.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		filePath := reader.URI().Path()
		if d.callback != nil {
			d.callback(filePath)
		}
	}, d.window)

	if len(d.extensions) > 0 {
		open.SetFilter(storage.NewExtensionFileFilter(d.extensions))
	}
	open.Show()
}

// ColorDialog is a helper for picking a color.
type ColorDialog struct {
	window   fyneapp.Window
	title    string
	initial  domain.RGB
	callback func(domain.RGB)
}

// NewColorDialog creates a color picker starting at initial.
func NewColorDialog(window fyneapp.Window, title string, initial domain.RGB, callback func(domain.RGB)) *ColorDialog {
	return &ColorDialog{
		window:   window,
		title:    title,
		initial:  initial,
		callback: callback,
	}
}

// Show displays the advanced color picker. Alpha chosen in the picker is dropped.
func (d *ColorDialog) Show() {
	picker := dialog.NewColorPicker(d.title, "", func(c color.Color) {
		if d.callback != nil {
			d.callback(domain.RGBFromColor(c))
		}
	}, d.window)
	picker.Advanced = true
	picker.SetColor(d.initial)
	picker.Show()
}
