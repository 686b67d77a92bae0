// Package memory stores launcher preferences in the fyne preferences store.
package memory

import (
	"sync"

	"fyne.io/fyne/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

const (
	keyBarColor        = "preferences.bar_color"
	keyBackgroundColor = "preferences.background_color"
	keyLastFile        = "preferences.last_file"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
// Colors are stored as #rrggbb strings.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.App.Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveColors persists the bar and background colors.
func (r *PreferencesRepository) SaveColors(bar, background domain.RGB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyBarColor, bar.String())
	r.prefs.SetString(keyBackgroundColor, background.String())
	return nil
}

// LoadColors retrieves the saved colors. Unreadable values count as not saved.
func (r *PreferencesRepository) LoadColors() (bar, background domain.RGB, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bar, barOK := parseHex(r.prefs.String(keyBarColor))
	background, bgOK := parseHex(r.prefs.String(keyBackgroundColor))
	if !barOK || !bgOK {
		return domain.DefaultBarColor, domain.DefaultBackgroundColor, false
	}
	return bar, background, true
}

// SaveLastFile persists the last visualized file.
func (r *PreferencesRepository) SaveLastFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyLastFile, path)
	return nil
}

// LoadLastFile retrieves the last visualized file.
func (r *PreferencesRepository) LoadLastFile() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyLastFile)
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyBarColor)
	r.prefs.RemoveValue(keyBackgroundColor)
	r.prefs.RemoveValue(keyLastFile)
	return nil
}

func parseHex(s string) (domain.RGB, bool) {
	if s == "" {
		return domain.RGB{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return domain.RGB{}, false
	}
	r, g, b := c.RGB255()
	return domain.RGB{R: r, G: g, B: b}, true
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
