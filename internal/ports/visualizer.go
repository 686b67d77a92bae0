package ports

import (
	"context"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// Visualizer renders an audio file as an animated visualization.
// Callers pick the implementation; the bar chart engine is one of them.
type Visualizer interface {
	// Run plays the file and animates it until the window is closed or ctx is cancelled.
	// It blocks for the whole visualization.
	//
	// Returns a *domain.AnalysisError before any window is shown when the audio is unusable.
	// Closing the window and cancelling ctx are normal terminations and return nil.
	Run(ctx context.Context, audioPath string, barColor, backgroundColor domain.RGB) error
}

// PreferencesRepository remembers the launcher choices between sessions.
type PreferencesRepository interface {
	// SaveColors persists the last used bar and background colors.
	SaveColors(bar, background domain.RGB) error

	// LoadColors returns the saved colors. ok is false when none were saved.
	LoadColors() (bar, background domain.RGB, ok bool)

	// SaveLastFile persists the last visualized file.
	SaveLastFile(path string) error

	// LoadLastFile returns the last visualized file, or "" when none was saved.
	LoadLastFile() string

	// Clear removes all saved preferences.
	Clear() error
}
