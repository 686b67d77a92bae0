package decoder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/barviz/internal/domain"
)

// ReadMetadata returns the track's tags, falling back to the file name for the title.
// Unreadable files and files without tags are not errors.
func (d *Decoder) ReadMetadata(path string) domain.TrackInfo {
	ext := filepath.Ext(path)
	info := domain.TrackInfo{
		FilePath:   path,
		Title:      strings.TrimSuffix(filepath.Base(path), ext),
		FileFormat: strings.ToLower(ext),
	}

	file, err := os.Open(path)
	if err != nil {
		return info
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		// Files without tags keep the file name
		return info
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		info.Title = title
	}
	info.Artist = strings.TrimSpace(metadata.Artist())
	info.Album = strings.TrimSpace(metadata.Album())
	return info
}
