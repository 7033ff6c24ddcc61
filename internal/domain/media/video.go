package media

import (
	"path"
	"strings"
	"time"
)

// VideoID is the catalog key a viewer uses to select a title.
type VideoID string

// Video represents a source file in the library.
type Video struct {
	ID         VideoID
	Name       string
	Path       string
	Size       int64
	ModifiedAt time.Time
}

// Title returns the display name of the video, its file name without extension.
func (v Video) Title() string {
	return strings.TrimSuffix(v.Name, path.Ext(v.Name))
}
