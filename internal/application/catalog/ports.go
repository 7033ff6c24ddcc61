package catalog

import (
	mediadomain "framecast/internal/domain/media"
)

// VideoRepository is an application port for media file discovery and path resolution.
type VideoRepository interface {
	ListVideos() ([]mediadomain.Video, error)
	ResolveVideoPath(raw string) (string, string, error)
}
