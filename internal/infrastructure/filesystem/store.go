package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"framecast/internal/domain/media"
	"github.com/google/uuid"
)

// ErrOutsideLibrary reports a path that escapes the videos root.
var ErrOutsideLibrary = errors.New("invalid file path")

// videoNamespace scopes the name-based UUIDs handed out as video ids.
var videoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("framecast:video"))

// Store reads the media library from disk.
type Store struct {
	VideosDir string
}

// NewStore creates filesystem adapter rooted at videosDir.
func NewStore(videosDir string) *Store {
	return &Store{VideosDir: videosDir}
}

// EnsureDirs creates the library root.
func (s *Store) EnsureDirs() error {
	return os.MkdirAll(s.VideosDir, 0o755)
}

// VideosRoot returns the root directory that stores source media files.
func (s *Store) VideosRoot() string {
	return s.VideosDir
}

// VideoID derives the stable id of a library-relative path.
func VideoID(relPath string) media.VideoID {
	return media.VideoID(uuid.NewSHA1(videoNamespace, []byte(relPath)).String())
}

// ListVideos scans media library and returns normalized entries, newest first.
func (s *Store) ListVideos() ([]media.Video, error) {
	if _, err := os.Stat(s.VideosDir); err != nil {
		return nil, err
	}

	videos := make([]media.Video, 0)
	_ = filepath.WalkDir(s.VideosDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") || !media.IsSupportedVideoExt(filepath.Ext(entry.Name())) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(s.VideosDir, filePath)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		videos = append(videos, media.Video{
			ID:         VideoID(rel),
			Name:       entry.Name(),
			Path:       rel,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].ModifiedAt.Equal(videos[j].ModifiedAt) {
			return videos[i].Path < videos[j].Path
		}
		return videos[i].ModifiedAt.After(videos[j].ModifiedAt)
	})

	return videos, nil
}

// ResolveVideoPath validates a library-relative path and returns relative/absolute forms.
func (s *Store) ResolveVideoPath(raw string) (string, string, error) {
	rel, err := media.NormalizeVideoPath(raw)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.VideosDir, filepath.FromSlash(rel))
	if !isWithinDir(s.VideosDir, full) {
		return "", "", ErrOutsideLibrary
	}
	return rel, full, nil
}

// FileExists checks if a media file exists in source library.
func (s *Store) FileExists(relPath string) bool {
	full := filepath.Join(s.VideosDir, filepath.FromSlash(relPath))
	if !isWithinDir(s.VideosDir, full) {
		return false
	}
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	if rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return false
	}
	return true
}
