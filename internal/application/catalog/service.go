// Package catalog keeps the list of playable videos and maps ids to files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"framecast/internal/domain/media"
	"github.com/hashicorp/go-hclog"
)

// ErrVideoNotFound is returned by Resolve for ids that are not in the library.
var ErrVideoNotFound = errors.New("video not found")

const (
	defaultRescanInterval = 60 * time.Second
	// A miss only rescans when the listing is at least this old.
	missRescanAfter = 5 * time.Second
)

// Service caches the library listing. Readers never touch the disk unless the cache
// is cold or an id misses.
type Service struct {
	store  VideoRepository
	logger hclog.Logger

	mu     sync.RWMutex
	videos []media.Video
	byID   map[media.VideoID]media.Video
	loaded bool

	refreshMu sync.Mutex
	scannedAt time.Time
	now       func() time.Time
}

// NewService creates a catalog over store.
func NewService(store VideoRepository, logger hclog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("catalog"),
		byID:   make(map[media.VideoID]media.Video),
		now:    time.Now,
	}
}

// List returns the current catalog, loading it on first use.
func (s *Service) List() ([]media.Video, error) {
	s.mu.RLock()
	if s.loaded {
		videos := append([]media.Video(nil), s.videos...)
		s.mu.RUnlock()
		return videos, nil
	}
	s.mu.RUnlock()

	if err := s.Refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]media.Video(nil), s.videos...), nil
}

// Resolve maps an id to the absolute path of its file. A miss triggers one rescan so
// files added since the last scan are found, unless the last scan is recent.
func (s *Service) Resolve(id media.VideoID) (string, error) {
	video, ok := s.lookup(id)
	if !ok && s.scanOlderThan(missRescanAfter) {
		if err := s.Refresh(); err != nil {
			return "", fmt.Errorf("resolve %s: %w", id, err)
		}
		video, ok = s.lookup(id)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	_, full, err := s.store.ResolveVideoPath(video.Path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return full, nil
}

func (s *Service) lookup(id media.VideoID) (media.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.byID[id]
	return video, ok
}

func (s *Service) scanOlderThan(age time.Duration) bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.scannedAt.IsZero() || s.now().Sub(s.scannedAt) >= age
}

// Refresh rescans the library and swaps in the new listing. Failed scans count as
// scans for the miss throttle.
func (s *Service) Refresh() error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.scannedAt = s.now()
	videos, err := s.store.ListVideos()
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}

	byID := make(map[media.VideoID]media.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	s.mu.Lock()
	changed := !s.loaded || len(s.videos) != len(videos)
	s.videos = videos
	s.byID = byID
	s.loaded = true
	s.mu.Unlock()

	if changed {
		s.logger.Debug("catalog refreshed", "videos", len(videos))
	}
	return nil
}

// Run rescans on every tick and on every value from changes until ctx is done.
// changes may be nil when no watcher is available.
func (s *Service) Run(ctx context.Context, interval time.Duration, changes <-chan struct{}) {
	if interval <= 0 {
		interval = defaultRescanInterval
	}

	s.rescan("startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rescan("interval")
		case <-changes:
			s.rescan("watch")
		}
	}
}

func (s *Service) rescan(reason string) {
	if err := s.Refresh(); err != nil {
		s.logger.Warn("catalog scan failed", "reason", reason, "error", err)
	}
}
