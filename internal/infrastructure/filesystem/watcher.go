package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Watcher reports library changes. Bursts of events collapse into one notification
// delivered after the library has been quiet for the debounce delay.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   hclog.Logger
	watcher  *fsnotify.Watcher
	changes  chan struct{}
}

// NewWatcher watches root and every directory below it.
func NewWatcher(root string, debounce time.Duration, logger hclog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		debounce: debounce,
		logger:   logger.Named("watcher"),
		watcher:  fw,
		changes:  make(chan struct{}, 1),
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Changes delivers one value per settled burst of library events.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run pumps fsnotify events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	w.logger.Trace("library event", "path", event.Name, "op", event.Op.String())
	if event.Op&fsnotify.Create == fsnotify.Create {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}
