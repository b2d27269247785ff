package flatblog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// ContentWatcher rebuilds the site when Markdown sources or shared assets
// change on disk. Events are debounced so an editor save burst triggers a
// single rebuild.
type ContentWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewContentWatcher starts watching the given directories and returns the
// running watcher. Close stops it.
func NewContentWatcher(service *ContentService, logger *slog.Logger, dirs ...string) (*ContentWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w := &ContentWatcher{watcher: fw, done: make(chan struct{})}
	go w.run(service, logger)
	logger.Info("content watcher started", "dirs", strings.Join(dirs, ", "))
	return w, nil
}

func (w *ContentWatcher) run(service *ContentService, logger *slog.Logger) {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	dirty := false

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			logger.Debug("content change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)
			dirty = true
		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			if _, err := service.Rebuild(); err != nil {
				logger.Error("watch rebuild failed", "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// relevantEvent filters out chmod noise and editor temp files.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := event.Name
	return !strings.HasSuffix(name, "~") && !strings.HasSuffix(name, ".swp") && !strings.HasSuffix(name, ".tmp")
}

// Close stops the watcher and its rebuild goroutine.
func (w *ContentWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
