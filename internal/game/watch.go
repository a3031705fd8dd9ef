package game

import (
	"os"
	"sync"
	"time"
)

// FileWatcher polls file modification times and triggers a callback on change.
// Missing files are tracked too: a file appearing later counts as a change.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration
	onChange func(string) // called with path that changed

	stopOnce  sync.Once
	stopCh    chan struct{}
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start primes the mtime cache synchronously, then polls in a goroutine.
func (w *FileWatcher) Start() {
	w.scanAll(true)
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// scanAll checks mtimes and invokes onChange for files that changed since last scan.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		var mt time.Time // zero for a missing file
		if fi, err := os.Stat(p); err == nil {
			mt = fi.ModTime()
		}
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime || !ok || mt.Equal(last) {
			continue
		}
		if w.onChange != nil {
			w.onChange(p)
		}
	}
}

// WatchCatalog invalidates l and calls reload whenever a file of (game, pool)
// changes. The caller stops the returned watcher.
func WatchCatalog(l *Loader, game, pool string, interval time.Duration, reload func()) *FileWatcher {
	w := NewFileWatcher(l.Paths().Files(game, pool), interval, func(string) {
		l.Invalidate()
		if reload != nil {
			reload()
		}
	})
	w.Start()
	return w
}
