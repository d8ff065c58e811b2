// BYZRA ⸻ internal/daemon/watcher.go
// file system monitoring for watch mode

package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// processes a detected file
type FileHandler func(path string) error

// configures the watcher behavior
type WatchOptions struct {
	// decides which files are handled
	Accept func(path string) bool

	// directories to exclude, by name
	ExcludeDirs []string

	// min file age before processing (avoid processing incomplete files)
	MinFileAge time.Duration

	// wait after the last event before handling a file
	Settle time.Duration

	// events for a path handled less than this long ago are dropped
	DedupWindow time.Duration

	// process files recursively in subdirectories?
	Recursive bool
}

// monitors directories for file changes
type Watcher struct {
	watcher *fsnotify.Watcher
	dirs    []string
	options WatchOptions
	handler FileHandler
	logger  *Logger

	processLock sync.Mutex
	processed   map[string]time.Time
	// paths with a handler scheduled or running
	pending map[string]bool
	// set by Stop; no handler is scheduled afterwards
	stopped bool

	wg      sync.WaitGroup
	done    chan struct{}
	running bool
}

// new file system watcher
func NewWatcher(dirs []string, options WatchOptions, handler FileHandler, logger *Logger) (*Watcher, error) {
	var validDirs []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			logger.Warn("skipping invalid directory", "dir", dir, "err", err)
			continue
		}
		if !info.IsDir() {
			logger.Warn("skipping non-directory path", "dir", dir)
			continue
		}
		validDirs = append(validDirs, dir)
	}

	if len(validDirs) == 0 {
		return nil, fmt.Errorf("no valid directories to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DedupWindow == 0 {
		options.DedupWindow = time.Minute
	}

	return &Watcher{
		watcher:   fsWatcher,
		dirs:      validDirs,
		options:   options,
		handler:   handler,
		logger:    logger,
		processed: make(map[string]time.Time),
		pending:   make(map[string]bool),
		done:      make(chan struct{}),
	}, nil
}

func (w *Watcher) Dirs() []string {
	return slices.Clone(w.dirs)
}

// begins watching the configured directories
func (w *Watcher) Start() error {
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	for _, dir := range w.dirs {
		if !w.options.Recursive {
			w.add(dir)
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				w.logger.Warn("error accessing path", "path", path, "err", err)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != dir && w.excluded(path) {
				return filepath.SkipDir
			}
			w.add(path)
			return nil
		})
		if err != nil {
			w.logger.Error("error walking directory", "dir", dir, "err", err)
		}
	}

	go w.processEvents()
	go w.periodicCleanup()

	w.running = true
	w.logger.Info("file watcher started", "dirs", len(w.dirs), "recursive", w.options.Recursive)
	return nil
}

// terminates the watcher and waits for running handlers
func (w *Watcher) Stop() error {
	if !w.running {
		return nil
	}

	w.processLock.Lock()
	w.stopped = true
	w.processLock.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.running = false
	w.logger.Info("file watcher stopped")
	return err
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch directory", "dir", dir, "err", err)
		return
	}
	w.logger.Debug("watching directory", "dir", dir)
}

func (w *Watcher) excluded(path string) bool {
	return slices.Contains(w.options.ExcludeDirs, filepath.Base(path))
}

func (w *Watcher) accepts(path string) bool {
	return w.options.Accept == nil || w.options.Accept(path)
}

// claim reserves path for one handler run and counts it in wg; false when the
// watcher is stopping, one is pending or the path was handled within the dedup window
func (w *Watcher) claim(path string) bool {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	if w.stopped || w.pending[path] {
		return false
	}
	if last, ok := w.processed[path]; ok && time.Since(last) < w.options.DedupWindow {
		return false
	}
	w.pending[path] = true
	w.wg.Add(1)
	return true
}

func (w *Watcher) release(path string) {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	delete(w.pending, path)
	w.processed[path] = time.Now()
}

// file system events
func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			path := event.Name

			info, err := os.Stat(path)
			if err != nil {
				// renamed away or removed already
				continue
			}
			if info.IsDir() {
				if w.options.Recursive && !w.excluded(path) {
					w.add(path)
				}
				continue
			}

			if info.Mode().IsRegular() && w.accepts(path) && w.claim(path) {
				go w.handle(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(path string) {
	defer w.wg.Done()
	defer w.release(path)

	if !w.wait(w.options.Settle) {
		return
	}
	// the file may still be growing
	if w.options.MinFileAge > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if age := time.Since(info.ModTime()); age < w.options.MinFileAge && !w.wait(w.options.MinFileAge-age) {
			return
		}
	}

	w.logger.Debug("processing file", "path", path)
	if err := w.handler(path); err != nil {
		w.logger.Error("failed to process file", "path", path, "err", err)
	}
}

// false when the watcher stopped first
func (w *Watcher) wait(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.done:
		return false
	}
}

// periodically cleans the processed files map
func (w *Watcher) periodicCleanup() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.processLock.Lock()
			cutoff := time.Now().Add(-time.Hour)
			for path, processed := range w.processed {
				if processed.Before(cutoff) {
					delete(w.processed, path)
				}
			}
			w.processLock.Unlock()
			w.logger.Debug("cleaned processed files cache")
		case <-w.done:
			return
		}
	}
}
