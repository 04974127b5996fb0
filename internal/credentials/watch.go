package credentials

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/claudewatch/internal/logger"
)

// Watcher reports external changes to credential files so the monitor
// can recheck availability outside the fixed refresh interval.
type Watcher struct {
	watcher       *fsnotify.Watcher
	watched       map[string]struct{}
	onChange      func()
	stopChan      chan struct{}
	stopOnce      sync.Once
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// Watch starts watching the manual token file and, where one exists,
// the file-backed primary credential. onChange fires debounced, from a
// watcher goroutine.
func (r *Resolver) Watch(onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		watched:  make(map[string]struct{}),
		onChange: onChange,
		stopChan: make(chan struct{}),
	}

	paths := []string{r.manualPath}
	if p := primaryCredentialFile(); p != "" {
		paths = append(paths, p)
	}

	// Watch directories so create/delete of the files themselves is
	// seen too.
	dirs := make(map[string]struct{})
	for _, p := range paths {
		w.watched[filepath.Base(p)] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logger.Warn("cannot watch credential directory", "dir", dir, "error", err)
		}
	}

	go w.loop()
	return w, nil
}

// loop handles file system events with debouncing.
func (w *Watcher) loop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if _, watched := w.watched[filepath.Base(event.Name)]; !watched {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				w.debounceMu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.onChange)
				w.debounceMu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("credential watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.debounceMu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceMu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
