package lsp

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dhamidi/plugintools/metrics"
)

// ClassesWatcher reports changes to class files below a set of
// directories. Bursts of events, as written by a compiler, are collapsed
// into one callback.
type ClassesWatcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

func NewClassesWatcher(debounce time.Duration, onChange func()) (*ClassesWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ClassesWatcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
		done:      make(chan struct{}),
	}, nil
}

// Watch adds dirs and their subdirectories and starts delivering events.
// Directories that do not exist yet are skipped.
func (w *ClassesWatcher) Watch(dirs []string) error {
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			log.Infof("not watching %s: %s", dir, err)
			continue
		}
		if err := w.watchRecursive(dir); err != nil {
			return err
		}
	}
	go w.run()
	return nil
}

func (w *ClassesWatcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

func (w *ClassesWatcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *ClassesWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			metrics.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchRecursive(event.Name); err != nil {
						log.Warningf("failed to watch new directory %s: %s", event.Name, err)
					}
					w.schedule()
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".class") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher error: %s", err)
		}
	}
}

func (w *ClassesWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
