package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of writes editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Watcher reports changes to configuration and script files on disk.
// Paths are sent on Changed; callers rebuild the catalog with New.
type Watcher struct {
	fs      *fsnotify.Watcher
	Changed chan string
	Errors  chan error
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching dir and, when present, its scripts subdirectory.
func Watch(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog: watch %s: %w", dir, err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("catalog: watch %s: %w", dir, err)
	}
	// The scripts directory is optional.
	_ = fw.Add(filepath.Join(dir, "scripts"))

	w := &Watcher{
		fs:      fw,
		Changed: make(chan string, 16),
		Errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Changed)
	defer close(w.Errors)

	seen := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !Watched(ev.Name) {
				continue
			}
			now := time.Now()
			if at, ok := seen[ev.Name]; ok && now.Sub(at) < reloadDebounce {
				continue
			}
			seen[ev.Name] = now
			select {
			case w.Changed <- ev.Name:
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Watched reports whether a change to path should trigger a reload.
func Watched(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".tengo":
		return true
	}
	return false
}
