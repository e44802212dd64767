package config

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veldtsim/fireline/internal/sim"
)

// debounceWindow collapses the editor save-rename-write burst into one
// reload.
const debounceWindow = 100 * time.Millisecond

// Watcher re-reads the settings file whenever it changes on disk and
// delivers the resulting tuning set. Receive from Updates between
// simulation steps and apply with World.SetTunables.
type Watcher struct {
	fw      *fsnotify.Watcher
	cfg     *Config
	Updates chan sim.Tunables
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// Watch starts watching the config directory. Close the returned Watcher
// when the run ends.
func (c *Config) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(c.dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		cfg:     c,
		Updates: make(chan sim.Tunables, 4),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fw.Close()
	})
	return err
}

func (w *Watcher) run() {
	var lastReload time.Time
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isSettingsFile(event.Name) {
				continue
			}
			now := time.Now()
			if now.Sub(lastReload) < debounceWindow {
				continue
			}
			lastReload = now
			if err := w.cfg.reread(); err != nil {
				w.reportError(err)
				continue
			}
			w.deliver(w.cfg.Tunables())
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		case <-w.closeCh:
			return
		}
	}
}

// deliver drops the oldest pending update rather than blocking the
// watcher goroutine.
func (w *Watcher) deliver(t sim.Tunables) {
	for {
		select {
		case w.Updates <- t:
			return
		default:
		}
		select {
		case <-w.Updates:
		default:
		}
	}
}

func (w *Watcher) reportError(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

func isSettingsFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if !strings.HasPrefix(base, "fireline") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".yaml" || ext == ".yml"
}
