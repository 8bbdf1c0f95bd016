package config

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-loads path whenever it changes on disk and publishes the
// latest successfully-parsed Config through Current (SPEC_FULL.md's Config
// hot-reload addition). The daemon bootstrap (internal/rundaemon) reads
// Current once at startup, so a reload does not change the limits of an
// already running Session Manager or RPC server. A parse failure during a
// reload is logged and the previous, still-valid Config snapshot is kept.
//
// Grounded on thicc's FileWatcher: an fsnotify.Watcher, a debounce timer
// reset on every event, and log-and-continue on watch/parse errors rather
// than tearing down the daemon.
type Watcher struct {
	path string

	current atomic.Pointer[Config]

	fsw        *fsnotify.Watcher
	debounce   time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	onReloaded func(Config)
}

// NewWatcher loads path once synchronously (so callers have a Config
// immediately) and returns a Watcher ready to have Start called on it.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     path,
		fsw:      fsw,
		debounce: 100 * time.Millisecond,
		stop:     make(chan struct{}),
	}
	w.current.Store(&cfg)
	return w, nil
}

// Current returns the most recently loaded Config snapshot.
func (w *Watcher) Current() Config {
	return *w.current.Load()
}

// OnReload registers a callback invoked with each successfully reloaded
// Config. Optional; Current() alone is enough for pull-based readers.
func (w *Watcher) OnReload(fn func(Config)) {
	w.onReloaded = fn
}

// Start begins watching the config file's directory (fsnotify on most
// platforms requires watching the containing directory to see renames
// from editors that write-then-rename) and reloading on change.
func (w *Watcher) Start() error {
	dir := dirOf(w.path)
	if err := w.fsw.Add(dir); err != nil {
		log.Printf("prise: config watcher: failed to watch %s: %v", dir, err)
	}
	go w.eventLoop()
	return nil
}

// Stop shuts down the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.fsw.Close()
	})
}

func (w *Watcher) eventLoop() {
	var timer *time.Timer
	var mu sync.Mutex

	reset := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, w.reload)
	}

	for {
		select {
		case <-w.stop:
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if baseOf(event.Name) != baseOf(w.path) {
				continue
			}
			reset()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("prise: config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("prise: config reload failed, keeping previous config: %v", err)
		return
	}
	w.current.Store(&cfg)
	log.Printf("prise: config reloaded from %s", w.path)
	if w.onReloaded != nil {
		w.onReloaded(cfg)
	}
}
