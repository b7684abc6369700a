package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bastiangx/phrasekit/internal/utils"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	mu       sync.RWMutex
	config   *Config
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	errMu     sync.Mutex
	errChan   chan error
	errClosed bool
}

// NewWatcher starts with current as the active config.
func NewWatcher(path string, current *Config) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:    path,
		config:  current,
		errChan: make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Config returns the active configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers cb for every accepted reload. Register before Start.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.onChange = append(w.onChange, cb)
}

// Errors delivers reload failures. Errors are dropped while one is pending.
// The channel is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Start watches the config file's directory, so editors that replace
// the file by rename are still seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	// A file that is not TOML at all is a mid-edit state, not a request
	// to fall back to defaults.
	if _, err := utils.ParseTOMLWithRecovery(w.path); err != nil {
		w.report(fmt.Errorf("reload config: %w", err))
		return
	}
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.report(fmt.Errorf("reload config: %w", err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.report(fmt.Errorf("validate new config: %w", err))
		return
	}

	w.mu.Lock()
	w.config = cfg
	w.mu.Unlock()

	for _, cb := range w.onChange {
		cb(cfg)
	}
}

// report never blocks. A debounced reload may still be running after Close,
// so sends check errClosed under errMu.
func (w *Watcher) report(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.errClosed {
		return
	}
	select {
	case w.errChan <- err:
	default:
	}
}

// Close stops watching and closes the Errors channel. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.cancel()
	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		<-w.done
	}

	w.errMu.Lock()
	if !w.errClosed {
		w.errClosed = true
		close(w.errChan)
	}
	w.errMu.Unlock()
	return err
}
