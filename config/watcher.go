package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a configuration file whenever it changes on disk,
// keeping the previously loaded configuration if the new contents fail
// to parse or validate (a malformed edit never takes a running node
// down).
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	log      *zap.Logger
	onChange func(*Config)
	current  *Config
}

// NewWatcher loads path once and begins watching its containing
// directory for changes (watching the directory, not the file, survives
// editors that replace the file rather than write it in place).
func NewWatcher(path string, log *zap.Logger, onChange func(*Config)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: path, fsw: fsw, log: log, onChange: onChange, current: cfg}, nil
}

// Current returns the most recently successfully loaded configuration.
func (w *Watcher) Current() *Config {
	return w.current
}

// Run processes filesystem events until stop is closed. It is meant to
// run on its own goroutine; reloads are delivered to onChange, which the
// caller should treat as running concurrently with the event loop and
// synchronize accordingly.
func (w *Watcher) Run(stop <-chan struct{}) {
	defer w.fsw.Close()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("config reload failed, keeping previous configuration", zap.Error(err))
				continue
			}
			w.current = cfg
			w.log.Info("configuration reloaded")
			if w.onChange != nil {
				w.onChange(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		case <-stop:
			return
		}
	}
}
