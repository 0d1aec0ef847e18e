package tool

import (
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads the config file when it changes and hands the result to handlers.
// Bursts of writes are collapsed into one reload.
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stopChan chan struct{}

	mu       sync.Mutex
	handlers []func(AppConfig)
}

func NewConfigWatcher(path string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ConfigWatcher{path: path, watcher: w, debounce: 300 * time.Millisecond}, nil
}

func (cw *ConfigWatcher) OnChange(handler func(AppConfig)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.handlers = append(cw.handlers, handler)
}

func (cw *ConfigWatcher) Start() error {
	if err := cw.watcher.Add(cw.path); err != nil {
		return err
	}
	cw.stopChan = make(chan struct{})
	go cw.watchLoop()
	DefaultLogger.Debugf("Watching config %s", cw.path)
	return nil
}

func (cw *ConfigWatcher) Stop() {
	if cw.stopChan != nil {
		close(cw.stopChan)
	}
	cw.watcher.Close()
}

func (cw *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer
	for {
		select {
		case <-cw.stopChan:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(cw.debounce, cw.reload)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			DefaultLogger.Errorf("Config watcher error: %v", err)
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		DefaultLogger.Errorf("Config reload failed: %v", err)
		return
	}
	DefaultLogger.Infof("Config %s reloaded", cw.path)

	cw.mu.Lock()
	handlers := slices.Clone(cw.handlers)
	cw.mu.Unlock()
	for _, h := range handlers {
		h(cfg)
	}
}
