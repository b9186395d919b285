// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Live configuration snapshot with reload listeners, fed by a file watcher.
// The pool layout is fixed at startup; a reload only reaches settings that
// can change at runtime (logging level today).

package control

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/momentics/hcibuf/internal/logger"
)

// ConfigStore holds the current configuration and notifies listeners on change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(old, updated Config)
}

// NewConfigStore initializes a store with cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// Snapshot returns a copy of the current configuration.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Update validates cfg, swaps it in and calls every listener synchronously.
// An invalid cfg is rejected and the current one kept.
func (cs *ConfigStore) Update(cfg Config) error {
	if err := Validate(&cfg); err != nil {
		return err
	}
	cs.mu.Lock()
	old := cs.config
	cs.config = cfg
	listeners := append([]func(old, updated Config){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(old, cfg)
	}
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(old, updated Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// WatchConfig re-reads path whenever it changes and pushes valid results
// into store. Invalid edits are logged and ignored.
func WatchConfig(path string, store *ConfigStore, log *slog.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot watch config: %w", err)
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		if err := store.Update(*cfg); err != nil {
			log.Warn("config update rejected", "file", e.Name, "error", err)
			return
		}
		log.Info("config reloaded", "file", e.Name)
	})
	v.WatchConfig()
	return nil
}

// PoolLayoutChanged reports whether a reload touched settings that only take
// effect when the pool is rebuilt.
func PoolLayoutChanged(old, updated Config) bool {
	return old.Pool != updated.Pool
}
