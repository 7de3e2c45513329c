package config

import (
	"sync"
	"sync/atomic"
)

// Access is the process-wide handle to the configuration. Share one *Access
// between every component that reads or changes the config; nothing else
// may touch the underlying file.
//
// Mutations only mark the in-memory value dirty. The next Get flushes it, so
// several mutations are written once, and Persist flushes unconditionally at
// shutdown.
type Access struct {
	store Store
	mu    sync.RWMutex
	cfg   Config
	dirty atomic.Bool
}

// Load reads the configuration from store and returns a handle to it.
func Load(store Store) (*Access, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	return NewAccess(store, cfg), nil
}

// NewAccess wraps an already loaded configuration.
func NewAccess(store Store, cfg Config) *Access {
	return &Access{store: store, cfg: cfg.Clone()}
}

// Get returns a snapshot of the configuration. Pending mutations are written
// to disk first; on a write error the flag stays set so the next Get or
// Persist retries.
func (a *Access) Get() (Config, error) {
	if a.dirty.Swap(false) {
		if err := a.flush(); err != nil {
			a.dirty.Store(true)
			return Config{}, err
		}
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone(), nil
}

// Update runs fn with exclusive access to the configuration and marks it
// dirty when fn returns. The write itself is deferred.
func (a *Access) Update(fn func(*Config)) {
	a.mu.Lock()
	defer a.dirty.Store(true)
	defer a.mu.Unlock()
	fn(&a.cfg)
}

// Dirty reports whether mutations are waiting to be written.
func (a *Access) Dirty() bool { return a.dirty.Load() }

// Persist writes the configuration regardless of the dirty flag.
func (a *Access) Persist() error {
	a.dirty.Store(false)
	if err := a.flush(); err != nil {
		a.dirty.Store(true)
		return err
	}
	return nil
}

func (a *Access) flush() error {
	a.mu.RLock()
	cfg := a.cfg.Clone()
	a.mu.RUnlock()
	return a.store.Save(cfg)
}
