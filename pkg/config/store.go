package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
)

// lockTimeout is the maximum time to wait for the config file lock.
const lockTimeout = 2 * time.Second

// Error is a failure reading, parsing, serializing or writing the config
// file. It is fatal at startup.
type Error struct {
	Op   string // "read", "parse", "serialize" or "write"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s config %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store loads and saves a Config.
type Store interface {
	Load() (Config, error)
	Save(Config) error
}

// FileStore keeps the configuration in a TOML file. Writes are serialized
// across processes with a lock file next to it and replace the file
// atomically.
type FileStore struct {
	path   string
	logger *log.Logger
}

// NewFileStore returns a store for the config file at path.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the config file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the config file. A missing file is created with defaults.
func (s *FileStore) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		s.logger.Debug("initializing configuration file", "path", s.path)
		if err := s.Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, &Error{Op: "read", Path: s.path, Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, &Error{Op: "parse", Path: s.path, Err: err}
	}
	s.logger.Debug("loaded configuration", "path", s.path, "default", cfg.DefaultVersion, "pins", len(cfg.PinnedCommands))
	return cfg, nil
}

// Save writes cfg while holding the config lock.
func (s *FileStore) Save(cfg Config) error {
	data, err := cfg.Encode()
	if err != nil {
		return &Error{Op: "serialize", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}

	lock := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return &Error{Op: "write", Path: s.path, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	if !locked {
		return &Error{Op: "write", Path: s.path, Err: fmt.Errorf("acquire lock: timeout after %v", lockTimeout)}
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "config-*.toml")
	if err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
