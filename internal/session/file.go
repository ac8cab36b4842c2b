package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muurk/lmsadmin/internal/logging"
)

const fileVersion = 1

// fileFormat is the on-disk layout of a FileStore.
type fileFormat struct {
	Version int     `yaml:"version"`
	Session Session `yaml:"session"`
}

// FileStore persists the session as YAML at Path.
type FileStore struct {
	Path string

	mu      sync.RWMutex
	session Session
}

// NewFileStore returns a FileStore backed by path. Call Init before use.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Init loads the session file. A missing file yields an empty session.
func (f *FileStore) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			f.session = Session{}
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	if ff.Version != fileVersion {
		return fmt.Errorf("unsupported session file version: %d (expected %d)", ff.Version, fileVersion)
	}

	f.session = ff.Session
	return nil
}

// Get implements Store.
func (f *FileStore) Get() Session {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return clone(f.session)
}

// Set implements Store.
func (f *FileStore) Set(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s = clone(s)
	s.UpdatedAt = time.Now().UTC()
	if err := f.save(s); err != nil {
		return err
	}
	f.session = s
	return nil
}

// SetAccessToken implements Store.
func (f *FileStore) SetAccessToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := clone(f.session)
	s.AccessToken = token
	s.UpdatedAt = time.Now().UTC()
	if err := f.save(s); err != nil {
		return err
	}
	f.session = s
	return nil
}

// Clear removes the session file and resets in-memory state.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.session = Session{}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Teardown implements Store.
func (f *FileStore) Teardown() error {
	if err := f.Clear(); err != nil {
		return err
	}
	logging.LogSessionEvent("teardown", "")
	return nil
}

// save performs an atomic write. Caller holds f.mu.
func (f *FileStore) save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(fileFormat{Version: fileVersion, Session: s})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmpPath := f.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary session file: %w", err)
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}

	return nil
}
