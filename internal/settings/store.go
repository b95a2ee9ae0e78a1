package settings

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"dlrouter/internal/logging"
)

// Store is the persistence collaborator for Settings. Load never fails: any
// read error degrades to Default(). Save merges the given partial into the
// stored settings and writes atomically.
type Store interface {
	Load() Settings
	Save(p Partial) error
}

// FileStore keeps settings in a single YAML file.
type FileStore struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

func NewFileStore(path string, log *logging.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (f *FileStore) Load() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *FileStore) loadLocked() Settings {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warnf("settings read failed, using defaults: %v", err)
		}
		return Default()
	}
	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		f.log.Warnf("settings parse failed, using defaults: %v", err)
		return Default()
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.DefaultFolder == "" {
		s.DefaultFolder = Default().DefaultFolder
	}
	return s
}

func (f *FileStore) Save(p Partial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.loadLocked()
	if p.Categories != nil {
		s.Categories = *p.Categories
	}
	if p.DefaultFolder != nil {
		s.DefaultFolder = *p.DefaultFolder
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	// Write-then-rename so a crash never leaves a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".settings.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu sync.Mutex
	s  Settings
}

func NewMemStore(s Settings) *MemStore {
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.DefaultFolder == "" {
		s.DefaultFolder = Default().DefaultFolder
	}
	return &MemStore{s: s}
}

func (m *MemStore) Load() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

func (m *MemStore) Save(p Partial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Categories != nil {
		m.s.Categories = *p.Categories
	}
	if p.DefaultFolder != nil {
		m.s.DefaultFolder = *p.DefaultFolder
	}
	return nil
}
