package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists named text values outside the running session
type Store interface {
	Get(name string) (string, bool, error)
	Put(name, value string) error
	// PutIfAbsent stores value unless name already exists and returns
	// whichever value is stored afterwards.
	PutIfAbsent(name, value string) (string, error)
	Delete(name string) error
}

// FileStore keeps all values in a single JSON object on disk
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. The parent directory is created
// with owner-only permissions.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("vault path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("error creating vault directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[name]
	return v, ok, nil
}

func (s *FileStore) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[name] = value
	return s.save(values)
}

func (s *FileStore) PutIfAbsent(name, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	if existing, ok := values[name]; ok {
		return existing, nil
	}
	values[name] = value
	if err := s.save(values); err != nil {
		return "", err
	}
	return value, nil
}

func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[name]; !ok {
		return nil
	}
	delete(values, name)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode vault file %s: %w", s.path, err)
	}
	return values, nil
}

// save writes through a temp file so a crash never leaves a truncated vault
func (s *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vault: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace vault file: %w", err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *MemoryStore) Put(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

func (m *MemoryStore) PutIfAbsent(name, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[name]; ok {
		return existing, nil
	}
	m.values[name] = value
	return value, nil
}

func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}
