package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/fbxcast/types"
)

// fileRecord is the on-disk layout.
type fileRecord struct {
	types.AppCredential `yaml:",inline"`
	SavedAt             time.Time `yaml:"saved_at"`
}

// FileStore persists the credential as YAML readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (types.AppCredential, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.AppCredential{}, false, nil
	}
	if err != nil {
		return types.AppCredential{}, false, fmt.Errorf("read credentials: %w", err)
	}
	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return types.AppCredential{}, false, fmt.Errorf("parse credentials: %w", err)
	}
	return rec.AppCredential, !rec.AppCredential.Empty(), nil
}

func (f *FileStore) Save(cred types.AppCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(&fileRecord{AppCredential: cred, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
