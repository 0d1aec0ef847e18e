// Package store keeps the app credential across process restarts.
package store

import (
	"sync"

	"github.com/moyoez/fbxcast/types"
)

// CredentialStore persists the long-lived app credential.
// Load returns ok=false when nothing is stored.
type CredentialStore interface {
	Load() (cred types.AppCredential, ok bool, err error)
	Save(cred types.AppCredential) error
	Clear() error
}

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu   sync.Mutex
	cred types.AppCredential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (types.AppCredential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, !m.cred.Empty(), nil
}

func (m *MemoryStore) Save(cred types.AppCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = types.AppCredential{}
	return nil
}

var (
	_ CredentialStore = (*MemoryStore)(nil)
	_ CredentialStore = (*FileStore)(nil)
	_ CredentialStore = (*KeyringStore)(nil)
)
