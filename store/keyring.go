package store

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/zalando/go-keyring"

	"github.com/moyoez/fbxcast/types"
)

// KeyringService is the service name under which the credential is stored.
const KeyringService = "fbxcast"

// KeyringStore keeps the credential in the OS keyring (Secret Service, Keychain, Credential Manager).
type KeyringStore struct {
	user string
}

// NewKeyringStore stores under user, typically the box host or uid.
func NewKeyringStore(user string) *KeyringStore {
	if user == "" {
		user = "default"
	}
	return &KeyringStore{user: user}
}

func (k *KeyringStore) Load() (types.AppCredential, bool, error) {
	secret, err := keyring.Get(KeyringService, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return types.AppCredential{}, false, nil
	}
	if err != nil {
		return types.AppCredential{}, false, fmt.Errorf("keyring get: %w", err)
	}
	var cred types.AppCredential
	if err := sonic.UnmarshalString(secret, &cred); err != nil {
		return types.AppCredential{}, false, fmt.Errorf("parse keyring entry: %w", err)
	}
	return cred, !cred.Empty(), nil
}

func (k *KeyringStore) Save(cred types.AppCredential) error {
	secret, err := sonic.MarshalString(cred)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := keyring.Set(KeyringService, k.user, secret); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(KeyringService, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
