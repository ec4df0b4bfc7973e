package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const defaultKeyringService = "spotwidget"

// KeyringStore implements [Store] on the system keyring. Keys map to keyring users under one service name.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store. An empty service name uses "spotwidget".
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = defaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Get(ctx context.Context, key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return v, nil
}

func (k *KeyringStore) Set(ctx context.Context, key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *KeyringStore) Delete(ctx context.Context, key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
