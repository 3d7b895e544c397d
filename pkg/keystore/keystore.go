/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keystore persists the per-wallet unlock keys. Identity key
// material never passes through here; it lives inside the wallet container
// managed by the crypto provider.
package keystore

import (
	"errors"
	"fmt"

	storage "github.com/hyperledger/aries-framework-go/spi/storage"
)

// Store holds one symmetric unlock key per wallet id.
type Store interface {
	// Put saves the unlock key for the wallet id, replacing any previous one.
	Put(walletID string, key []byte) error

	// Get returns the unlock key for the wallet id, or ok=false when no key
	// has been stored yet.
	Get(walletID string) (key []byte, ok bool, err error)
}

const storeName = "walletkeys"

type store struct {
	store storage.Store
}

// New builds a Store on top of the given storage provider. Production
// deployments back this with platform keychain storage; tests use the
// in-memory provider.
func New(provider storage.Provider) (Store, error) {
	s, err := provider.OpenStore(storeName)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store: %w", err)
	}

	return &store{store: s}, nil
}

func (s *store) Put(walletID string, key []byte) error {
	if walletID == "" {
		return errors.New("wallet id is mandatory")
	}

	if err := s.store.Put(walletID, key); err != nil {
		return fmt.Errorf("failed to save unlock key: %w", err)
	}

	return nil
}

func (s *store) Get(walletID string) ([]byte, bool, error) {
	if walletID == "" {
		return nil, false, errors.New("wallet id is mandatory")
	}

	key, err := s.store.Get(walletID)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to fetch unlock key: %w", err)
	}

	return key, true, nil
}
