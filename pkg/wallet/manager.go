/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet manages the lifecycle of per-identity wallets: lazy
// creation, a process-wide registry of open handles, closing and deletion.
package wallet

import (
	"errors"
	"fmt"

	"github.com/bluele/gcache"
	"github.com/google/tink/go/subtle/random"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/keystore"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

var logger = log.New("sudo-di/wallet")

// unlockKeySize is the size of a generated wallet unlock key.
const unlockKeySize = 32

// ErrUnlockKeyMissing is returned when a wallet is deleted but its unlock
// key is no longer in the key store.
var ErrUnlockKeyMissing = errors.New("wallet unlock key missing from key store")

// Wallet is an open wallet. The handle is only valid while the wallet
// remains in the manager's registry.
type Wallet struct {
	ID     string
	Handle provider.WalletHandle
}

// Manager owns the registry of open wallets. At most one live handle exists
// per wallet id; concurrent EnsureOpen calls for the same id are coalesced
// onto a single create/open sequence by the registry's loader.
type Manager struct {
	provider provider.Provider
	keys     keystore.Store
	registry gcache.Cache
}

// NewManager builds a Manager on the given provider and key store.
func NewManager(p provider.Provider, keys keystore.Store) *Manager {
	m := &Manager{provider: p, keys: keys}

	m.registry = gcache.New(0).
		LoaderFunc(func(id interface{}) (interface{}, error) {
			return m.open(id.(string))
		}).
		Build()

	return m
}

// EnsureOpen returns the open wallet for the id, creating and opening it on
// first use. Calling it any number of times, sequentially or concurrently,
// yields the same handle.
func (m *Manager) EnsureOpen(id string) (*Wallet, error) {
	if id == "" {
		return nil, errors.New("wallet id is mandatory")
	}

	value, err := m.registry.Get(id)
	if err != nil {
		return nil, err
	}

	return value.(*Wallet), nil
}

// open runs the create-then-open sequence. Called only by the registry
// loader, once per id at a time.
func (m *Manager) open(id string) (*Wallet, error) {
	key, err := m.unlockKey(id)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w", id, err)
	}

	err = m.provider.CreateWallet(id, key)
	if err != nil && !provider.IsCode(err, provider.CodeWalletAlreadyExists) {
		return nil, fmt.Errorf("create wallet %q: %w", id, err)
	}

	handle, err := m.provider.OpenWallet(id, key)
	if err != nil {
		return nil, fmt.Errorf("open wallet %q: %w", id, err)
	}

	logger.Debugf("wallet %q open with handle %d", id, handle)

	return &Wallet{ID: id, Handle: handle}, nil
}

// unlockKey fetches the wallet's unlock key, generating and persisting a
// fresh one on first use.
func (m *Manager) unlockKey(id string) ([]byte, error) {
	key, ok, err := m.keys.Get(id)
	if err != nil {
		return nil, fmt.Errorf("fetch unlock key: %w", err)
	}

	if ok {
		return key, nil
	}

	key = random.GetRandomBytes(uint32(unlockKeySize))

	if err := m.keys.Put(id, key); err != nil {
		return nil, fmt.Errorf("save unlock key: %w", err)
	}

	return key, nil
}

// Close closes the wallet and removes it from the registry. Closing a
// wallet that is not open is a no-op.
func (m *Manager) Close(id string) error {
	value, err := m.registry.GetIFPresent(id)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil
	} else if err != nil {
		return err
	}

	m.registry.Remove(id)

	w := value.(*Wallet)

	err = m.provider.CloseWallet(w.Handle)
	if err != nil && !provider.IsCode(err, provider.CodeWalletInvalidHandle) {
		return fmt.Errorf("close wallet %q: %w", id, err)
	}

	return nil
}

// Delete closes the wallet if needed and removes its container.
func (m *Manager) Delete(id string) error {
	if err := m.Close(id); err != nil {
		return err
	}

	key, ok, err := m.keys.Get(id)
	if err != nil {
		return fmt.Errorf("wallet %q: fetch unlock key: %w", id, err)
	}

	if !ok {
		return fmt.Errorf("wallet %q: %w", id, ErrUnlockKeyMissing)
	}

	if err := m.provider.DeleteWallet(id, key); err != nil {
		return fmt.Errorf("delete wallet %q: %w", id, err)
	}

	logger.Debugf("wallet %q deleted", id)

	return nil
}
