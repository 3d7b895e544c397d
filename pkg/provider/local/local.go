/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package local is an in-process software implementation of the provider
// capability. Wallet containers are stores obtained from a pluggable storage
// provider; every record value is encrypted at rest with the wallet's unlock
// key. Envelope encryption follows the legacy Aries JWM format using
// Chacha20Poly1305 content encryption and Curve25519 crypto boxes for key
// wrapping.
package local

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hyperledger/aries-framework-go/component/log"
	storage "github.com/hyperledger/aries-framework-go/spi/storage"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

var logger = log.New("sudo-di/provider-local")

const (
	walletKeySize   = 32
	secretNonceSize = 24

	storeNamePrefix = "wallet_"
	sentinelKey     = "sentinel"

	tagMyDid    = "mydid"
	tagTheirKey = "theirkey"
	tagKeyPair  = "keypair"
	tagPairwise = "pairwise"
)

// Provider is the software crypto provider.
type Provider struct {
	storage    storage.Provider
	randSource io.Reader

	mu         sync.RWMutex
	sessions   map[provider.WalletHandle]*session
	byID       map[string]provider.WalletHandle
	nextHandle provider.WalletHandle
}

// session is one open wallet container.
type session struct {
	id         string
	store      storage.Store
	key        *[walletKeySize]byte
	randSource io.Reader
}

// New creates a software provider on top of the given storage provider.
func New(storageProvider storage.Provider) *Provider {
	return &Provider{
		storage:    storageProvider,
		randSource: rand.Reader,
		sessions:   make(map[provider.WalletHandle]*session),
		byID:       make(map[string]provider.WalletHandle),
		nextHandle: 1,
	}
}

// CreateWallet creates the container for the wallet id.
func (p *Provider) CreateWallet(id string, key []byte) error {
	const op = "create wallet"

	walletKey, err := checkKey(op, key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.openStore(op, id)
	if err != nil {
		return err
	}

	_, err = store.Get(sentinelKey)
	if err == nil {
		return provider.NewError(provider.CodeWalletAlreadyExists, op, fmt.Sprintf("wallet %q already exists", id))
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	s := &session{id: id, store: store, key: walletKey, randSource: p.randSource}

	// the sentinel proves knowledge of the unlock key on open
	sentinel, err := s.encrypt([]byte(id))
	if err != nil {
		return provider.NewError(provider.CodeCryptoFailed, op, err.Error())
	}

	if err := store.Put(sentinelKey, sentinel); err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	logger.Debugf("created wallet %q", id)

	return nil
}

// OpenWallet opens the container and returns a handle. Opening a wallet that
// is already open returns the existing handle.
func (p *Provider) OpenWallet(id string, key []byte) (provider.WalletHandle, error) {
	const op = "open wallet"

	walletKey, err := checkKey(op, key)
	if err != nil {
		return provider.InvalidHandle, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if handle, ok := p.byID[id]; ok {
		return handle, nil
	}

	store, err := p.openStore(op, id)
	if err != nil {
		return provider.InvalidHandle, err
	}

	s := &session{id: id, store: store, key: walletKey, randSource: p.randSource}

	sentinel, err := store.Get(sentinelKey)
	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.InvalidHandle,
			provider.NewError(provider.CodeWalletNotFound, op, fmt.Sprintf("wallet %q not found", id))
	} else if err != nil {
		return provider.InvalidHandle, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	if _, err := s.decrypt(sentinel); err != nil {
		return provider.InvalidHandle,
			provider.NewError(provider.CodeWalletAccessFailed, op, "unlock key does not match wallet")
	}

	handle := p.nextHandle
	p.nextHandle++

	p.sessions[handle] = s
	p.byID[id] = handle

	logger.Debugf("opened wallet %q with handle %d", id, handle)

	return handle, nil
}

// CloseWallet invalidates the handle.
func (p *Provider) CloseWallet(handle provider.WalletHandle) error {
	const op = "close wallet"

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[handle]
	if !ok {
		return provider.NewError(provider.CodeWalletInvalidHandle, op, fmt.Sprintf("unknown handle %d", handle))
	}

	delete(p.sessions, handle)
	delete(p.byID, s.id)

	logger.Debugf("closed wallet %q", s.id)

	return nil
}

// DeleteWallet removes a closed container and every record in it.
func (p *Provider) DeleteWallet(id string, key []byte) error {
	const op = "delete wallet"

	walletKey, err := checkKey(op, key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byID[id]; ok {
		return provider.NewError(provider.CodeWalletAlreadyOpen, op, fmt.Sprintf("wallet %q is open", id))
	}

	store, err := p.openStore(op, id)
	if err != nil {
		return err
	}

	s := &session{id: id, store: store, key: walletKey, randSource: p.randSource}

	sentinel, err := store.Get(sentinelKey)
	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletNotFound, op, fmt.Sprintf("wallet %q not found", id))
	} else if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	if _, err := s.decrypt(sentinel); err != nil {
		return provider.NewError(provider.CodeWalletAccessFailed, op, "unlock key does not match wallet")
	}

	for _, tag := range []string{tagMyDid, tagTheirKey, tagKeyPair, tagPairwise} {
		if err := deleteByTag(store, tag); err != nil {
			return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
		}
	}

	if err := store.Delete(sentinelKey); err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	if err := store.Close(); err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	logger.Debugf("deleted wallet %q", id)

	return nil
}

func (p *Provider) openStore(op, id string) (storage.Store, error) {
	store, err := p.storage.OpenStore(storeNamePrefix + id)
	if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	err = p.storage.SetStoreConfig(storeNamePrefix+id,
		storage.StoreConfiguration{TagNames: []string{tagMyDid, tagTheirKey, tagKeyPair, tagPairwise}})
	if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return store, nil
}

// getSession resolves a handle under the read lock.
func (p *Provider) getSession(op string, handle provider.WalletHandle) (*session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[handle]
	if !ok {
		return nil, provider.NewError(provider.CodeWalletInvalidHandle, op, fmt.Sprintf("unknown handle %d", handle))
	}

	return s, nil
}

func deleteByTag(store storage.Store, tag string) error {
	iter, err := store.Query(tag)
	if err != nil {
		return err
	}

	defer func() {
		if errClose := iter.Close(); errClose != nil {
			logger.Warnf("failed to close iterator: %s", errClose)
		}
	}()

	var keys []string

	more, err := iter.Next()
	for ; err == nil && more; more, err = iter.Next() {
		key, keyErr := iter.Key()
		if keyErr != nil {
			return keyErr
		}

		keys = append(keys, key)
	}

	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := store.Delete(key); err != nil {
			return err
		}
	}

	return nil
}

func checkKey(op string, key []byte) (*[walletKeySize]byte, error) {
	if len(key) != walletKeySize {
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("unlock key must be %d bytes, got %d", walletKeySize, len(key)))
	}

	var walletKey [walletKeySize]byte
	copy(walletKey[:], key)

	return &walletKey, nil
}

// encrypt seals a record value with the wallet unlock key.
func (s *session) encrypt(plaintext []byte) ([]byte, error) {
	var nonce [secretNonceSize]byte
	if _, err := io.ReadFull(s.randSource, nonce[:]); err != nil {
		return nil, err
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, s.key), nil
}

// decrypt opens a record value sealed by encrypt.
func (s *session) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < secretNonceSize {
		return nil, errors.New("record value too short")
	}

	var nonce [secretNonceSize]byte
	copy(nonce[:], ciphertext[:secretNonceSize])

	out, ok := secretbox.Open(nil, ciphertext[secretNonceSize:], &nonce, s.key)
	if !ok {
		return nil, errors.New("failed to decrypt record value")
	}

	return out, nil
}
