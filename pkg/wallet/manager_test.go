/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/keystore"
	mockprovider "github.com/sudoplatform/sudo-decentralized-identity-go/pkg/mock/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider/local"
)

func newKeyStore(t *testing.T) keystore.Store {
	t.Helper()

	keys, err := keystore.New(mem.NewProvider())
	require.NoError(t, err)

	return keys
}

func TestEnsureOpenIdempotent(t *testing.T) {
	m := NewManager(local.New(mem.NewProvider()), newKeyStore(t))

	w1, err := m.EnsureOpen("w1")
	require.NoError(t, err)
	require.Equal(t, "w1", w1.ID)

	w2, err := m.EnsureOpen("w1")
	require.NoError(t, err)
	require.Equal(t, w1.Handle, w2.Handle)

	other, err := m.EnsureOpen("w2")
	require.NoError(t, err)
	require.NotEqual(t, w1.Handle, other.Handle)
}

func TestEnsureOpenConcurrent(t *testing.T) {
	mock := &mockprovider.Provider{OpenWalletValue: provider.WalletHandle(7)}
	m := NewManager(mock, newKeyStore(t))

	const workers = 32

	var wg sync.WaitGroup

	handles := make([]provider.WalletHandle, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			w, err := m.EnsureOpen("w1")
			if err != nil {
				errs[i] = err

				return
			}

			handles[i] = w.Handle
		}(i)
	}

	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, provider.WalletHandle(7), handles[i])
	}

	// the loader must have run the create/open sequence exactly once
	require.Equal(t, int32(1), atomic.LoadInt32(&mock.OpenWalletCalls))
	require.Equal(t, int32(1), atomic.LoadInt32(&mock.CreateWalletCalls))
}

func TestEnsureOpenExistingWallet(t *testing.T) {
	mock := &mockprovider.Provider{
		CreateWalletErr: provider.NewError(provider.CodeWalletAlreadyExists, "create wallet", "exists"),
		OpenWalletValue: provider.WalletHandle(3),
	}
	m := NewManager(mock, newKeyStore(t))

	w, err := m.EnsureOpen("w1")
	require.NoError(t, err)
	require.Equal(t, provider.WalletHandle(3), w.Handle)
}

func TestEnsureOpenFailures(t *testing.T) {
	t.Run("create fails", func(t *testing.T) {
		mock := &mockprovider.Provider{
			CreateWalletErr: provider.NewError(provider.CodeWalletStorageError, "create wallet", "boom"),
		}
		m := NewManager(mock, newKeyStore(t))

		_, err := m.EnsureOpen("w1")
		require.Error(t, err)
		require.True(t, provider.IsCode(err, provider.CodeWalletStorageError))
	})

	t.Run("open fails", func(t *testing.T) {
		mock := &mockprovider.Provider{
			OpenWalletErr: provider.NewError(provider.CodeWalletAccessFailed, "open wallet", "bad key"),
		}
		m := NewManager(mock, newKeyStore(t))

		_, err := m.EnsureOpen("w1")
		require.True(t, provider.IsCode(err, provider.CodeWalletAccessFailed))
	})

	t.Run("empty id", func(t *testing.T) {
		m := NewManager(&mockprovider.Provider{}, newKeyStore(t))

		_, err := m.EnsureOpen("")
		require.Error(t, err)
	})
}

func TestUnlockKeyReused(t *testing.T) {
	keys := newKeyStore(t)
	m := NewManager(local.New(mem.NewProvider()), keys)

	_, err := m.EnsureOpen("w1")
	require.NoError(t, err)

	key1, ok, err := keys.Get("w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, key1, unlockKeySize)

	require.NoError(t, m.Close("w1"))

	_, err = m.EnsureOpen("w1")
	require.NoError(t, err)

	key2, _, err := keys.Get("w1")
	require.NoError(t, err)
	require.Equal(t, key1, key2)
}

func TestUnlockKeyFetchFailure(t *testing.T) {
	m := NewManager(&mockprovider.Provider{}, failingKeyStore{err: errors.New("keychain down")})

	_, err := m.EnsureOpen("w1")
	require.ErrorContains(t, err, "keychain down")
}

func TestCloseAndDelete(t *testing.T) {
	m := NewManager(local.New(mem.NewProvider()), newKeyStore(t))

	w, err := m.EnsureOpen("w1")
	require.NoError(t, err)

	require.NoError(t, m.Close("w1"))

	// closing again is a no-op
	require.NoError(t, m.Close("w1"))

	// a fresh handle is issued after close
	reopened, err := m.EnsureOpen("w1")
	require.NoError(t, err)
	require.NotEqual(t, w.Handle, reopened.Handle)

	// delete closes internally
	require.NoError(t, m.Delete("w1"))

	// the container is gone; EnsureOpen recreates from scratch
	_, err = m.EnsureOpen("w1")
	require.NoError(t, err)
}

func TestDeleteWithoutUnlockKey(t *testing.T) {
	m := NewManager(&mockprovider.Provider{}, newKeyStore(t))

	err := m.Delete("never-created")
	require.ErrorIs(t, err, ErrUnlockKeyMissing)
}

type failingKeyStore struct {
	err error
}

func (f failingKeyStore) Put(string, []byte) error {
	return f.err
}

func (f failingKeyStore) Get(string) ([]byte, bool, error) {
	return nil, false, f.err
}
