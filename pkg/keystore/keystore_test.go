/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	s, err := New(mem.NewProvider())
	require.NoError(t, err)

	_, ok, err := s.Get("w1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put("w1", []byte("key-material")))

	key, ok, err := s.Get("w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("key-material"), key)

	// replace wholesale
	require.NoError(t, s.Put("w1", []byte("rotated")))

	key, ok, err = s.Get("w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("rotated"), key)
}

func TestEmptyWalletID(t *testing.T) {
	s, err := New(mem.NewProvider())
	require.NoError(t, err)

	require.Error(t, s.Put("", []byte("x")))

	_, _, err = s.Get("")
	require.Error(t, err)
}
