/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

func recipientKeysJSON(t *testing.T, keys ...string) []byte {
	t.Helper()

	raw, err := json.Marshal(keys)
	require.NoError(t, err)

	return raw
}

func unpackResult(t *testing.T, raw []byte) (message []byte, sender, recipient string) {
	t.Helper()

	var result struct {
		Message         []byte `json:"message"`
		SenderVerkey    string `json:"sender_verkey"`
		RecipientVerkey string `json:"recipient_verkey"`
	}

	require.NoError(t, json.Unmarshal(raw, &result))

	return result.Message, result.SenderVerkey, result.RecipientVerkey
}

func TestPackUnpackAuthcrypt(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")

	_, senderKey, err := p.CreateIdentity(senderHandle)
	require.NoError(t, err)

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	envelope, err := p.Pack(senderHandle, []byte("hello there"), recipientKeysJSON(t, recipientKey), senderKey)
	require.NoError(t, err)

	var env legacyEnvelope
	require.NoError(t, json.Unmarshal(envelope, &env))
	require.NotEmpty(t, env.Protected)
	require.NotEmpty(t, env.CipherText)
	require.NotEmpty(t, env.IV)
	require.NotEmpty(t, env.Tag)

	protectedBytes, err := base64.URLEncoding.DecodeString(env.Protected)
	require.NoError(t, err)

	var header protected
	require.NoError(t, json.Unmarshal(protectedBytes, &header))
	require.Equal(t, "JWM/1.0", header.Typ)
	require.Equal(t, "Authcrypt", header.Alg)
	require.Len(t, header.Recipients, 1)
	require.Equal(t, recipientKey, header.Recipients[0].Header.KID)

	raw, err := p.Unpack(recipientHandle, envelope)
	require.NoError(t, err)

	message, sender, recipient := unpackResult(t, raw)
	require.Equal(t, []byte("hello there"), message)
	require.Equal(t, senderKey, sender)
	require.Equal(t, recipientKey, recipient)
}

func TestPackUnpackAnoncrypt(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	envelope, err := p.Pack(senderHandle, []byte("anon hello"), recipientKeysJSON(t, recipientKey), "")
	require.NoError(t, err)

	protectedBytes, err := base64.URLEncoding.DecodeString(jsonField(t, envelope, "protected"))
	require.NoError(t, err)

	var header protected
	require.NoError(t, json.Unmarshal(protectedBytes, &header))
	require.Equal(t, "Anoncrypt", header.Alg)
	require.Empty(t, header.Recipients[0].Header.Sender)

	raw, err := p.Unpack(recipientHandle, envelope)
	require.NoError(t, err)

	message, sender, recipient := unpackResult(t, raw)
	require.Equal(t, []byte("anon hello"), message)
	require.Empty(t, sender)
	require.Equal(t, recipientKey, recipient)
}

func TestPackMultipleRecipients(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")

	_, senderKey, err := p.CreateIdentity(senderHandle)
	require.NoError(t, err)

	_, otherKey, err := p.CreateIdentity(senderHandle)
	require.NoError(t, err)

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	// the wallet that holds any one of the listed keys can unpack
	envelope, err := p.Pack(senderHandle, []byte("multi"), recipientKeysJSON(t, otherKey, recipientKey), senderKey)
	require.NoError(t, err)

	raw, err := p.Unpack(recipientHandle, envelope)
	require.NoError(t, err)

	message, _, recipient := unpackResult(t, raw)
	require.Equal(t, []byte("multi"), message)
	require.Equal(t, recipientKey, recipient)
}

func TestPackErrors(t *testing.T) {
	p := New(mem.NewProvider())
	handle := openTestWallet(t, p, "w1")

	_, verkey, err := p.CreateIdentity(handle)
	require.NoError(t, err)

	_, err = p.Pack(handle, []byte("m"), []byte("not json"), "")
	require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))

	_, err = p.Pack(handle, []byte("m"), recipientKeysJSON(t), "")
	require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))

	// sender key not in this wallet
	_, err = p.Pack(handle, []byte("m"), recipientKeysJSON(t, verkey), "9aE3kCkzzYwYzBkiuO4d1zCrPTg4Qz9fVDJp8aEDW2Hq")
	require.True(t, provider.IsCode(err, provider.CodeWalletItemNotFound))

	_, err = p.Pack(provider.WalletHandle(99), []byte("m"), recipientKeysJSON(t, verkey), "")
	require.True(t, provider.IsCode(err, provider.CodeWalletInvalidHandle))
}

func TestUnpackErrors(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")
	otherHandle := openTestWallet(t, p, "other")

	_, senderKey, err := p.CreateIdentity(senderHandle)
	require.NoError(t, err)

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	envelope, err := p.Pack(senderHandle, []byte("m"), recipientKeysJSON(t, recipientKey), senderKey)
	require.NoError(t, err)

	// wallet without the recipient key cannot unpack
	_, err = p.Unpack(otherHandle, envelope)
	require.True(t, provider.IsCode(err, provider.CodeCryptoFailed))

	_, err = p.Unpack(recipientHandle, []byte("not an envelope"))
	require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))

	// tampered ciphertext must not decrypt
	var env legacyEnvelope
	require.NoError(t, json.Unmarshal(envelope, &env))

	cipherText, err := base64.URLEncoding.DecodeString(env.CipherText)
	require.NoError(t, err)

	cipherText[0] ^= 0xff
	env.CipherText = base64.URLEncoding.EncodeToString(cipherText)

	tampered, err := json.Marshal(env)
	require.NoError(t, err)

	_, err = p.Unpack(recipientHandle, tampered)
	require.True(t, provider.IsCode(err, provider.CodeCryptoFailed))
}

func TestPackUnpackBinaryMessage(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")

	_, senderKey, err := p.CreateIdentity(senderHandle)
	require.NoError(t, err)

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	// invalid UTF-8 on purpose; the payload is arbitrary bytes
	message := []byte{0x00, 0xff, 0xfe, 0x80, 0x01}

	envelope, err := p.Pack(senderHandle, message, recipientKeysJSON(t, recipientKey), senderKey)
	require.NoError(t, err)

	raw, err := p.Unpack(recipientHandle, envelope)
	require.NoError(t, err)

	opened, _, _ := unpackResult(t, raw)
	require.Equal(t, message, opened)
}

func TestUnpackMalformedEnvelope(t *testing.T) {
	p := New(mem.NewProvider())
	senderHandle := openTestWallet(t, p, "sender")
	recipientHandle := openTestWallet(t, p, "recipient")

	_, recipientKey, err := p.CreateIdentity(recipientHandle)
	require.NoError(t, err)

	envelope, err := p.Pack(senderHandle, []byte("m"), recipientKeysJSON(t, recipientKey), "")
	require.NoError(t, err)

	var env legacyEnvelope
	require.NoError(t, json.Unmarshal(envelope, &env))

	mangle := func(t *testing.T, change func(e *legacyEnvelope)) error {
		t.Helper()

		mangled := env
		change(&mangled)

		raw, err := json.Marshal(mangled)
		require.NoError(t, err)

		_, err = p.Unpack(recipientHandle, raw)

		return err
	}

	t.Run("iv wrong length", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			e.IV = base64.URLEncoding.EncodeToString(make([]byte, 8))
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})

	t.Run("iv not base64", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			e.IV = "!!!"
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})

	t.Run("tag wrong length", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			e.Tag = base64.URLEncoding.EncodeToString(make([]byte, 4))
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})

	t.Run("ciphertext not base64", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			e.CipherText = "!!!"
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})

	t.Run("protected not base64", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			e.Protected = "!!!"
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})

	t.Run("protected truncated", func(t *testing.T) {
		err := mangle(t, func(e *legacyEnvelope) {
			protectedBytes, decodeErr := base64.URLEncoding.DecodeString(e.Protected)
			require.NoError(t, decodeErr)
			e.Protected = base64.URLEncoding.EncodeToString(protectedBytes[:len(protectedBytes)/2])
		})
		require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
	})
}

func TestSignVerify(t *testing.T) {
	p := New(mem.NewProvider())
	handle := openTestWallet(t, p, "w1")

	_, verkey, err := p.CreateIdentity(handle)
	require.NoError(t, err)

	message := []byte("sign me")

	signature, err := p.Sign(handle, message, verkey)
	require.NoError(t, err)

	ok, err := p.Verify(signature, message, verkey)
	require.NoError(t, err)
	require.True(t, ok)

	// flipped bit fails verification, not with an error
	signature[0] ^= 0x01
	ok, err = p.Verify(signature, message, verkey)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = p.Sign(handle, message, "unknownverkey")
	require.True(t, provider.IsCode(err, provider.CodeWalletItemNotFound))

	_, err = p.Verify(signature, message, "not-base58-!!")
	require.True(t, provider.IsCode(err, provider.CodeInvalidStructure))
}

func jsonField(t *testing.T, raw []byte, field string) string {
	t.Helper()

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	value, _ := m[field].(string)

	return value
}
