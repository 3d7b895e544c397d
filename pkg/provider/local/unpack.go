/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	storage "github.com/hyperledger/aries-framework-go/spi/storage"
	chacha "golang.org/x/crypto/chacha20poly1305"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/internal/cryptoutil"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

// Unpack decodes an envelope in the legacy format, auto-detecting the
// Authcrypt and Anoncrypt modes.
func (p *Provider) Unpack(handle provider.WalletHandle, envelope []byte) ([]byte, error) {
	const op = "unpack"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	var envelopeData legacyEnvelope

	if err := json.Unmarshal(envelope, &envelopeData); err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	protectedBytes, err := base64.URLEncoding.DecodeString(envelopeData.Protected)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	var protectedData protected

	if err := json.Unmarshal(protectedBytes, &protectedData); err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	if protectedData.Typ != encodingType {
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("message type %s not supported", protectedData.Typ))
	}

	var keys *envelopeKeys

	switch protectedData.Alg {
	case algAuthcrypt:
		keys, err = s.authKeys(protectedData.Recipients)
	case algAnoncrypt:
		keys, err = s.anonKeys(protectedData.Recipients)
	default:
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("message format %s not supported", protectedData.Alg))
	}

	if err != nil {
		return nil, translateUnpackErr(op, err)
	}

	message, err := decodeCipherText(keys.cek, &envelopeData)
	if err != nil {
		return nil, translateUnpackErr(op, err)
	}

	result, err := json.Marshal(unpackedMessage{
		Message:         message,
		SenderVerkey:    keys.senderKey,
		RecipientVerkey: keys.recipientKey,
	})
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	return result, nil
}

type envelopeKeys struct {
	cek          []byte
	senderKey    string
	recipientKey string
}

// findRecipientKeyPair returns the first envelope recipient whose key pair
// is held in this wallet.
func (s *session) findRecipientKeyPair(recipients []recipient) (*recipient, []byte, error) {
	for i := range recipients {
		kid := recipients[i].Header.KID

		priv, err := s.signingKey(kid)
		if err == nil {
			return &recipients[i], priv, nil
		}

		if !errors.Is(err, storage.ErrDataNotFound) {
			return nil, nil, err
		}
	}

	return nil, nil, errors.New("no key accessible for any envelope recipient")
}

// authKeys recovers the cek and sender key of an Authcrypt envelope.
func (s *session) authKeys(recipients []recipient) (*envelopeKeys, error) {
	recip, priv, err := s.findRecipientKeyPair(recipients)
	if err != nil {
		return nil, err
	}

	recPubCurve, err := cryptoutil.PublicEd25519toCurve25519(base58.Decode(recip.Header.KID))
	if err != nil {
		return nil, err
	}

	recPrivCurve, err := cryptoutil.SecretEd25519toCurve25519(priv)
	if err != nil {
		return nil, err
	}

	encSender, err := base64.URLEncoding.DecodeString(recip.Header.Sender)
	if err != nil {
		return nil, err
	}

	senderVerkey, err := boxSealOpen(encSender, recPubCurve, recPrivCurve)
	if err != nil {
		return nil, err
	}

	senderPubCurve, err := cryptoutil.PublicEd25519toCurve25519(base58.Decode(string(senderVerkey)))
	if err != nil {
		return nil, err
	}

	nonce, err := base64.URLEncoding.DecodeString(recip.Header.IV)
	if err != nil {
		return nil, err
	}

	encCEK, err := base64.URLEncoding.DecodeString(recip.EncryptedKey)
	if err != nil {
		return nil, err
	}

	cek, err := boxEasyOpen(encCEK, nonce, senderPubCurve, recPrivCurve)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt CEK: %w", err)
	}

	return &envelopeKeys{
		cek:          cek,
		senderKey:    string(senderVerkey),
		recipientKey: recip.Header.KID,
	}, nil
}

// anonKeys recovers the cek of an Anoncrypt envelope. There is no sender key.
func (s *session) anonKeys(recipients []recipient) (*envelopeKeys, error) {
	recip, priv, err := s.findRecipientKeyPair(recipients)
	if err != nil {
		return nil, err
	}

	recPubCurve, err := cryptoutil.PublicEd25519toCurve25519(base58.Decode(recip.Header.KID))
	if err != nil {
		return nil, err
	}

	recPrivCurve, err := cryptoutil.SecretEd25519toCurve25519(priv)
	if err != nil {
		return nil, err
	}

	encCEK, err := base64.URLEncoding.DecodeString(recip.EncryptedKey)
	if err != nil {
		return nil, err
	}

	cek, err := boxSealOpen(encCEK, recPubCurve, recPrivCurve)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt CEK: %w", err)
	}

	return &envelopeKeys{
		cek:          cek,
		recipientKey: recip.Header.KID,
	}, nil
}

// decodeCipherText decodes (from base64) and decrypts the ciphertext using
// chacha20poly1305. The nonce, tag and key lengths are checked first; the
// cipher panics on bad lengths and the envelope is attacker-supplied.
func decodeCipherText(cek []byte, envelope *legacyEnvelope) ([]byte, error) {
	const op = "unpack"

	aad := []byte(envelope.Protected)

	cipherText, err := base64.URLEncoding.DecodeString(envelope.CipherText)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, "ciphertext is not base64")
	}

	nonce, err := base64.URLEncoding.DecodeString(envelope.IV)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, "iv is not base64")
	}

	if len(nonce) != chacha.NonceSize {
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("iv must be %d bytes, got %d", chacha.NonceSize, len(nonce)))
	}

	tag, err := base64.URLEncoding.DecodeString(envelope.Tag)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, "tag is not base64")
	}

	if len(tag) != poly1305TagSize {
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("tag must be %d bytes, got %d", poly1305TagSize, len(tag)))
	}

	if len(cek) != chacha.KeySize {
		return nil, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("content key must be %d bytes, got %d", chacha.KeySize, len(cek)))
	}

	chachaCipher, err := chacha.New(cek)
	if err != nil {
		return nil, err
	}

	payload := append(cipherText, tag...)

	message, err := chachaCipher.Open(nil, nonce, payload, aad)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func translateUnpackErr(op string, err error) error {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletItemNotFound, op, "recipient key not found in wallet")
	}

	return provider.NewError(provider.CodeCryptoFailed, op, err.Error())
}
