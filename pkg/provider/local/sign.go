/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	storage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

// Sign signs a raw message with the private key behind signerVerkey.
func (p *Provider) Sign(handle provider.WalletHandle, message []byte, signerVerkey string) ([]byte, error) {
	const op = "sign"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	priv, err := s.signingKey(signerVerkey)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, provider.NewError(provider.CodeWalletItemNotFound, op,
			fmt.Sprintf("no key pair for verkey %q", signerVerkey))
	} else if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	if len(priv) != ed25519.PrivateKeySize {
		return nil, provider.NewError(provider.CodeCryptoFailed, op, "stored key pair is not an ed25519 key")
	}

	return ed25519.Sign(priv, message), nil
}

// Verify checks a raw ed25519 signature against the base58 verkey.
func (p *Provider) Verify(signature, message []byte, signerVerkey string) (bool, error) {
	const op = "verify"

	pub := base58.Decode(signerVerkey)
	if len(pub) != ed25519.PublicKeySize {
		return false, provider.NewError(provider.CodeInvalidStructure, op,
			fmt.Sprintf("verkey %q is not a base58 ed25519 public key", signerVerkey))
	}

	if len(signature) != ed25519.SignatureSize {
		return false, provider.NewError(provider.CodeInvalidStructure, op, "signature has invalid length")
	}

	return ed25519.Verify(pub, message, signature), nil
}
