/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cryptoutil

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/teserakt-io/golang-ed25519/extra25519"
	"golang.org/x/crypto/blake2b"
)

const (
	// NonceSize is the size of a libsodium box nonce.
	NonceSize = 24

	// Curve25519KeySize is the size of a Curve25519 key.
	Curve25519KeySize = 32
)

// ErrKeyNotEd25519 is returned when a key of the wrong length is given to a conversion.
var ErrKeyNotEd25519 = errors.New("key not an ed25519 key")

// Nonce makes a nonce using blake2b, to match the format expected by libsodium sealed boxes.
func Nonce(pub1, pub2 []byte) (*[NonceSize]byte, error) {
	var nonce [NonceSize]byte

	nonceWriter, err := blake2b.New(NonceSize, nil)
	if err != nil {
		return nil, err
	}

	_, err = nonceWriter.Write(pub1)
	if err != nil {
		return nil, err
	}

	_, err = nonceWriter.Write(pub2)
	if err != nil {
		return nil, err
	}

	nonceOut := nonceWriter.Sum(nil)
	copy(nonce[:], nonceOut)

	return &nonce, nil
}

// PublicEd25519toCurve25519 converts an Ed25519 public key to a Curve25519 public key.
func PublicEd25519toCurve25519(pub []byte) ([]byte, error) {
	if len(pub) == 0 {
		return nil, errors.New("public key is nil")
	}

	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %d-byte key size is invalid", ErrKeyNotEd25519, len(pub))
	}

	pkIn := new([Curve25519KeySize]byte)
	copy(pkIn[:], pub)

	pkOut := new([Curve25519KeySize]byte)

	success := extra25519.PublicKeyToCurve25519(pkOut, pkIn)
	if !success {
		return nil, errors.New("error converting public key")
	}

	return pkOut[:], nil
}

// SecretEd25519toCurve25519 converts a private Ed25519 key to a Curve25519 private key.
func SecretEd25519toCurve25519(priv []byte) ([]byte, error) {
	if len(priv) == 0 {
		return nil, errors.New("private key is nil")
	}

	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d-byte key size is invalid", ErrKeyNotEd25519, len(priv))
	}

	sKIn := new([ed25519.PrivateKeySize]byte)
	copy(sKIn[:], priv)

	sKOut := new([Curve25519KeySize]byte)
	extra25519.PrivateKeyToCurve25519(sKOut, sKIn)

	return sKOut[:], nil
}
