/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"errors"
	"io"

	"golang.org/x/crypto/nacl/box"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/internal/cryptoutil"
)

// The functions below implement the libsodium box constructions the legacy
// envelope format is built on. Payloads are encrypted with XSalsa20Poly1305
// under a shared key derived by Curve25519 Diffie-Hellman.

// boxEasy seals a message with a provided nonce using the sender's private
// curve key and the recipient's public curve key.
func boxEasy(payload, nonce, theirPub, mySec []byte) []byte {
	var (
		recPub     [cryptoutil.Curve25519KeySize]byte
		priv       [cryptoutil.Curve25519KeySize]byte
		nonceBytes [cryptoutil.NonceSize]byte
	)

	copy(recPub[:], theirPub)
	copy(priv[:], mySec)
	copy(nonceBytes[:], nonce)

	return box.Seal(nil, payload, &nonceBytes, &recPub, &priv)
}

// boxEasyOpen unseals a message sealed with boxEasy, given the nonce.
func boxEasyOpen(cipherText, nonce, theirPub, mySec []byte) ([]byte, error) {
	var (
		sendPub    [cryptoutil.Curve25519KeySize]byte
		priv       [cryptoutil.Curve25519KeySize]byte
		nonceBytes [cryptoutil.NonceSize]byte
	)

	copy(sendPub[:], theirPub)
	copy(priv[:], mySec)
	copy(nonceBytes[:], nonce)

	out, success := box.Open(nil, cipherText, &nonceBytes, &sendPub, &priv)
	if !success {
		return nil, errors.New("failed to unpack")
	}

	return out, nil
}

// boxSeal seals a payload to the recipient's public curve key, the
// equivalent of libsodium box_seal: an ephemeral sender key pair is
// generated and its public half prepended to the message. The nonce is
// derived from both public keys.
func boxSeal(payload, theirEncPub []byte, randSource io.Reader) ([]byte, error) {
	epk, esk, err := box.GenerateKey(randSource)
	if err != nil {
		return nil, err
	}

	var recPub [cryptoutil.Curve25519KeySize]byte
	copy(recPub[:], theirEncPub)

	nonce, err := cryptoutil.Nonce(epk[:], theirEncPub)
	if err != nil {
		return nil, err
	}

	return box.Seal(epk[:], payload, nonce, &recPub, esk), nil
}

// boxSealOpen decrypts a payload encrypted with boxSeal using the
// recipient's curve key pair.
func boxSealOpen(cipherText, myEncPub, myEncSec []byte) ([]byte, error) {
	if len(cipherText) < cryptoutil.Curve25519KeySize {
		return nil, errors.New("message too short")
	}

	var (
		epk  [cryptoutil.Curve25519KeySize]byte
		priv [cryptoutil.Curve25519KeySize]byte
	)

	copy(epk[:], cipherText[:cryptoutil.Curve25519KeySize])
	copy(priv[:], myEncSec)

	nonce, err := cryptoutil.Nonce(epk[:], myEncPub)
	if err != nil {
		return nil, err
	}

	out, success := box.Open(nil, cipherText[cryptoutil.Curve25519KeySize:], nonce, &epk, &priv)
	if !success {
		return nil, errors.New("failed to unpack")
	}

	return out, nil
}
