/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package envelope packs, unpacks, signs and verifies agent-to-agent
// messages in the legacy JWM envelope format.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/wallet"
)

var logger = log.New("sudo-di/envelope")

// ErrSignatureVerification is returned by VerifySignature when a
// well-formed signature does not match the message. Malformed input
// surfaces as a different error.
var ErrSignatureVerification = errors.New("signature verification failed")

// Envelope is an encrypted agent message. All four fields carry base64
// text per the JWM 1.0 legacy format.
type Envelope struct {
	Protected  string `json:"protected"`
	CipherText string `json:"ciphertext"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
}

// UnpackedMessage is the result of opening an Envelope. SenderVerkey is
// empty when the message was packed anonymously.
type UnpackedMessage struct {
	Message         []byte
	SenderVerkey    string
	RecipientVerkey string
}

// Service packs and unpacks envelopes with keys held in a wallet.
type Service struct {
	provider provider.Provider
}

// New returns a new envelope service.
func New(p provider.Provider) *Service {
	return &Service{provider: p}
}

// Pack encrypts message for the given recipient verkeys. A non-empty
// senderVerkey authenticates the sender (authcrypt); an empty one packs
// anonymously (anoncrypt). The sender verkey must belong to the wallet.
func (s *Service) Pack(w *wallet.Wallet, message []byte, recipientVerkeys []string, senderVerkey string) (*Envelope, error) {
	if len(recipientVerkeys) == 0 {
		return nil, errors.New("pack: no recipient verkeys")
	}

	recipients, err := json.Marshal(recipientVerkeys)
	if err != nil {
		return nil, fmt.Errorf("pack: encode recipients: %w", err)
	}

	raw, err := s.provider.Pack(w.Handle, message, recipients, senderVerkey)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}

	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("pack: decode envelope: %w", err)
	}

	if env.Protected == "" || env.CipherText == "" || env.IV == "" || env.Tag == "" {
		return nil, errors.New("pack: incomplete envelope")
	}

	logger.Debugf("packed message for %d recipient(s)", len(recipientVerkeys))

	return env, nil
}

// Unpack decrypts an envelope addressed to a key in the wallet.
func (s *Service) Unpack(w *wallet.Wallet, env *Envelope) (*UnpackedMessage, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("unpack: encode envelope: %w", err)
	}

	opened, err := s.provider.Unpack(w.Handle, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	result := struct {
		Message         []byte `json:"message"`
		SenderVerkey    string `json:"sender_verkey,omitempty"`
		RecipientVerkey string `json:"recipient_verkey"`
	}{}

	if err := json.Unmarshal(opened, &result); err != nil {
		return nil, fmt.Errorf("unpack: decode result: %w", err)
	}

	return &UnpackedMessage{
		Message:         result.Message,
		SenderVerkey:    result.SenderVerkey,
		RecipientVerkey: result.RecipientVerkey,
	}, nil
}

// SignMessage signs message with the wallet key identified by
// signerVerkey and returns the raw signature bytes.
func (s *Service) SignMessage(w *wallet.Wallet, message []byte, signerVerkey string) ([]byte, error) {
	signature, err := s.provider.Sign(w.Handle, message, signerVerkey)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	return signature, nil
}

// VerifySignature checks signature over message against signerVerkey and
// returns ErrSignatureVerification on mismatch. The verkey is the public
// key, so no wallet is involved.
func (s *Service) VerifySignature(signature, message []byte, signerVerkey string) error {
	ok, err := s.provider.Verify(signature, message, signerVerkey)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if !ok {
		return ErrSignatureVerification
	}

	return nil
}
