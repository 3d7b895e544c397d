/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/tink/go/subtle/random"
	storage "github.com/hyperledger/aries-framework-go/spi/storage"
	chacha "golang.org/x/crypto/chacha20poly1305"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/internal/cryptoutil"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

const (
	// encodingType is the `typ` identifier of the legacy envelope format.
	encodingType = "JWM/1.0"

	encAlgorithm = "chacha20poly1305_ietf"

	algAuthcrypt = "Authcrypt"
	algAnoncrypt = "Anoncrypt"

	poly1305TagSize = 16
)

// legacyEnvelope is the full payload envelope for the JSON message.
type legacyEnvelope struct {
	Protected  string `json:"protected,omitempty"`
	IV         string `json:"iv,omitempty"`
	CipherText string `json:"ciphertext,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

// protected is the protected header of the JSON envelope.
type protected struct {
	Enc        string      `json:"enc,omitempty"`
	Typ        string      `json:"typ,omitempty"`
	Alg        string      `json:"alg,omitempty"`
	Recipients []recipient `json:"recipients,omitempty"`
}

// recipient holds the data for a recipient in the envelope header.
type recipient struct {
	EncryptedKey string          `json:"encrypted_key,omitempty"`
	Header       recipientHeader `json:"header,omitempty"`
}

// recipientHeader holds the header data for a recipient.
type recipientHeader struct {
	KID    string `json:"kid,omitempty"`
	Sender string `json:"sender,omitempty"`
	IV     string `json:"iv,omitempty"`
}

// unpackedMessage is the JSON result of Unpack. Message is raw bytes, so
// it travels base64-encoded; decoding into a []byte field reverses that.
type unpackedMessage struct {
	Message         []byte `json:"message"`
	SenderVerkey    string `json:"sender_verkey,omitempty"`
	RecipientVerkey string `json:"recipient_verkey"`
}

// Pack encrypts a message into a legacy JWM envelope. An empty senderVerkey
// produces an Anoncrypt envelope, otherwise Authcrypt.
func (p *Provider) Pack(handle provider.WalletHandle, message, recipientKeys []byte,
	senderVerkey string) ([]byte, error) {
	const op = "pack"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	var recipients []string

	if err := json.Unmarshal(recipientKeys, &recipients); err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, "recipient keys are not a JSON string array")
	}

	if len(recipients) == 0 {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, "empty recipients")
	}

	cek := random.GetRandomBytes(uint32(chacha.KeySize))

	var (
		alg                 string
		encryptedRecipients []recipient
	)

	if senderVerkey != "" {
		alg = algAuthcrypt
		encryptedRecipients, err = s.buildAuthRecipients(cek, recipients, senderVerkey)
	} else {
		alg = algAnoncrypt
		encryptedRecipients, err = buildAnonRecipients(cek, recipients, s.randSource)
	}

	if err != nil {
		return nil, translatePackErr(op, err)
	}

	protectedBytes, err := json.Marshal(protected{
		Enc:        encAlgorithm,
		Typ:        encodingType,
		Alg:        alg,
		Recipients: encryptedRecipients,
	})
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	protectedB64 := base64.URLEncoding.EncodeToString(protectedBytes)

	nonce := random.GetRandomBytes(uint32(chacha.NonceSize))

	chachaCipher, err := chacha.New(cek)
	if err != nil {
		return nil, provider.NewError(provider.CodeCryptoFailed, op, err.Error())
	}

	// the protected header is bound into the ciphertext as AAD
	payload := chachaCipher.Seal(nil, nonce, message, []byte(protectedB64))

	cipherText := payload[:len(payload)-poly1305TagSize]
	tag := payload[len(payload)-poly1305TagSize:]

	envelope, err := json.Marshal(legacyEnvelope{
		Protected:  protectedB64,
		IV:         base64.URLEncoding.EncodeToString(nonce),
		CipherText: base64.URLEncoding.EncodeToString(cipherText),
		Tag:        base64.URLEncoding.EncodeToString(tag),
	})
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
	}

	return envelope, nil
}

// buildAuthRecipients wraps the cek for each recipient, binding the sender
// key so the recipient can authenticate it.
func (s *session) buildAuthRecipients(cek []byte, recipients []string, senderVerkey string) ([]recipient, error) {
	senderPriv, err := s.signingKey(senderVerkey)
	if err != nil {
		return nil, err
	}

	senderPrivCurve, err := cryptoutil.SecretEd25519toCurve25519(senderPriv)
	if err != nil {
		return nil, err
	}

	encodedRecipients := make([]recipient, 0, len(recipients))

	for _, recKey := range recipients {
		recPubCurve, err := cryptoutil.PublicEd25519toCurve25519(base58.Decode(recKey))
		if err != nil {
			return nil, err
		}

		nonce := random.GetRandomBytes(uint32(cryptoutil.NonceSize))
		encCEK := boxEasy(cek, nonce, recPubCurve, senderPrivCurve)

		// the sender verkey travels box-sealed so only this recipient learns it
		encSender, err := boxSeal([]byte(senderVerkey), recPubCurve, s.randSource)
		if err != nil {
			return nil, err
		}

		encodedRecipients = append(encodedRecipients, recipient{
			EncryptedKey: base64.URLEncoding.EncodeToString(encCEK),
			Header: recipientHeader{
				KID:    recKey,
				Sender: base64.URLEncoding.EncodeToString(encSender),
				IV:     base64.URLEncoding.EncodeToString(nonce),
			},
		})
	}

	return encodedRecipients, nil
}

// buildAnonRecipients wraps the cek for each recipient without any sender
// information.
func buildAnonRecipients(cek []byte, recipients []string, randSource io.Reader) ([]recipient, error) {
	encodedRecipients := make([]recipient, 0, len(recipients))

	for _, recKey := range recipients {
		recPubCurve, err := cryptoutil.PublicEd25519toCurve25519(base58.Decode(recKey))
		if err != nil {
			return nil, err
		}

		encCEK, err := boxSeal(cek, recPubCurve, randSource)
		if err != nil {
			return nil, err
		}

		encodedRecipients = append(encodedRecipients, recipient{
			EncryptedKey: base64.URLEncoding.EncodeToString(encCEK),
			Header:       recipientHeader{KID: recKey},
		})
	}

	return encodedRecipients, nil
}

func translatePackErr(op string, err error) error {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletItemNotFound, op, "sender key not found in wallet")
	}

	return provider.NewError(provider.CodeCryptoFailed, op, err.Error())
}
