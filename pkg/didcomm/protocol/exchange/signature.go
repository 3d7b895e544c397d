/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/envelope"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/wallet"
)

// timestampLength is the size of the big-endian unix-seconds prefix
// bound into a connection signature.
const timestampLength = 8

// ErrSignatureVerification is returned by VerifyResponse when a
// well-formed connection signature does not verify. Malformed
// signatures surface as decode errors instead.
var ErrSignatureVerification = envelope.ErrSignatureVerification

// SignResponse converts response into its wire form by signing the
// connection block with the first public key of the response's own DID
// document. The signed payload is the current unix time in seconds,
// big-endian, followed by the connection JSON; the timestamp binds a
// freshness claim into the signature.
func (s *Service) SignResponse(w *wallet.Wallet, response *Response) (*SignedResponse, error) {
	if response.Connection == nil || response.Connection.DIDDoc == nil ||
		len(response.Connection.DIDDoc.PublicKey) == 0 {
		return nil, errors.New("sign response: no public key in connection")
	}

	signerVerkey := response.Connection.DIDDoc.PublicKey[0].Specifier()

	connection, err := json.Marshal(response.Connection)
	if err != nil {
		return nil, fmt.Errorf("sign response: encode connection: %w", err)
	}

	toSign := make([]byte, timestampLength+len(connection))
	binary.BigEndian.PutUint64(toSign, uint64(time.Now().Unix()))
	copy(toSign[timestampLength:], connection)

	signature, err := s.envelopes.SignMessage(w, toSign, signerVerkey)
	if err != nil {
		return nil, fmt.Errorf("sign response: %w", err)
	}

	return &SignedResponse{
		Type:   ResponseMsgType,
		ID:     response.ID,
		Thread: response.Thread,
		ConnectionSignature: &ConnectionSignature{
			Type:       signatureType,
			Signature:  base64.URLEncoding.EncodeToString(signature),
			SignedData: base64.URLEncoding.EncodeToString(toSign),
			SignVerKey: signerVerkey,
		},
	}, nil
}

// VerifyResponse checks a signed response's connection signature and
// reconstructs the plaintext response together with the timestamp the
// signer bound into it. Verification needs no wallet; the signer key is
// carried in the signature block. A failed signature check returns
// ErrSignatureVerification; a malformed message returns a decode error.
func (s *Service) VerifyResponse(signed *SignedResponse) (*Response, time.Time, error) {
	if signed.ConnectionSignature == nil {
		return nil, time.Time{}, errors.New("verify response: missing connection signature")
	}

	sig := signed.ConnectionSignature

	signedData, err := base64.URLEncoding.DecodeString(sig.SignedData)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("verify response: decode sig_data: %w", err)
	}

	if len(signedData) <= timestampLength {
		return nil, time.Time{}, errors.New("verify response: sig_data too short")
	}

	signature, err := base64.URLEncoding.DecodeString(sig.Signature)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("verify response: decode signature: %w", err)
	}

	if err := s.envelopes.VerifySignature(signature, signedData, sig.SignVerKey); err != nil {
		return nil, time.Time{}, fmt.Errorf("verify response: %w", err)
	}

	timestamp := time.Unix(int64(binary.BigEndian.Uint64(signedData[:timestampLength])), 0)

	connection := &Connection{}
	if err := json.Unmarshal(signedData[timestampLength:], connection); err != nil {
		return nil, time.Time{}, fmt.Errorf("verify response: decode connection: %w", err)
	}

	return &Response{
		Type:       ResponseMsgType,
		ID:         signed.ID,
		Thread:     signed.Thread,
		Connection: connection,
	}, timestamp, nil
}
