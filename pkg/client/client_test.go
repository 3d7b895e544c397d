/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/envelope"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/ledger"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/pairwise"
)

func TestWalletLifecycle(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	w1, err := c.SetupWallet("w1")
	require.NoError(t, err)

	// idempotent: same handle both times
	again, err := c.SetupWallet("w1")
	require.NoError(t, err)
	require.Equal(t, w1.Handle, again.Handle)

	require.NoError(t, c.CloseWallet("w1"))
	require.NoError(t, c.CloseWallet("w1"))
	require.NoError(t, c.DeleteWallet("w1"))
}

func TestErrorKinds(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	w, err := c.SetupWallet("w1")
	require.NoError(t, err)

	_, err = c.RetrievePairwise(w, "nobody")

	clientErr := &Error{}
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, KindRelationship, clientErr.Kind)
	require.ErrorIs(t, err, pairwise.ErrNotFound)

	err = c.RegisterDidOnLedger(context.Background(), "d", "v")
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, KindLedger, clientErr.Kind)
}

func TestRegisterDidOnLedger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(WithLedger(ledger.New(server.URL)))
	require.NoError(t, err)

	require.NoError(t, c.RegisterDidOnLedger(context.Background(), "did123", "verkey123"))
}

// TestConnectionExchange walks both sides of a full exchange and the
// secure messaging that follows it.
func TestConnectionExchange(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	w1, err := c.SetupWallet("w1")
	require.NoError(t, err)

	w2, err := c.SetupWallet("w2")
	require.NoError(t, err)

	alice, err := c.CreateDid(w1, "Alice")
	require.NoError(t, err)

	bob, err := c.CreateDid(w2, "Bob")
	require.NoError(t, err)

	// Alice invites.
	inv := c.CreateInvitation("Alice", alice.Verkey, "https://alice.example.com")
	require.Equal(t, []string{alice.Verkey}, inv.RecipientKeys)

	// Bob requests.
	req := c.CreateExchangeRequest(bob, "https://bob.example.com", "Bob")

	// Alice responds, signing the connection block.
	resp := c.CreateExchangeResponse(alice, "https://alice.example.com", req)
	require.Equal(t, req.ID, resp.Thread.ID)

	signed, err := c.SignExchangeResponse(w1, resp)
	require.NoError(t, err)

	// Bob verifies and acknowledges.
	verified, stamp, err := c.VerifySignedExchangeResponse(signed)
	require.NoError(t, err)
	require.False(t, stamp.IsZero())
	require.Equal(t, alice.Did, verified.Connection.DID)

	ack := c.CreateAcknowledgement(bob, "https://bob.example.com", verified)
	require.Equal(t, verified.ID, ack.Thread.ID)

	// Both sides record the relationship.
	require.NoError(t, c.StoreTheirDid(w1, bob.Did, bob.Verkey))
	require.NoError(t, c.CreatePairwise(w1, bob.Did, alice.Did, map[string]string{"label": "Bob"}))

	theirVerkey := verified.Connection.DIDDoc.PublicKey[0].Specifier()
	require.NoError(t, c.StoreTheirDid(w2, verified.Connection.DID, theirVerkey))
	require.NoError(t, c.CreatePairwise(w2, verified.Connection.DID, bob.Did, map[string]string{"label": "Alice"}))

	exists, err := c.PairwiseExists(w1, bob.Did)
	require.NoError(t, err)
	require.True(t, exists)

	// Authenticated messaging over the established relationship.
	env, err := c.PackMessage(w1, []byte("hi bob"), []string{bob.Verkey}, alice.Verkey)
	require.NoError(t, err)

	opened, err := c.UnpackMessage(w2, env)
	require.NoError(t, err)
	require.Equal(t, []byte("hi bob"), opened.Message)
	require.Equal(t, alice.Verkey, opened.SenderVerkey)
	require.Equal(t, bob.Verkey, opened.RecipientVerkey)
}

func TestVerifySignatureMismatch(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	w, err := c.SetupWallet("w1")
	require.NoError(t, err)

	d, err := c.CreateDid(w, "Alice")
	require.NoError(t, err)

	signature, err := c.SignMessage(w, []byte("msg"), d.Verkey)
	require.NoError(t, err)

	require.NoError(t, c.VerifySignature(signature, []byte("msg"), d.Verkey))

	err = c.VerifySignature(signature, []byte("tampered"), d.Verkey)
	require.True(t, errors.Is(err, envelope.ErrSignatureVerification))

	clientErr := &Error{}
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, KindSignature, clientErr.Kind)
}
