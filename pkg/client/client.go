/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client is the single entry point of the agent: it composes the
// wallet lifecycle manager with the identifier, relationship, envelope
// and exchange services behind one facade.
//
// All methods are safe for concurrent use. Every failure is a *Error
// carrying the subsystem Kind, the failing operation and the cause.
package client

import (
	"context"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/did"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/didcomm/protocol/exchange"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/envelope"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/keystore"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/ledger"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/pairwise"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider/local"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/wallet"
)

// Client is a decentralized identity agent.
type Client struct {
	cryptoProvider provider.Provider
	keys           keystore.Store
	ledgerClient   *ledger.Client

	wallets   *wallet.Manager
	dids      *did.Service
	pairwise  *pairwise.Service
	envelopes *envelope.Service
	exchange  *exchange.Service
}

// Option configures a Client.
type Option func(*Client) error

// WithCryptoProvider replaces the default in-process software provider.
func WithCryptoProvider(p provider.Provider) Option {
	return func(c *Client) error {
		c.cryptoProvider = p
		return nil
	}
}

// WithKeyStore replaces the default in-memory wallet unlock key store.
func WithKeyStore(keys keystore.Store) Option {
	return func(c *Client) error {
		c.keys = keys
		return nil
	}
}

// WithLedger enables RegisterDidOnLedger against the given client.
func WithLedger(ledgerClient *ledger.Client) Option {
	return func(c *Client) error {
		c.ledgerClient = ledgerClient
		return nil
	}
}

// New builds a Client. Without options it runs fully in process: the
// software crypto provider over in-memory storage and an in-memory
// unlock key store. Such a client keeps no state across restarts.
func New(opts ...Option) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.cryptoProvider == nil {
		c.cryptoProvider = local.New(mem.NewProvider())
	}

	if c.keys == nil {
		keys, err := keystore.New(mem.NewProvider())
		if err != nil {
			return nil, wrapErr(KindWallet, "new client", err)
		}

		c.keys = keys
	}

	c.wallets = wallet.NewManager(c.cryptoProvider, c.keys)
	c.dids = did.New(c.cryptoProvider)
	c.pairwise = pairwise.New(c.cryptoProvider)
	c.envelopes = envelope.New(c.cryptoProvider)
	c.exchange = exchange.New(c.envelopes)

	return c, nil
}

// SetupWallet opens the wallet with the given id, creating it on first
// use. Safe to call repeatedly and concurrently for the same id.
func (c *Client) SetupWallet(walletID string) (*wallet.Wallet, error) {
	w, err := c.wallets.EnsureOpen(walletID)

	return w, wrapErr(KindWallet, "setup wallet", err)
}

// CloseWallet closes the wallet if it is open.
func (c *Client) CloseWallet(walletID string) error {
	return wrapErr(KindWallet, "close wallet", c.wallets.Close(walletID))
}

// DeleteWallet closes the wallet and destroys its stored contents.
func (c *Client) DeleteWallet(walletID string) error {
	return wrapErr(KindWallet, "delete wallet", c.wallets.Delete(walletID))
}

// CreateDid generates a new identity in the wallet under the given
// label.
func (c *Client) CreateDid(w *wallet.Wallet, label string) (*did.Did, error) {
	d, err := c.dids.Create(w, label)

	return d, wrapErr(KindIdentifier, "create did", err)
}

// ListDids returns every identity created in the wallet.
func (c *Client) ListDids(w *wallet.Wallet) ([]did.Did, error) {
	dids, err := c.dids.List(w)

	return dids, wrapErr(KindIdentifier, "list dids", err)
}

// UpdateDidMetadata replaces the identity's metadata wholesale.
func (c *Client) UpdateDidMetadata(w *wallet.Wallet, didID string, metadata map[string]string) error {
	return wrapErr(KindIdentifier, "update did metadata", c.dids.UpdateMetadata(w, didID, metadata))
}

// KeyForDid resolves a DID, own or peer, to its verkey.
func (c *Client) KeyForDid(w *wallet.Wallet, didID string) (string, error) {
	verkey, err := c.dids.KeyFor(w, didID)

	return verkey, wrapErr(KindIdentifier, "key for did", err)
}

// StoreTheirDid registers a peer's DID and verkey in the wallet.
func (c *Client) StoreTheirDid(w *wallet.Wallet, didID, verkey string) error {
	return wrapErr(KindIdentifier, "store their did", c.dids.StoreTheir(w, didID, verkey))
}

// RegisterDidOnLedger anchors the DID on the configured ledger. It is
// independent of wallet state; a DID is usable without being anchored.
func (c *Client) RegisterDidOnLedger(ctx context.Context, didID, verkey string) error {
	if c.ledgerClient == nil {
		return wrapErr(KindLedger, "register did", errNoLedger)
	}

	return wrapErr(KindLedger, "register did", c.ledgerClient.Register(ctx, didID, verkey))
}

// CreatePairwise records a relationship with a peer whose key was
// previously stored via StoreTheirDid.
func (c *Client) CreatePairwise(w *wallet.Wallet, theirDid, myDid string, metadata map[string]string) error {
	return wrapErr(KindRelationship, "create pairwise", c.pairwise.Create(w, theirDid, myDid, metadata))
}

// ListPairwise returns every recorded relationship.
func (c *Client) ListPairwise(w *wallet.Wallet) ([]pairwise.Pairwise, error) {
	pairs, err := c.pairwise.List(w)

	return pairs, wrapErr(KindRelationship, "list pairwise", err)
}

// PairwiseExists reports whether a relationship with the peer exists.
func (c *Client) PairwiseExists(w *wallet.Wallet, theirDid string) (bool, error) {
	exists, err := c.pairwise.Exists(w, theirDid)

	return exists, wrapErr(KindRelationship, "pairwise exists", err)
}

// RetrievePairwise returns the relationship with the peer, or an error
// wrapping pairwise.ErrNotFound.
func (c *Client) RetrievePairwise(w *wallet.Wallet, theirDid string) (*pairwise.Pairwise, error) {
	pw, err := c.pairwise.Retrieve(w, theirDid)

	return pw, wrapErr(KindRelationship, "retrieve pairwise", err)
}

// UpdatePairwiseMetadata replaces the relationship's metadata wholesale.
func (c *Client) UpdatePairwiseMetadata(w *wallet.Wallet, theirDid string, metadata map[string]string) error {
	return wrapErr(KindRelationship, "update pairwise metadata", c.pairwise.UpdateMetadata(w, theirDid, metadata))
}

// PackMessage encrypts a message for the recipient verkeys. An empty
// senderVerkey packs anonymously.
func (c *Client) PackMessage(w *wallet.Wallet, message []byte, recipientVerkeys []string, senderVerkey string) (*envelope.Envelope, error) {
	env, err := c.envelopes.Pack(w, message, recipientVerkeys, senderVerkey)

	return env, wrapErr(KindEnvelope, "pack message", err)
}

// UnpackMessage decrypts an envelope addressed to a key in the wallet.
func (c *Client) UnpackMessage(w *wallet.Wallet, env *envelope.Envelope) (*envelope.UnpackedMessage, error) {
	msg, err := c.envelopes.Unpack(w, env)

	return msg, wrapErr(KindEnvelope, "unpack message", err)
}

// SignMessage signs raw bytes with a wallet key.
func (c *Client) SignMessage(w *wallet.Wallet, message []byte, signerVerkey string) ([]byte, error) {
	signature, err := c.envelopes.SignMessage(w, message, signerVerkey)

	return signature, wrapErr(KindSignature, "sign message", err)
}

// VerifySignature checks a raw signature against the public signerVerkey;
// a mismatch wraps envelope.ErrSignatureVerification.
func (c *Client) VerifySignature(signature, message []byte, signerVerkey string) error {
	return wrapErr(KindSignature, "verify signature", c.envelopes.VerifySignature(signature, message, signerVerkey))
}

// CreateInvitation builds an out-of-band invitation for the given
// verkey and endpoint.
func (c *Client) CreateInvitation(label, verkey, serviceEndpoint string) *exchange.Invitation {
	return exchange.NewInvitation(label, verkey, serviceEndpoint)
}

// CreateExchangeRequest builds the invitee's reply to an invitation.
func (c *Client) CreateExchangeRequest(d *did.Did, serviceEndpoint, label string) *exchange.Request {
	return exchange.NewRequest(d, serviceEndpoint, label)
}

// CreateExchangeResponse builds the inviter's response to a request.
func (c *Client) CreateExchangeResponse(d *did.Did, serviceEndpoint string, request *exchange.Request) *exchange.Response {
	return exchange.NewResponse(d, serviceEndpoint, request)
}

// SignExchangeResponse produces the wire form of a response, its
// connection block replaced by a timestamped signature.
func (c *Client) SignExchangeResponse(w *wallet.Wallet, response *exchange.Response) (*exchange.SignedResponse, error) {
	signed, err := c.exchange.SignResponse(w, response)

	return signed, wrapErr(KindSignature, "sign exchange response", err)
}

// VerifySignedExchangeResponse verifies a signed response and returns
// the reconstructed response with the signing timestamp.
func (c *Client) VerifySignedExchangeResponse(signed *exchange.SignedResponse) (*exchange.Response, time.Time, error) {
	response, stamp, err := c.exchange.VerifyResponse(signed)

	return response, stamp, wrapErr(KindSignature, "verify exchange response", err)
}

// CreateAcknowledgement builds the terminal message of an exchange.
func (c *Client) CreateAcknowledgement(d *did.Did, serviceEndpoint string, response *exchange.Response) *exchange.Acknowledgement {
	return exchange.NewAcknowledgement(d, serviceEndpoint, response)
}
