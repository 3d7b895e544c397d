/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package provider defines the cryptographic provider capability that the
// rest of the agent delegates to: wallet containers, identity key pairs,
// pairwise records, envelope encryption and raw signing. The agent never
// touches private key material itself; it only holds opaque wallet handles
// issued by a Provider.
package provider

// WalletHandle is an opaque reference to an open wallet container.
// A handle is only valid between the OpenWallet call that issued it and the
// matching CloseWallet call.
type WalletHandle int32

// InvalidHandle is never issued by a Provider.
const InvalidHandle WalletHandle = 0

// DidRecord is a stored identity as the provider returns it. Metadata is the
// raw stored blob (base64-encoded JSON), left for callers to decode.
type DidRecord struct {
	Did        string `json:"did"`
	Verkey     string `json:"verkey"`
	TempVerkey string `json:"temp_verkey,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
}

// PairwiseRecord is a stored peer relationship as the provider returns it.
// Metadata is the raw stored blob, as for DidRecord.
type PairwiseRecord struct {
	MyDid    string `json:"my_did"`
	TheirDid string `json:"their_did"`
	Metadata string `json:"metadata,omitempty"`
}

// Provider is the cryptographic and wallet-container capability.
//
// Implementations must be safe for concurrent use. Errors are reported as
// *Error values carrying provider codes; callers translate codes into their
// own error kinds and treat the "already exists"/"already open" codes as
// success where the operation is idempotent.
type Provider interface {
	// CreateWallet creates the secure storage container for the given wallet
	// id, protected by the given unlock key. Returns CodeWalletAlreadyExists
	// when a container for the id exists.
	CreateWallet(id string, key []byte) error

	// OpenWallet opens the container and returns a live handle. Opening an
	// already-open wallet returns the existing handle.
	OpenWallet(id string, key []byte) (WalletHandle, error)

	// CloseWallet invalidates the handle. Closing an unknown handle returns
	// CodeWalletInvalidHandle.
	CloseWallet(handle WalletHandle) error

	// DeleteWallet removes the closed container and all records in it.
	DeleteWallet(id string, key []byte) error

	// CreateIdentity generates a fresh signing key pair inside the wallet and
	// returns the new did together with its base58-encoded verkey.
	CreateIdentity(handle WalletHandle) (did, verkey string, err error)

	// StorePeerKey registers a peer's verkey under its did without creating
	// local key material. Storing the same did again replaces the key.
	StorePeerKey(handle WalletHandle, did, verkey string) error

	// KeyFor resolves a did (own or peer) to its verkey.
	KeyFor(handle WalletHandle, did string) (string, error)

	// SetDidMetadata replaces the metadata blob stored against an own did.
	SetDidMetadata(handle WalletHandle, did, metadata string) error

	// ListMyDids returns every identity created in the wallet.
	ListMyDids(handle WalletHandle) ([]DidRecord, error)

	// CreatePairwise records a relationship between an own did and a peer
	// did. The peer's key must have been stored with StorePeerKey first.
	CreatePairwise(handle WalletHandle, theirDid, myDid, metadata string) error

	// PairwiseExists reports whether a relationship for the peer did exists.
	PairwiseExists(handle WalletHandle, theirDid string) (bool, error)

	// GetPairwise returns the relationship recorded for the peer did.
	GetPairwise(handle WalletHandle, theirDid string) (*PairwiseRecord, error)

	// ListPairwise returns every recorded relationship.
	ListPairwise(handle WalletHandle) ([]PairwiseRecord, error)

	// SetPairwiseMetadata replaces the metadata blob of a relationship.
	SetPairwiseMetadata(handle WalletHandle, theirDid, metadata string) error

	// Pack encrypts a message for the listed recipients. recipientKeys is a
	// JSON array of base58 verkeys. An empty senderVerkey produces an
	// anonymous envelope; otherwise the envelope authenticates the sender.
	Pack(handle WalletHandle, message, recipientKeys []byte, senderVerkey string) ([]byte, error)

	// Unpack reverses Pack for either mode. The result is JSON of the form
	// {"message": ..., "sender_verkey": ..., "recipient_verkey": ...} with
	// message base64-encoded (it is arbitrary bytes) and sender_verkey
	// absent for anonymous envelopes.
	Unpack(handle WalletHandle, envelope []byte) ([]byte, error)

	// Sign signs a raw message with the private key behind signerVerkey.
	Sign(handle WalletHandle, message []byte, signerVerkey string) ([]byte, error)

	// Verify checks a raw signature. It needs no wallet: the verkey is the
	// public key. A false return with nil error means the signature simply
	// does not match.
	Verify(signature, message []byte, signerVerkey string) (bool, error)
}
