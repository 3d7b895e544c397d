/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did creates and queries the decentralized identifiers held in a
// wallet.
package did

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/wallet"
)

var logger = log.New("sudo-di/did")

// MetadataLabelKey is the metadata key a DID's human-readable label is
// stored under.
const MetadataLabelKey = "LABEL"

// Did is an identity key pair reference. Verkey is the current public key;
// TempVerkey is reserved for key rotation.
type Did struct {
	Did        string            `json:"did"`
	Verkey     string            `json:"verkey"`
	TempVerkey string            `json:"tempVerkey,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Service is the identifier registry for wallets of one provider.
type Service struct {
	provider provider.Provider
}

// New returns a new identifier registry.
func New(p provider.Provider) *Service {
	return &Service{provider: p}
}

// Create generates a fresh key pair in the wallet and labels it.
func (s *Service) Create(w *wallet.Wallet, label string) (*Did, error) {
	did, verkey, err := s.provider.CreateIdentity(w.Handle)
	if err != nil {
		return nil, fmt.Errorf("create did: %w", err)
	}

	metadata := map[string]string{MetadataLabelKey: label}

	if err := s.UpdateMetadata(w, did, metadata); err != nil {
		return nil, err
	}

	logger.Debugf("created did %s in wallet %q", did, w.ID)

	return &Did{Did: did, Verkey: verkey, Metadata: metadata}, nil
}

// StoreTheir registers a peer's public key without creating local key
// material.
func (s *Service) StoreTheir(w *wallet.Wallet, did, verkey string) error {
	if err := s.provider.StorePeerKey(w.Handle, did, verkey); err != nil {
		return fmt.Errorf("store their did %q: %w", did, err)
	}

	return nil
}

// KeyFor resolves a did (own or peer) to its verkey.
func (s *Service) KeyFor(w *wallet.Wallet, did string) (string, error) {
	verkey, err := s.provider.KeyFor(w.Handle, did)
	if err != nil {
		return "", fmt.Errorf("key for did %q: %w", did, err)
	}

	return verkey, nil
}

// List returns every DID created in the wallet with its decoded metadata.
func (s *Service) List(w *wallet.Wallet) ([]Did, error) {
	records, err := s.provider.ListMyDids(w.Handle)
	if err != nil {
		return nil, fmt.Errorf("list dids: %w", err)
	}

	dids := make([]Did, 0, len(records))

	for _, record := range records {
		metadata, err := decodeMetadata(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("list dids: metadata of %q: %w", record.Did, err)
		}

		dids = append(dids, Did{
			Did:        record.Did,
			Verkey:     record.Verkey,
			TempVerkey: record.TempVerkey,
			Metadata:   metadata,
		})
	}

	return dids, nil
}

// UpdateMetadata replaces a DID's metadata map wholesale.
func (s *Service) UpdateMetadata(w *wallet.Wallet, did string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("update metadata of did %q: %w", did, err)
	}

	if err := s.provider.SetDidMetadata(w.Handle, did, encoded); err != nil {
		return fmt.Errorf("update metadata of did %q: %w", did, err)
	}

	return nil
}

// Metadata is stored as base64-encoded JSON so that the stored blob never
// needs quoting inside the provider's own record encoding.
func encodeMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		return "", nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeMetadata(blob string) (map[string]string, error) {
	if blob == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	var metadata map[string]string

	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return metadata, nil
}
