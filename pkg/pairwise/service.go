/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pairwise maintains the wallet's one-to-one relationship records,
// each linking a local DID to a peer DID.
package pairwise

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/wallet"
)

var logger = log.New("sudo-di/pairwise")

// ErrNotFound is returned by Retrieve when no relationship exists for the
// given peer DID.
var ErrNotFound = errors.New("pairwise not found")

// Pairwise is one relationship between a local identity and a peer.
type Pairwise struct {
	MyDid    string            `json:"myDid"`
	TheirDid string            `json:"theirDid"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Service is the relationship store for wallets of one provider.
type Service struct {
	provider provider.Provider
}

// New returns a new relationship store.
func New(p provider.Provider) *Service {
	return &Service{provider: p}
}

// Create records a relationship between myDid and theirDid. The peer's key
// must already be in the wallet (see did.Service.StoreTheir); creating a
// second relationship for the same peer DID fails.
func (s *Service) Create(w *wallet.Wallet, theirDid, myDid string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("create pairwise %q: %w", theirDid, err)
	}

	if err := s.provider.CreatePairwise(w.Handle, theirDid, myDid, encoded); err != nil {
		return fmt.Errorf("create pairwise %q: %w", theirDid, err)
	}

	logger.Debugf("created pairwise %s <-> %s in wallet %q", myDid, theirDid, w.ID)

	return nil
}

// Exists reports whether a relationship with theirDid is recorded.
func (s *Service) Exists(w *wallet.Wallet, theirDid string) (bool, error) {
	exists, err := s.provider.PairwiseExists(w.Handle, theirDid)
	if err != nil {
		return false, fmt.Errorf("pairwise exists %q: %w", theirDid, err)
	}

	return exists, nil
}

// Retrieve returns the relationship with theirDid, or ErrNotFound.
func (s *Service) Retrieve(w *wallet.Wallet, theirDid string) (*Pairwise, error) {
	exists, err := s.Exists(w, theirDid)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("retrieve pairwise %q: %w", theirDid, ErrNotFound)
	}

	record, err := s.provider.GetPairwise(w.Handle, theirDid)
	if err != nil {
		return nil, fmt.Errorf("retrieve pairwise %q: %w", theirDid, err)
	}

	metadata, err := decodeMetadata(record.Metadata)
	if err != nil {
		return nil, fmt.Errorf("retrieve pairwise %q: metadata: %w", theirDid, err)
	}

	return &Pairwise{MyDid: record.MyDid, TheirDid: record.TheirDid, Metadata: metadata}, nil
}

// List returns every relationship in the wallet with decoded metadata.
func (s *Service) List(w *wallet.Wallet) ([]Pairwise, error) {
	records, err := s.provider.ListPairwise(w.Handle)
	if err != nil {
		return nil, fmt.Errorf("list pairwise: %w", err)
	}

	pairs := make([]Pairwise, 0, len(records))

	for _, record := range records {
		metadata, err := decodeMetadata(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("list pairwise: metadata of %q: %w", record.TheirDid, err)
		}

		pairs = append(pairs, Pairwise{
			MyDid:    record.MyDid,
			TheirDid: record.TheirDid,
			Metadata: metadata,
		})
	}

	return pairs, nil
}

// UpdateMetadata replaces the relationship's metadata map wholesale.
func (s *Service) UpdateMetadata(w *wallet.Wallet, theirDid string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("update metadata of pairwise %q: %w", theirDid, err)
	}

	if err := s.provider.SetPairwiseMetadata(w.Handle, theirDid, encoded); err != nil {
		return fmt.Errorf("update metadata of pairwise %q: %w", theirDid, err)
	}

	return nil
}

func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeMetadata(encoded string) (map[string]string, error) {
	if encoded == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	metadata := map[string]string{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return metadata, nil
}
