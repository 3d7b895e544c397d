/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package provider contains a mock crypto provider.
package provider

import (
	"sync/atomic"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

// Provider mocks the crypto provider for component tests. Zero values make
// every operation succeed; set the *Err fields to force failures and the
// *Value fields to control results.
type Provider struct {
	CreateWalletErr        error
	OpenWalletValue        provider.WalletHandle
	OpenWalletErr          error
	CloseWalletErr         error
	DeleteWalletErr        error
	CreateIdentityDid      string
	CreateIdentityVerkey   string
	CreateIdentityErr      error
	StorePeerKeyErr        error
	KeyForValue            string
	KeyForErr              error
	SetDidMetadataErr      error
	ListMyDidsValue        []provider.DidRecord
	ListMyDidsErr          error
	CreatePairwiseErr      error
	PairwiseExistsValue    bool
	PairwiseExistsErr      error
	GetPairwiseValue       *provider.PairwiseRecord
	GetPairwiseErr         error
	ListPairwiseValue      []provider.PairwiseRecord
	ListPairwiseErr        error
	SetPairwiseMetadataErr error
	PackValue              []byte
	PackErr                error
	UnpackValue            []byte
	UnpackErr              error
	SignValue              []byte
	SignErr                error
	VerifyValue            bool
	VerifyErr              error

	CreateWalletCalls int32
	OpenWalletCalls   int32
	CloseWalletCalls  int32
	DeleteWalletCalls int32

	SetDidMetadataValues      map[string]string
	SetPairwiseMetadataValues map[string]string
}

// CreateWallet returns the mocked error.
func (p *Provider) CreateWallet(id string, key []byte) error {
	atomic.AddInt32(&p.CreateWalletCalls, 1)

	return p.CreateWalletErr
}

// OpenWallet returns the mocked handle and error.
func (p *Provider) OpenWallet(id string, key []byte) (provider.WalletHandle, error) {
	atomic.AddInt32(&p.OpenWalletCalls, 1)

	return p.OpenWalletValue, p.OpenWalletErr
}

// CloseWallet returns the mocked error.
func (p *Provider) CloseWallet(handle provider.WalletHandle) error {
	atomic.AddInt32(&p.CloseWalletCalls, 1)

	return p.CloseWalletErr
}

// DeleteWallet returns the mocked error.
func (p *Provider) DeleteWallet(id string, key []byte) error {
	atomic.AddInt32(&p.DeleteWalletCalls, 1)

	return p.DeleteWalletErr
}

// CreateIdentity returns the mocked did, verkey and error.
func (p *Provider) CreateIdentity(handle provider.WalletHandle) (string, string, error) {
	return p.CreateIdentityDid, p.CreateIdentityVerkey, p.CreateIdentityErr
}

// StorePeerKey returns the mocked error.
func (p *Provider) StorePeerKey(handle provider.WalletHandle, did, verkey string) error {
	return p.StorePeerKeyErr
}

// KeyFor returns the mocked verkey and error.
func (p *Provider) KeyFor(handle provider.WalletHandle, did string) (string, error) {
	return p.KeyForValue, p.KeyForErr
}

// SetDidMetadata records the metadata and returns the mocked error.
func (p *Provider) SetDidMetadata(handle provider.WalletHandle, did, metadata string) error {
	if p.SetDidMetadataValues != nil {
		p.SetDidMetadataValues[did] = metadata
	}

	return p.SetDidMetadataErr
}

// ListMyDids returns the mocked records and error.
func (p *Provider) ListMyDids(handle provider.WalletHandle) ([]provider.DidRecord, error) {
	return p.ListMyDidsValue, p.ListMyDidsErr
}

// CreatePairwise returns the mocked error.
func (p *Provider) CreatePairwise(handle provider.WalletHandle, theirDid, myDid, metadata string) error {
	return p.CreatePairwiseErr
}

// PairwiseExists returns the mocked value and error.
func (p *Provider) PairwiseExists(handle provider.WalletHandle, theirDid string) (bool, error) {
	return p.PairwiseExistsValue, p.PairwiseExistsErr
}

// GetPairwise returns the mocked record and error.
func (p *Provider) GetPairwise(handle provider.WalletHandle, theirDid string) (*provider.PairwiseRecord, error) {
	return p.GetPairwiseValue, p.GetPairwiseErr
}

// ListPairwise returns the mocked records and error.
func (p *Provider) ListPairwise(handle provider.WalletHandle) ([]provider.PairwiseRecord, error) {
	return p.ListPairwiseValue, p.ListPairwiseErr
}

// SetPairwiseMetadata records the metadata and returns the mocked error.
func (p *Provider) SetPairwiseMetadata(handle provider.WalletHandle, theirDid, metadata string) error {
	if p.SetPairwiseMetadataValues != nil {
		p.SetPairwiseMetadataValues[theirDid] = metadata
	}

	return p.SetPairwiseMetadataErr
}

// Pack returns the mocked envelope and error.
func (p *Provider) Pack(handle provider.WalletHandle, message, recipientKeys []byte,
	senderVerkey string) ([]byte, error) {
	return p.PackValue, p.PackErr
}

// Unpack returns the mocked result and error.
func (p *Provider) Unpack(handle provider.WalletHandle, envelope []byte) ([]byte, error) {
	return p.UnpackValue, p.UnpackErr
}

// Sign returns the mocked signature and error.
func (p *Provider) Sign(handle provider.WalletHandle, message []byte, signerVerkey string) ([]byte, error) {
	return p.SignValue, p.SignErr
}

// Verify returns the mocked result and error.
func (p *Provider) Verify(signature, message []byte, signerVerkey string) (bool, error) {
	return p.VerifyValue, p.VerifyErr
}
