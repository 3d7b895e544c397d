/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	storage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/provider"
)

// didIDLength is the number of verkey bytes a fresh did is derived from.
const didIDLength = 16

const (
	myDidKeyPrefix    = "my:"
	theirKeyPrefix    = "their:"
	keyPairKeyPrefix  = "key:"
	pairwiseKeyPrefix = "pairwise:"
)

type theirKeyRecord struct {
	Did    string `json:"did"`
	Verkey string `json:"verkey"`
}

// CreateIdentity generates an ed25519 key pair inside the wallet. The verkey
// is the base58 public key and the did is derived from its first 16 bytes.
func (p *Provider) CreateIdentity(handle provider.WalletHandle) (string, string, error) {
	const op = "create identity"

	s, err := p.getSession(op, handle)
	if err != nil {
		return "", "", err
	}

	pub, priv, err := ed25519.GenerateKey(s.randSource)
	if err != nil {
		return "", "", provider.NewError(provider.CodeCryptoFailed, op, err.Error())
	}

	verkey := base58.Encode(pub)
	did := base58.Encode(pub[:didIDLength])

	err = s.putRecord(keyPairKeyPrefix+verkey, []byte(priv), storage.Tag{Name: tagKeyPair})
	if err != nil {
		return "", "", provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	record := provider.DidRecord{Did: did, Verkey: verkey}

	err = s.putJSONRecord(myDidKeyPrefix+did, record, storage.Tag{Name: tagMyDid})
	if err != nil {
		return "", "", provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	logger.Debugf("created identity %s in wallet %q", did, s.id)

	return did, verkey, nil
}

// StorePeerKey registers a peer's verkey under its did.
func (p *Provider) StorePeerKey(handle provider.WalletHandle, did, verkey string) error {
	const op = "store peer key"

	s, err := p.getSession(op, handle)
	if err != nil {
		return err
	}

	if did == "" || verkey == "" {
		return provider.NewError(provider.CodeInvalidStructure, op, "did and verkey are required")
	}

	record := theirKeyRecord{Did: did, Verkey: verkey}

	err = s.putJSONRecord(theirKeyPrefix+did, record, storage.Tag{Name: tagTheirKey})
	if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return nil
}

// KeyFor resolves an own or peer did to its verkey.
func (p *Provider) KeyFor(handle provider.WalletHandle, did string) (string, error) {
	const op = "key for did"

	s, err := p.getSession(op, handle)
	if err != nil {
		return "", err
	}

	var mine provider.DidRecord

	err = s.getJSONRecord(myDidKeyPrefix+did, &mine)
	if err == nil {
		return mine.Verkey, nil
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return "", provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	var theirs theirKeyRecord

	err = s.getJSONRecord(theirKeyPrefix+did, &theirs)
	if errors.Is(err, storage.ErrDataNotFound) {
		return "", provider.NewError(provider.CodeWalletItemNotFound, op, fmt.Sprintf("no key for did %q", did))
	} else if err != nil {
		return "", provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return theirs.Verkey, nil
}

// SetDidMetadata replaces the metadata blob stored against an own did.
func (p *Provider) SetDidMetadata(handle provider.WalletHandle, did, metadata string) error {
	const op = "set did metadata"

	s, err := p.getSession(op, handle)
	if err != nil {
		return err
	}

	var record provider.DidRecord

	err = s.getJSONRecord(myDidKeyPrefix+did, &record)
	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletItemNotFound, op, fmt.Sprintf("did %q not found", did))
	} else if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	record.Metadata = metadata

	err = s.putJSONRecord(myDidKeyPrefix+did, record, storage.Tag{Name: tagMyDid})
	if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return nil
}

// ListMyDids returns every identity created in the wallet.
func (p *Provider) ListMyDids(handle provider.WalletHandle) ([]provider.DidRecord, error) {
	const op = "list my dids"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	values, err := s.listRecords(tagMyDid)
	if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	records := make([]provider.DidRecord, 0, len(values))

	for _, value := range values {
		var record provider.DidRecord

		if err := json.Unmarshal(value, &record); err != nil {
			return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
		}

		records = append(records, record)
	}

	return records, nil
}

// CreatePairwise records a relationship between an own did and a peer did.
func (p *Provider) CreatePairwise(handle provider.WalletHandle, theirDid, myDid, metadata string) error {
	const op = "create pairwise"

	s, err := p.getSession(op, handle)
	if err != nil {
		return err
	}

	var theirs theirKeyRecord

	err = s.getJSONRecord(theirKeyPrefix+theirDid, &theirs)
	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletItemNotFound, op,
			fmt.Sprintf("no stored key for peer did %q", theirDid))
	} else if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	var existing provider.PairwiseRecord

	err = s.getJSONRecord(pairwiseKeyPrefix+theirDid, &existing)
	if err == nil {
		return provider.NewError(provider.CodeWalletItemAlreadyExists, op,
			fmt.Sprintf("pairwise for peer did %q already exists", theirDid))
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	record := provider.PairwiseRecord{MyDid: myDid, TheirDid: theirDid, Metadata: metadata}

	err = s.putJSONRecord(pairwiseKeyPrefix+theirDid, record, storage.Tag{Name: tagPairwise})
	if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	logger.Debugf("created pairwise %s<->%s in wallet %q", myDid, theirDid, s.id)

	return nil
}

// PairwiseExists reports whether a relationship for the peer did exists.
func (p *Provider) PairwiseExists(handle provider.WalletHandle, theirDid string) (bool, error) {
	const op = "pairwise exists"

	s, err := p.getSession(op, handle)
	if err != nil {
		return false, err
	}

	var record provider.PairwiseRecord

	err = s.getJSONRecord(pairwiseKeyPrefix+theirDid, &record)
	if errors.Is(err, storage.ErrDataNotFound) {
		return false, nil
	} else if err != nil {
		return false, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return true, nil
}

// GetPairwise returns the relationship recorded for the peer did.
func (p *Provider) GetPairwise(handle provider.WalletHandle, theirDid string) (*provider.PairwiseRecord, error) {
	const op = "get pairwise"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	var record provider.PairwiseRecord

	err = s.getJSONRecord(pairwiseKeyPrefix+theirDid, &record)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, provider.NewError(provider.CodeWalletItemNotFound, op,
			fmt.Sprintf("no pairwise for peer did %q", theirDid))
	} else if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return &record, nil
}

// ListPairwise returns every recorded relationship.
func (p *Provider) ListPairwise(handle provider.WalletHandle) ([]provider.PairwiseRecord, error) {
	const op = "list pairwise"

	s, err := p.getSession(op, handle)
	if err != nil {
		return nil, err
	}

	values, err := s.listRecords(tagPairwise)
	if err != nil {
		return nil, provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	records := make([]provider.PairwiseRecord, 0, len(values))

	for _, value := range values {
		var record provider.PairwiseRecord

		if err := json.Unmarshal(value, &record); err != nil {
			return nil, provider.NewError(provider.CodeInvalidStructure, op, err.Error())
		}

		records = append(records, record)
	}

	return records, nil
}

// SetPairwiseMetadata replaces the metadata blob of a relationship.
func (p *Provider) SetPairwiseMetadata(handle provider.WalletHandle, theirDid, metadata string) error {
	const op = "set pairwise metadata"

	s, err := p.getSession(op, handle)
	if err != nil {
		return err
	}

	var record provider.PairwiseRecord

	err = s.getJSONRecord(pairwiseKeyPrefix+theirDid, &record)
	if errors.Is(err, storage.ErrDataNotFound) {
		return provider.NewError(provider.CodeWalletItemNotFound, op,
			fmt.Sprintf("no pairwise for peer did %q", theirDid))
	} else if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	record.Metadata = metadata

	err = s.putJSONRecord(pairwiseKeyPrefix+theirDid, record, storage.Tag{Name: tagPairwise})
	if err != nil {
		return provider.NewError(provider.CodeWalletStorageError, op, err.Error())
	}

	return nil
}

// signingKey fetches the ed25519 private key behind a verkey.
func (s *session) signingKey(verkey string) (ed25519.PrivateKey, error) {
	value, err := s.getRecord(keyPairKeyPrefix + verkey)
	if err != nil {
		return nil, err
	}

	return ed25519.PrivateKey(value), nil
}

func (s *session) putRecord(key string, value []byte, tags ...storage.Tag) error {
	sealed, err := s.encrypt(value)
	if err != nil {
		return err
	}

	return s.store.Put(key, sealed, tags...)
}

func (s *session) getRecord(key string) ([]byte, error) {
	sealed, err := s.store.Get(key)
	if err != nil {
		return nil, err
	}

	return s.decrypt(sealed)
}

func (s *session) putJSONRecord(key string, value interface{}, tags ...storage.Tag) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.putRecord(key, raw, tags...)
}

func (s *session) getJSONRecord(key string, out interface{}) error {
	raw, err := s.getRecord(key)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}

// listRecords returns the decrypted values of every record carrying the tag.
func (s *session) listRecords(tag string) ([][]byte, error) {
	iter, err := s.store.Query(tag)
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := iter.Close(); errClose != nil {
			logger.Warnf("failed to close iterator: %s", errClose)
		}
	}()

	var values [][]byte

	more, err := iter.Next()
	for ; err == nil && more; more, err = iter.Next() {
		sealed, valueErr := iter.Value()
		if valueErr != nil {
			return nil, valueErr
		}

		value, decErr := s.decrypt(sealed)
		if decErr != nil {
			return nil, decErr
		}

		values = append(values, value)
	}

	if err != nil {
		return nil, err
	}

	return values, nil
}
