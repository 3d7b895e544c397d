/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"errors"
	"fmt"
)

// errNoLedger is returned by RegisterDidOnLedger when the client was
// built without WithLedger.
var errNoLedger = errors.New("no ledger configured")

// Kind classifies a client failure by the subsystem it came from.
type Kind string

// Failure kinds.
const (
	KindWallet       Kind = "wallet"
	KindIdentifier   Kind = "identifier"
	KindRelationship Kind = "relationship"
	KindEnvelope     Kind = "envelope"
	KindSignature    Kind = "signature"
	KindLedger       Kind = "ledger"
	KindProvider     Kind = "provider"
)

// Error is the single failure type returned by Client operations. Err
// retains the underlying cause for errors.Is/As checks.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}
