/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package provider

import (
	"errors"
	"fmt"
)

// Code is a provider error code. The numbering follows the wallet error
// space of the original Indy-style provider so that codes survive a swap to
// an out-of-process implementation.
type Code int

// Provider error codes.
const (
	CodeSuccess                 Code = 0
	CodeInvalidStructure        Code = 113
	CodeWalletInvalidHandle     Code = 200
	CodeWalletAlreadyExists     Code = 203
	CodeWalletNotFound          Code = 204
	CodeWalletAlreadyOpen       Code = 206
	CodeWalletAccessFailed      Code = 207
	CodeWalletStorageError      Code = 210
	CodeWalletItemNotFound      Code = 212
	CodeWalletItemAlreadyExists Code = 213
	CodeCryptoFailed            Code = 500
)

// Error is a provider failure carrying the provider-specific code.
type Error struct {
	Code Code
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Op, e.Msg, e.Code)
}

// NewError builds a provider error.
func NewError(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// CodeOf extracts the provider code from an error chain.
// Errors that do not wrap a *Error report CodeSuccess == false via ok.
func CodeOf(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}

	return CodeSuccess, false
}

// IsCode reports whether err wraps a provider error with the given code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)

	return ok && c == code
}
