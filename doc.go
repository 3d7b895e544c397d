/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sudodi is a client-side agent for establishing peer-to-peer
// decentralized identity connections.
//
// It creates key-paired decentralized identifiers (DIDs) inside secure
// per-identity wallets, exchanges them through the four-message connection
// handshake (invitation, exchange request, signed exchange response,
// acknowledgement) and secures every message with authenticated or
// anonymous encrypted envelopes.
//
// Packages for end developer usage:
//
// pkg/client: The orchestrating client. Composes wallet, DID, pairwise,
// envelope crypto and exchange protocol services behind a single API and
// a single error taxonomy.
//
// pkg/didcomm/protocol/exchange: The connection handshake messages and
// the connection signature scheme, usable standalone.
//
// Basic workflow:
//
//	1) Instantiate a client using provider options (the in-process
//	   software crypto provider is the default).
//	2) Set up a wallet for each identity.
//	3) Create DIDs and drive the exchange protocol with the client funcs.
//	4) Pack/unpack envelopes for the wire; transport is up to you.
package sudodi
