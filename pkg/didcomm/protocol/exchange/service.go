/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange implements the four-message connection exchange
// protocol: invitation, request, signed response and acknowledgement.
//
// The message builders are pure; only signing and verifying a response
// touch a wallet.
package exchange

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/did"
	"github.com/sudoplatform/sudo-decentralized-identity-go/pkg/envelope"
)

const ed25519VerificationKeyType = "Ed25519VerificationKey2018"

// Service signs and verifies exchange responses.
type Service struct {
	envelopes *envelope.Service
}

// New returns a new exchange protocol service.
func New(envelopes *envelope.Service) *Service {
	return &Service{envelopes: envelopes}
}

// NewInvitation builds an out-of-band invitation advertising verkey as
// the sole recipient key at serviceEndpoint.
func NewInvitation(label, verkey, serviceEndpoint string) *Invitation {
	return &Invitation{
		Type:            InvitationMsgType,
		ID:              uuid.New().String(),
		Label:           label,
		RecipientKeys:   []string{verkey},
		ServiceEndpoint: serviceEndpoint,
		RoutingKeys:     []string{},
	}
}

// NewRequest builds the invitee's exchange request, advertising d at
// serviceEndpoint. The request's id is independent of the invitation's;
// the link between them is the channel the request travels on.
func NewRequest(d *did.Did, serviceEndpoint, label string) *Request {
	return &Request{
		Type:       RequestMsgType,
		ID:         uuid.New().String(),
		Label:      label,
		Connection: newConnection(d, serviceEndpoint),
	}
}

// NewResponse builds the inviter's exchange response to request,
// threading back to the request's id.
func NewResponse(d *did.Did, serviceEndpoint string, request *Request) *Response {
	thread := &Thread{ID: request.ID}
	if request.Thread != nil {
		thread.PID = request.Thread.PID
	}

	return &Response{
		Type:       ResponseMsgType,
		ID:         uuid.New().String(),
		Thread:     thread,
		Connection: newConnection(d, serviceEndpoint),
	}
}

// NewAcknowledgement builds the terminal message of the exchange,
// threading back to the response's id and carrying the parent thread
// forward.
func NewAcknowledgement(d *did.Did, serviceEndpoint string, response *Response) *Acknowledgement {
	thread := &Thread{ID: response.ID}
	if response.Thread != nil {
		thread.PID = response.Thread.PID
	}

	return &Acknowledgement{
		Type:       AcknowledgementMsgType,
		ID:         uuid.New().String(),
		Thread:     thread,
		Connection: newConnection(d, serviceEndpoint),
	}
}

// newConnection wraps d in a one-key, one-service DID document. The
// first publicKey entry holds the key the handshake signs and encrypts
// under.
func newConnection(d *did.Did, serviceEndpoint string) *Connection {
	return &Connection{
		DID: d.Did,
		DIDDoc: &DIDDoc{
			Context: "https://w3id.org/did/v1",
			ID:      d.Did,
			PublicKey: []PublicKey{{
				ID:              fmt.Sprintf("%s#1", d.Did),
				Type:            ed25519VerificationKeyType,
				Controller:      d.Did,
				PublicKeyBase58: d.Verkey,
			}},
			Service: []DocService{{
				ID:              fmt.Sprintf("%s;indy", d.Did),
				Type:            didCommServiceType,
				Priority:        0,
				RecipientKeys:   []string{d.Verkey},
				RoutingKeys:     []string{},
				ServiceEndpoint: serviceEndpoint,
			}},
		},
	}
}
