/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

// Message type URIs of the connection exchange protocol.
const (
	InvitationMsgType      = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/didexchange/1.0/invitation"
	RequestMsgType         = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/didexchange/1.0/request"
	ResponseMsgType        = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/didexchange/1.0/response"
	AcknowledgementMsgType = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/didexchange/1.0/acknowledgement"
)

// signatureType identifies the ed25519 single-signature scheme used on
// the connection block of a response.
const signatureType = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/signature/1.0/ed25519Sha512_single"

// didCommServiceType is the service type advertised in exchanged DID
// documents.
const didCommServiceType = "IndyAgent"

// Thread carries message threading. ID names the thread; PID the parent
// thread, when nested.
type Thread struct {
	ID  string `json:"thid,omitempty"`
	PID string `json:"pthid,omitempty"`
}

// Invitation is an out-of-band offer to connect. It carries either
// routing material directly (RecipientKeys, ServiceEndpoint,
// RoutingKeys) or a resolvable DID.
type Invitation struct {
	Type            string   `json:"@type,omitempty"`
	ID              string   `json:"@id,omitempty"`
	Label           string   `json:"label,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	DID             string   `json:"did,omitempty"`
}

// Request is the invitee's reply to an Invitation, introducing the
// invitee's pairwise DID document.
type Request struct {
	Type       string      `json:"@type,omitempty"`
	ID         string      `json:"@id,omitempty"`
	Label      string      `json:"label,omitempty"`
	Thread     *Thread     `json:"~thread,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// Response is the inviter's reply to a Request, introducing the
// inviter's pairwise DID document. On the wire the connection block
// travels signed; see SignResponse.
type Response struct {
	Type       string      `json:"@type,omitempty"`
	ID         string      `json:"@id,omitempty"`
	Thread     *Thread     `json:"~thread,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// SignedResponse is the wire form of a Response: the connection block is
// replaced by a ConnectionSignature over it.
type SignedResponse struct {
	Type                string               `json:"@type,omitempty"`
	ID                  string               `json:"@id,omitempty"`
	Thread              *Thread              `json:"~thread,omitempty"`
	ConnectionSignature *ConnectionSignature `json:"connection~sig,omitempty"`
}

// ConnectionSignature attests a connection block. SignedData is
// base64url(timestamp || connection JSON); Signature is base64url of the
// raw ed25519 signature over those bytes; SignVerKey is the base58
// verkey the signature verifies under.
type ConnectionSignature struct {
	Type       string `json:"@type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SignedData string `json:"sig_data,omitempty"`
	SignVerKey string `json:"signer,omitempty"`
}

// Acknowledgement completes the exchange, confirming the response was
// processed. It carries the sender's connection block like the request
// and response do.
type Acknowledgement struct {
	Type       string      `json:"@type,omitempty"`
	ID         string      `json:"@id,omitempty"`
	Thread     *Thread     `json:"~thread,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// Connection links a pairwise DID to the DID document describing it.
type Connection struct {
	DID    string  `json:"DID,omitempty"`
	DIDDoc *DIDDoc `json:"DIDDoc,omitempty"`
}

// DIDDoc is the subset of a DID document the exchange protocol
// exchanges: verification keys and DIDComm service endpoints.
type DIDDoc struct {
	Context   string       `json:"@context,omitempty"`
	ID        string       `json:"id,omitempty"`
	PublicKey []PublicKey  `json:"publicKey,omitempty"`
	Service   []DocService `json:"service,omitempty"`
}

// PublicKey is one verification key of a DID document. Exactly one of
// the three specifier fields is set, matching Type.
type PublicKey struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	Controller      string `json:"controller,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
	PublicKeyPem    string `json:"publicKeyPem,omitempty"`
	PublicKeyHex    string `json:"publicKeyHex,omitempty"`
}

// Specifier returns whichever key encoding the entry carries.
func (pk PublicKey) Specifier() string {
	switch {
	case pk.PublicKeyBase58 != "":
		return pk.PublicKeyBase58
	case pk.PublicKeyPem != "":
		return pk.PublicKeyPem
	default:
		return pk.PublicKeyHex
	}
}

// DocService is one service endpoint of a DID document.
type DocService struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	Priority        int      `json:"priority"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
}
