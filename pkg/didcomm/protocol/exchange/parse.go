/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ParseMessage decodes a raw exchange message into its concrete type
// based on the @type discriminator. A response parses as SignedResponse
// when it carries a connection~sig and as Response otherwise. It returns
// *Invitation, *Request, *Response, *SignedResponse or *Acknowledgement.
func ParseMessage(raw []byte) (interface{}, error) {
	var msg map[string]interface{}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	msgType, ok := msg["@type"].(string)
	if !ok {
		return nil, fmt.Errorf("parse message: missing @type")
	}

	switch msgType {
	case InvitationMsgType:
		inv := &Invitation{}
		return inv, decodeMessage(msg, inv)
	case RequestMsgType:
		req := &Request{}
		return req, decodeMessage(msg, req)
	case ResponseMsgType:
		if _, signed := msg["connection~sig"]; signed {
			resp := &SignedResponse{}
			return resp, decodeMessage(msg, resp)
		}

		resp := &Response{}

		return resp, decodeMessage(msg, resp)
	case AcknowledgementMsgType:
		ack := &Acknowledgement{}
		return ack, decodeMessage(msg, ack)
	default:
		return nil, fmt.Errorf("parse message: unsupported @type %q", msgType)
	}
}

func decodeMessage(msg map[string]interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: result})
	if err != nil {
		return fmt.Errorf("parse message: initialize decoder: %w", err)
	}

	if err := decoder.Decode(msg); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	return nil
}
