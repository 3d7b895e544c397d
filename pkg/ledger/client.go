/*
Copyright Anonyome Labs Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger anchors DIDs on an external ledger service over HTTP.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/hyperledger/aries-framework-go/component/log"
)

var logger = log.New("sudo-di/ledger")

// DefaultNetwork is the ledger network registrations target unless
// WithNetwork overrides it.
const DefaultNetwork = "buildernet"

type registrationRequest struct {
	Did            string `json:"did"`
	Verkey         string `json:"verkey"`
	Network        string `json:"network"`
	PaymentAddress string `json:"paymentaddr,omitempty"`
}

// Client registers DIDs with one ledger endpoint. Registration succeeds
// on any 2xx status; the response body is not interpreted.
type Client struct {
	endpoint       string
	network        string
	paymentAddress string
	httpClient     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithNetwork sets the target ledger network.
func WithNetwork(network string) Option {
	return func(c *Client) {
		c.network = network
	}
}

// WithPaymentAddress sets the payment address sent with registrations.
func WithPaymentAddress(paymentAddress string) Option {
	return func(c *Client) {
		c.paymentAddress = paymentAddress
	}
}

// New returns a client registering DIDs at endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		network:    DefaultNetwork,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Register anchors did and its verkey on the ledger. Transport errors
// and 5xx responses are retried with exponential backoff until ctx is
// done; a 4xx response fails immediately.
func (c *Client) Register(ctx context.Context, did, verkey string) error {
	payload, err := json.Marshal(registrationRequest{
		Did:            did,
		Verkey:         verkey,
		Network:        c.network,
		PaymentAddress: c.paymentAddress,
	})
	if err != nil {
		return fmt.Errorf("register did: encode request: %w", err)
	}

	register := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warnf("close response body: %v", err)
			}
		}()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("ledger returned %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("ledger returned %s", resp.Status))
		}
	}

	if err := backoff.Retry(register, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return fmt.Errorf("register did %q: %w", did, err)
	}

	logger.Debugf("registered did %s on network %s", did, c.network)

	return nil
}
