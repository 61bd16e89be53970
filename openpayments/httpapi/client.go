// Copyright 2025 Interledger Foundation

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// httpapi implements [openpayments.Client] over the Open Payments REST and
// GNAP wire protocol. Authentication happens in the injected http.Client:
// its transport chain is expected to add HTTP message signatures to every
// request (see the httpsig package).
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/interledger/publisher-tools/httpfmt"
	"github.com/interledger/publisher-tools/openpayments"
)

// Client talks to Open Payments auth and resource servers.
type Client struct {
	httpClient *http.Client
}

// New returns a Client using the given http.Client. A nil httpClient gets a
// default with a 30 second timeout and no signing; production callers
// should pass a client whose transport signs requests.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// walletAddressWire mirrors the wallet address document with optional
// fields kept nullable, so absent fields are detected instead of defaulted.
type walletAddressWire struct {
	ID             *string `json:"id"`
	PublicName     string  `json:"publicName"`
	AssetCode      *string `json:"assetCode"`
	AssetScale     *int    `json:"assetScale"`
	AuthServer     *string `json:"authServer"`
	ResourceServer *string `json:"resourceServer"`
}

func (c *Client) GetWalletAddress(ctx context.Context, url string) (openpayments.WalletAddress, error) {
	var wire walletAddressWire
	if err := c.do(ctx, http.MethodGet, url, "", nil, &wire); err != nil {
		return openpayments.WalletAddress{}, err
	}

	if wire.ID == nil || wire.AssetCode == nil || wire.AssetScale == nil ||
		wire.AuthServer == nil || wire.ResourceServer == nil {
		return openpayments.WalletAddress{}, errors.New("wallet address document is missing required fields")
	}
	return openpayments.WalletAddress{
		ID:             *wire.ID,
		PublicName:     wire.PublicName,
		AssetCode:      *wire.AssetCode,
		AssetScale:     *wire.AssetScale,
		AuthServer:     *wire.AuthServer,
		ResourceServer: *wire.ResourceServer,
	}, nil
}

func (c *Client) RequestGrant(ctx context.Context, authServer string, req openpayments.GrantRequest) (openpayments.Grant, error) {
	var grant openpayments.Grant
	if err := c.do(ctx, http.MethodPost, authServer, "", req, &grant); err != nil {
		return openpayments.Grant{}, err
	}
	return grant, nil
}

func (c *Client) ContinueGrant(ctx context.Context, continueURI, continueToken, interactRef string) (openpayments.Grant, error) {
	body := struct {
		InteractRef string `json:"interact_ref"`
	}{InteractRef: interactRef}

	var grant openpayments.Grant
	if err := c.do(ctx, http.MethodPost, continueURI, continueToken, body, &grant); err != nil {
		return openpayments.Grant{}, err
	}
	return grant, nil
}

func (c *Client) CancelGrant(ctx context.Context, continueURI, continueToken string) error {
	return c.do(ctx, http.MethodDelete, continueURI, continueToken, nil, nil)
}

func (c *Client) CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req openpayments.IncomingPaymentRequest) (openpayments.IncomingPayment, error) {
	var payment openpayments.IncomingPayment
	err := c.do(ctx, http.MethodPost, joinURL(resourceServer, "/incoming-payments"), accessToken, req, &payment)
	if err != nil {
		return openpayments.IncomingPayment{}, err
	}
	return payment, nil
}

func (c *Client) CompleteIncomingPayment(ctx context.Context, incomingPaymentURL, accessToken string) error {
	return c.do(ctx, http.MethodPost, joinURL(incomingPaymentURL, "/complete"), accessToken, nil, nil)
}

func (c *Client) CreateQuote(ctx context.Context, resourceServer, accessToken string, req openpayments.QuoteRequest) (openpayments.Quote, error) {
	var quote openpayments.Quote
	err := c.do(ctx, http.MethodPost, joinURL(resourceServer, "/quotes"), accessToken, req, &quote)
	if err != nil {
		return openpayments.Quote{}, err
	}
	return quote, nil
}

func (c *Client) CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req openpayments.OutgoingPaymentRequest) (openpayments.OutgoingPayment, error) {
	var payment openpayments.OutgoingPayment
	err := c.do(ctx, http.MethodPost, joinURL(resourceServer, "/outgoing-payments"), accessToken, req, &payment)
	if err != nil {
		return openpayments.OutgoingPayment{}, err
	}
	return payment, nil
}

func (c *Client) GetOutgoingPayment(ctx context.Context, outgoingPaymentURL, accessToken string) (openpayments.OutgoingPayment, error) {
	var payment openpayments.OutgoingPayment
	if err := c.do(ctx, http.MethodGet, outgoingPaymentURL, accessToken, nil, &payment); err != nil {
		return openpayments.OutgoingPayment{}, err
	}
	return payment, nil
}

// do issues one request. A non-empty accessToken is sent as a GNAP
// authorization header; body and out are JSON when present.
func (c *Client) do(ctx context.Context, method, url, accessToken string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "GNAP "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return httpfmt.ErrorFromResponse(resp)
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return httpfmt.DecodeJSON(resp.Body, out)
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
