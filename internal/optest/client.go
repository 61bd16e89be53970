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

// optest provides a scripted, call-recording implementation of
// [openpayments.Client] for tests. Every method appends to an ordered call
// journal so tests can assert sequencing, and each behavior can be
// overridden per test through the exported function fields.
package optest

import (
	"context"
	"fmt"
	"sync"

	"github.com/interledger/publisher-tools/openpayments"
)

// Access tokens handed out by the fake's default grant responses.
const (
	IncomingToken = "test-incoming-token"
	QuoteToken    = "test-quote-token"
	OutgoingToken = "test-outgoing-token"
	ContinueToken = "test-continue-token"
)

// Call is one recorded client invocation.
type Call struct {
	// Method is the Client method name, e.g. "CreateQuote".
	Method string
	// Target is the URL the call was directed at (server or resource URL).
	Target string
	// Request is the request body, when the method has one.
	Request any
}

// Client is a fake Open Payments client. The zero value is not usable;
// construct it with New.
type Client struct {
	mu    sync.Mutex
	calls []Call
	seq   int

	// Wallets maps wallet address URLs to the metadata returned for them.
	Wallets map[string]openpayments.WalletAddress

	// Overrides; when nil, a default well-formed response is produced.
	GetWalletAddressFunc      func(url string) (openpayments.WalletAddress, error)
	RequestGrantFunc          func(authServer string, req openpayments.GrantRequest) (openpayments.Grant, error)
	ContinueGrantFunc         func(continueURI, continueToken, interactRef string) (openpayments.Grant, error)
	CancelGrantErr            error
	CreateIncomingPaymentFunc func(resourceServer string, req openpayments.IncomingPaymentRequest) (openpayments.IncomingPayment, error)
	CompleteIncomingErr       error
	CreateQuoteFunc           func(resourceServer string, req openpayments.QuoteRequest) (openpayments.Quote, error)
	CreateOutgoingFunc        func(resourceServer string, req openpayments.OutgoingPaymentRequest) (openpayments.OutgoingPayment, error)
	GetOutgoingFunc           func(paymentURL string) (openpayments.OutgoingPayment, error)
}

func New() *Client {
	return &Client{
		Wallets: map[string]openpayments.WalletAddress{},
	}
}

// AddWallet registers wallet metadata under its ID and returns it.
func (c *Client) AddWallet(w openpayments.WalletAddress) openpayments.WalletAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Wallets[w.ID] = w
	return w
}

// Calls returns a copy of the recorded call journal.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Methods returns just the method names of the journal, in call order.
func (c *Client) Methods() []string {
	calls := c.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Method
	}
	return out
}

// Called reports whether the named method was invoked at least once.
func (c *Client) Called(method string) bool {
	for _, m := range c.Methods() {
		if m == method {
			return true
		}
	}
	return false
}

func (c *Client) record(method, target string, req any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: method, Target: target, Request: req})
	c.seq++
	return c.seq
}

func (c *Client) GetWalletAddress(_ context.Context, url string) (openpayments.WalletAddress, error) {
	c.record("GetWalletAddress", url, nil)
	if c.GetWalletAddressFunc != nil {
		return c.GetWalletAddressFunc(url)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.Wallets[url]
	if !ok {
		return openpayments.WalletAddress{}, fmt.Errorf("no wallet at %s", url)
	}
	return w, nil
}

func (c *Client) RequestGrant(_ context.Context, authServer string, req openpayments.GrantRequest) (openpayments.Grant, error) {
	n := c.record("RequestGrant", authServer, req)
	if c.RequestGrantFunc != nil {
		return c.RequestGrantFunc(authServer, req)
	}
	if req.Interact != nil {
		return PendingGrant(authServer, n), nil
	}
	return FinalizedGrant(tokenForAccess(req), authServer, n), nil
}

func (c *Client) ContinueGrant(_ context.Context, continueURI, continueToken, interactRef string) (openpayments.Grant, error) {
	n := c.record("ContinueGrant", continueURI, interactRef)
	if c.ContinueGrantFunc != nil {
		return c.ContinueGrantFunc(continueURI, continueToken, interactRef)
	}
	return FinalizedGrant(OutgoingToken, continueURI, n), nil
}

func (c *Client) CancelGrant(_ context.Context, continueURI, _ string) error {
	c.record("CancelGrant", continueURI, nil)
	return c.CancelGrantErr
}

func (c *Client) CreateIncomingPayment(_ context.Context, resourceServer, _ string, req openpayments.IncomingPaymentRequest) (openpayments.IncomingPayment, error) {
	n := c.record("CreateIncomingPayment", resourceServer, req)
	if c.CreateIncomingPaymentFunc != nil {
		return c.CreateIncomingPaymentFunc(resourceServer, req)
	}
	return openpayments.IncomingPayment{
		ID:            fmt.Sprintf("%s/incoming-payments/%d", resourceServer, n),
		WalletAddress: req.WalletAddress,
		ExpiresAt:     req.ExpiresAt,
		Metadata:      req.Metadata,
	}, nil
}

func (c *Client) CompleteIncomingPayment(_ context.Context, incomingPaymentURL, _ string) error {
	c.record("CompleteIncomingPayment", incomingPaymentURL, nil)
	return c.CompleteIncomingErr
}

func (c *Client) CreateQuote(_ context.Context, resourceServer, _ string, req openpayments.QuoteRequest) (openpayments.Quote, error) {
	n := c.record("CreateQuote", resourceServer, req)
	if c.CreateQuoteFunc != nil {
		return c.CreateQuoteFunc(resourceServer, req)
	}
	quote := openpayments.Quote{
		ID:            fmt.Sprintf("%s/quotes/%d", resourceServer, n),
		WalletAddress: req.WalletAddress,
		Receiver:      req.Receiver,
		Method:        req.Method,
	}
	if req.DebitAmount != nil {
		quote.DebitAmount = *req.DebitAmount
		quote.ReceiveAmount = *req.DebitAmount
	}
	return quote, nil
}

func (c *Client) CreateOutgoingPayment(_ context.Context, resourceServer, _ string, req openpayments.OutgoingPaymentRequest) (openpayments.OutgoingPayment, error) {
	n := c.record("CreateOutgoingPayment", resourceServer, req)
	if c.CreateOutgoingFunc != nil {
		return c.CreateOutgoingFunc(resourceServer, req)
	}
	return openpayments.OutgoingPayment{
		ID:            fmt.Sprintf("%s/outgoing-payments/%d", resourceServer, n),
		WalletAddress: req.WalletAddress,
		QuoteID:       req.QuoteID,
		Metadata:      req.Metadata,
	}, nil
}

func (c *Client) GetOutgoingPayment(_ context.Context, paymentURL, _ string) (openpayments.OutgoingPayment, error) {
	c.record("GetOutgoingPayment", paymentURL, nil)
	if c.GetOutgoingFunc != nil {
		return c.GetOutgoingFunc(paymentURL)
	}
	return openpayments.OutgoingPayment{
		ID:         paymentURL,
		SentAmount: openpayments.Amount{Value: "1000", AssetCode: "USD", AssetScale: 2},
	}, nil
}

// FinalizedGrant builds a well-formed finalized grant response.
func FinalizedGrant(token, server string, n int) openpayments.Grant {
	return openpayments.Grant{
		AccessToken: &openpayments.AccessToken{
			Value:  token,
			Manage: fmt.Sprintf("%s/token/%d", server, n),
		},
		Continue: &openpayments.Continuation{
			URI:         fmt.Sprintf("%s/continue/%d", server, n),
			AccessToken: openpayments.ContinueToken{Value: ContinueToken},
		},
	}
}

// PendingGrant builds a well-formed pending grant response.
func PendingGrant(server string, n int) openpayments.Grant {
	return openpayments.Grant{
		Continue: &openpayments.Continuation{
			URI:         fmt.Sprintf("%s/continue/%d", server, n),
			AccessToken: openpayments.ContinueToken{Value: ContinueToken},
			Wait:        1,
		},
		Interact: &openpayments.Interaction{
			Redirect: fmt.Sprintf("%s/interact/%d", server, n),
			Finish:   fmt.Sprintf("finish-%d", n),
		},
	}
}

// tokenForAccess picks the default token for a non-interactive request.
func tokenForAccess(req openpayments.GrantRequest) string {
	if len(req.AccessToken.Access) == 0 {
		return "test-token"
	}
	switch req.AccessToken.Access[0].Type {
	case openpayments.AccessTypeIncomingPayment:
		return IncomingToken
	case openpayments.AccessTypeQuote:
		return QuoteToken
	default:
		return OutgoingToken
	}
}
