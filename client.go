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

// pubtools is the embedder-facing entry point of the publisher payment
// tools: one Client per deployment, constructed from a Config, wrapping the
// full Open Payments payment workflow. All remote calls go through an HTTP
// client whose transport signs requests with the configured Ed25519 key.
package pubtools

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/interledger/publisher-tools/delay"
	"github.com/interledger/publisher-tools/httpsig"
	"github.com/interledger/publisher-tools/openpay"
	"github.com/interledger/publisher-tools/openpay/currency"
	"github.com/interledger/publisher-tools/openpay/sessions/inmem"
	"github.com/interledger/publisher-tools/openpay/sessions/redisstore"
	"github.com/interledger/publisher-tools/openpayments"
	"github.com/interledger/publisher-tools/openpayments/httpapi"
	"github.com/interledger/publisher-tools/otel/otelutil"
)

// Client drives Open Payments payments on behalf of an embedding
// application. It is safe for concurrent use; independent payment sessions
// share nothing but the underlying HTTP client.
type Client struct {
	orchestrator *openpay.Orchestrator
}

// New builds a Client from the config. Unless an Open Payments client is
// injected, the config must carry the signing key material; unless a session
// store is injected, the store is picked from the config (Redis when
// redis_addr is set, in-process memory otherwise).
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{}
	s := &scratch{}
	for _, opt := range opts {
		if err := opt(c, s, &cfg); err != nil {
			return nil, err
		}
	}

	opClient := s.opClient
	if opClient == nil {
		var err error
		opClient, err = newHTTPBackedClient(cfg, s.httpClient)
		if err != nil {
			return nil, err
		}
	}

	sessions := s.sessions
	if sessions == nil {
		if cfg.RedisAddr != "" {
			sessions = redisstore.New(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		} else {
			sessions = inmem.New()
		}
	}

	orchestrator, err := openpay.NewOrchestrator(opClient, sessions, openpay.Config{
		ClientAddress:         cfg.ClientAddress,
		RedirectURL:           cfg.RedirectURL,
		IncomingPaymentExpiry: cfg.IncomingPaymentExpiry,
		SessionTTL:            cfg.SessionTTL,
		SettlementPoll: delay.Backoff{
			Initial: cfg.SettlementPollInterval,
			Max:     cfg.SettlementPollMaxInterval,
			Timeout: cfg.SettlementTimeout,
		},
	})
	if err != nil {
		return nil, err
	}

	c.orchestrator = orchestrator
	return c, nil
}

func newHTTPBackedClient(cfg Config, base *http.Client) (openpayments.Client, error) {
	key, err := decodePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	signer, err := httpsig.NewSigner(cfg.KeyID, key)
	if err != nil {
		return nil, err
	}

	if base == nil {
		base = &http.Client{Timeout: cfg.RequestTimeout}
	}
	// Sign the final bytes, then trace the signed request on its way out.
	httpClient := *base
	httpClient.Transport = httpsig.NewTransport(signer, otelutil.NewTransport(base.Transport))
	return httpapi.New(&httpClient), nil
}

func decodePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	if encoded == "" {
		return nil, errors.New("missing private key")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid base64: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

// BuildQuote resolves both wallet addresses, creates the incoming payment on
// the receiver's resource server and returns a quote bound to it.
func (c *Client) BuildQuote(ctx context.Context, p openpay.QuoteParams) (openpay.QuoteResult, error) {
	return c.orchestrator.BuildQuote(ctx, p)
}

// RequestOutgoingGrant starts the interactive consent step for a built quote
// and stores the payment session. Send the user to the returned session's
// OutgoingGrant.RedirectURL.
func (c *Client) RequestOutgoingGrant(ctx context.Context, req openpay.OutgoingGrantRequest) (openpay.Session, error) {
	return c.orchestrator.RequestOutgoingGrant(ctx, req)
}

// FinalizePayment resumes the session named by the redirect callback and
// drives the payment to its terminal state.
func (c *Client) FinalizePayment(ctx context.Context, paymentID, interactRef string) (openpay.CheckPaymentResult, error) {
	return c.orchestrator.FinalizePayment(ctx, paymentID, interactRef)
}

// AbandonPayment releases a session whose user never returned from the
// interactive redirect.
func (c *Client) AbandonPayment(ctx context.Context, paymentID string) error {
	return c.orchestrator.Abandon(ctx, paymentID)
}

// DisplayAmount renders a protocol amount for presentation to the end user.
func (c *Client) DisplayAmount(a openpayments.Amount) (currency.DisplayAmount, error) {
	return currency.Display(a)
}
