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

package openpay

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/interledger/publisher-tools/openpayments"
	"github.com/interledger/publisher-tools/otel/otelutil"
)

// Negotiator requests grants from auth servers and drives continuation after
// the user's interactive step.
//
// Incoming-payment and quote grants are non-interactive by protocol; the
// negotiator treats a pending grant for those access types as a remote
// protocol violation. Outgoing-payment grants are always interactive and the
// inverse invariant holds.
type Negotiator struct {
	client openpayments.Client
	// clientAddress identifies this client to auth servers; it is the wallet
	// address whose key signs outgoing requests.
	clientAddress string
}

func NewNegotiator(client openpayments.Client, clientAddress string) *Negotiator {
	return &Negotiator{
		client:        client,
		clientAddress: clientAddress,
	}
}

// RequestIncomingPaymentGrant requests a non-interactive grant for creating,
// reading and completing incoming payments on the given auth server.
func (n *Negotiator) RequestIncomingPaymentGrant(ctx context.Context, authServer string) (FinalizedGrant, error) {
	return n.requestNonInteractive(ctx, authServer, openpayments.AccessItem{
		Type:    openpayments.AccessTypeIncomingPayment,
		Actions: []string{openpayments.ActionRead, openpayments.ActionCreate, openpayments.ActionComplete},
	})
}

// RequestQuoteGrant requests a non-interactive grant for creating and
// reading quotes on the given auth server.
func (n *Negotiator) RequestQuoteGrant(ctx context.Context, authServer string) (FinalizedGrant, error) {
	return n.requestNonInteractive(ctx, authServer, openpayments.AccessItem{
		Type:    openpayments.AccessTypeQuote,
		Actions: []string{openpayments.ActionCreate, openpayments.ActionRead},
	})
}

func (n *Negotiator) requestNonInteractive(ctx context.Context, authServer string, access openpayments.AccessItem) (FinalizedGrant, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Negotiator.requestNonInteractive")
	defer span.End()

	grant, err := n.client.RequestGrant(ctx, authServer, openpayments.GrantRequest{
		AccessToken: openpayments.GrantAccess{Access: []openpayments.AccessItem{access}},
		Client:      n.clientAddress,
	})
	if err != nil {
		return FinalizedGrant{}, otelutil.RecordError(span, fmt.Errorf("failed to request %s grant: %w", access.Type, err))
	}

	if !grant.Finalized() {
		return FinalizedGrant{}, otelutil.RecordError(span, UnexpectedInteractiveGrantError{AccessType: access.Type})
	}
	return finalizedFrom(grant), nil
}

// OutgoingGrantParams parameterizes an interactive outgoing-payment grant
// request. The receive amount limit is optional; the debit amount limit is
// not, it is what the user consents to on the interaction page.
type OutgoingGrantParams struct {
	WalletAddress openpayments.WalletAddress
	DebitAmount   openpayments.Amount
	ReceiveAmount *openpayments.Amount
	// RedirectURL is where the auth server sends the user after the
	// interaction; the payment id is appended as a query parameter so the
	// callback can be matched to the session.
	RedirectURL string
	Nonce       string
	PaymentID   string
}

// RequestOutgoingPaymentGrant requests an interactive grant for creating
// outgoing payments from the given wallet. The returned grant is pending:
// the caller must send the user to its redirect URL and continue the grant
// with the interact_ref from the callback.
func (n *Negotiator) RequestOutgoingPaymentGrant(ctx context.Context, p OutgoingGrantParams) (PendingGrant, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Negotiator.RequestOutgoingPaymentGrant")
	defer span.End()

	finishURI, err := callbackURI(p.RedirectURL, p.PaymentID)
	if err != nil {
		return PendingGrant{}, otelutil.RecordError(span, err)
	}

	grant, err := n.client.RequestGrant(ctx, p.WalletAddress.AuthServer, openpayments.GrantRequest{
		AccessToken: openpayments.GrantAccess{Access: []openpayments.AccessItem{{
			Type:       openpayments.AccessTypeOutgoingPayment,
			Actions:    []string{openpayments.ActionCreate, openpayments.ActionRead},
			Identifier: p.WalletAddress.ID,
			Limits: &openpayments.AccessLimits{
				DebitAmount:   &p.DebitAmount,
				ReceiveAmount: p.ReceiveAmount,
			},
		}}},
		Client: n.clientAddress,
		Interact: &openpayments.InteractRequest{
			Start: []string{"redirect"},
			Finish: &openpayments.InteractFinish{
				Method: "redirect",
				URI:    finishURI,
				Nonce:  p.Nonce,
			},
		},
	})
	if err != nil {
		return PendingGrant{}, otelutil.RecordError(span, fmt.Errorf("failed to request outgoing-payment grant: %w", err))
	}

	if grant.Finalized() {
		return PendingGrant{}, otelutil.RecordError(span, UnexpectedNonInteractiveGrantError{
			AccessType: openpayments.AccessTypeOutgoingPayment,
		})
	}
	if !grant.Pending() || grant.Continue == nil {
		return PendingGrant{}, otelutil.Error(span, "auth server returned a grant without interaction or continuation")
	}

	return PendingGrant{
		RedirectURL:   grant.Interact.Redirect,
		Nonce:         p.Nonce,
		ContinueURI:   grant.Continue.URI,
		ContinueToken: grant.Continue.AccessToken.Value,
		Wait:          grant.Continue.Wait,
	}, nil
}

// ContinueGrant finalizes a pending grant with the interact_ref obtained
// from the redirect callback. A continuation that leaves the grant pending
// is a hard failure; the interactive flow has to be restarted.
func (n *Negotiator) ContinueGrant(ctx context.Context, pending PendingGrant, interactRef string) (FinalizedGrant, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Negotiator.ContinueGrant")
	defer span.End()

	if interactRef == "" {
		return FinalizedGrant{}, otelutil.RecordError(span, ErrMissingInteractRef)
	}

	grant, err := n.client.ContinueGrant(ctx, pending.ContinueURI, pending.ContinueToken, interactRef)
	if err != nil {
		return FinalizedGrant{}, otelutil.RecordError(span, fmt.Errorf("grant continuation failed: %w", err))
	}

	if !grant.Finalized() {
		return FinalizedGrant{}, otelutil.RecordError(span, ErrGrantNotFinalized)
	}
	return finalizedFrom(grant), nil
}

// CancelGrant revokes a grant that is no longer needed. Revocation is best
// effort: failures are reported but never unwind completed payment steps.
func (n *Negotiator) CancelGrant(ctx context.Context, grant FinalizedGrant) error {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Negotiator.CancelGrant")
	defer span.End()

	if grant.ContinueURI == "" {
		return otelutil.RecordError(span, errors.New("grant has no continuation handle to revoke"))
	}

	if err := n.client.CancelGrant(ctx, grant.ContinueURI, grant.ContinueToken); err != nil {
		return otelutil.RecordError(span, GrantRevocationError{Err: err})
	}
	return nil
}

func finalizedFrom(g openpayments.Grant) FinalizedGrant {
	f := FinalizedGrant{
		AccessToken: g.AccessToken.Value,
		ManageURL:   g.AccessToken.Manage,
	}
	if g.Continue != nil {
		f.ContinueURI = g.Continue.URI
		f.ContinueToken = g.Continue.AccessToken.Value
	}
	return f
}

func callbackURI(redirectURL, paymentID string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}
	q := u.Query()
	q.Set("paymentId", paymentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
