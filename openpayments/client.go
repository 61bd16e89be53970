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

package openpayments

import "context"

// Client is the contract a remote Open Payments implementation needs to
// fulfil to drive the payment orchestration in this module.
//
// Implementations must be safe for concurrent use: the client carries no
// per-session state, and independent payment sessions share a single
// instance. Every outgoing request to resource and auth servers must carry
// HTTP message signatures; the httpapi implementation takes these from an
// injected signing round tripper.
type Client interface {
	// GetWalletAddress fetches the wallet metadata published at a wallet
	// address URL.
	//
	// - Must return the response as-is without defaulting absent fields.
	// - Must return an error when the response is not a wallet address
	//   document, rather than a partially populated value.
	GetWalletAddress(ctx context.Context, url string) (WalletAddress, error)

	// RequestGrant negotiates a new grant with an auth server.
	//
	// - Must return the grant exactly as issued; deciding whether a
	//   pending or finalized grant is acceptable is the caller's concern.
	RequestGrant(ctx context.Context, authServer string, req GrantRequest) (Grant, error)

	// ContinueGrant attempts to finalize a pending grant after the user
	// completed the interactive step, identified by interactRef.
	//
	// - Must authorize the call with the grant's continuation token.
	// - May return a grant that is still pending; callers decide how to
	//   treat that.
	ContinueGrant(ctx context.Context, continueURI, continueToken, interactRef string) (Grant, error)

	// CancelGrant revokes a grant via its continuation handle. Revocation
	// is terminal; the grant's tokens must not be used afterwards.
	CancelGrant(ctx context.Context, continueURI, continueToken string) error

	// CreateIncomingPayment creates an incoming payment on the receiver's
	// resource server, authorized by an incoming-payment access token.
	CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req IncomingPaymentRequest) (IncomingPayment, error)

	// CompleteIncomingPayment marks the incoming payment at the given URL
	// as finished, locking out further credits.
	CompleteIncomingPayment(ctx context.Context, incomingPaymentURL, accessToken string) error

	// CreateQuote creates a quote on the sender's resource server,
	// authorized by a quote access token.
	CreateQuote(ctx context.Context, resourceServer, accessToken string, req QuoteRequest) (Quote, error)

	// CreateOutgoingPayment creates an outgoing payment on the sender's
	// resource server, authorized by a finalized outgoing-payment token.
	CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req OutgoingPaymentRequest) (OutgoingPayment, error)

	// GetOutgoingPayment fetches the current state of an outgoing payment,
	// primarily to inspect its sentAmount.
	GetOutgoingPayment(ctx context.Context, outgoingPaymentURL, accessToken string) (OutgoingPayment, error)
}
