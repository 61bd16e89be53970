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

// openpayments defines the data model of the Open Payments protocol surface
// this module consumes, and the capability contract a remote client has to
// fulfil. The orchestration core only ever talks to the protocol through the
// [Client] interface, so the real HTTP implementation in httpapi and the
// recording fake in optest are interchangeable.
package openpayments

import (
	"errors"
	"math/big"
	"time"
)

// Amount is a monetary amount expressed in an asset's minor units.
// Value is an arbitrary precision non-negative integer encoded as a base-10
// string; assetScale is the exponent that relates minor units to the
// user-facing unit. Two amounts are only comparable when both assetCode and
// assetScale match.
type Amount struct {
	Value      string `json:"value"`
	AssetCode  string `json:"assetCode"`
	AssetScale int    `json:"assetScale"`
}

// ErrMalformedValue indicates an Amount value that is not a base-10 integer.
var ErrMalformedValue = errors.New("amount value is not a base-10 integer")

// BigValue parses the amount's value as an arbitrary precision integer.
func (a Amount) BigValue() (*big.Int, error) {
	v, ok := new(big.Int).SetString(a.Value, 10)
	if !ok {
		return nil, ErrMalformedValue
	}
	return v, nil
}

// Positive reports whether the amount's value is strictly greater than zero.
func (a Amount) Positive() (bool, error) {
	v, err := a.BigValue()
	if err != nil {
		return false, err
	}
	return v.Sign() > 0, nil
}

// WalletAddress is the resolved identity of a payment account. It is
// immutable once resolved; the asset denomination and server endpoints of a
// wallet are effectively static.
type WalletAddress struct {
	// ID is the canonical wallet address URL.
	ID         string `json:"id"`
	PublicName string `json:"publicName,omitempty"`
	AssetCode  string `json:"assetCode"`
	AssetScale int    `json:"assetScale"`
	// AuthServer is the grant-issuing endpoint for this wallet.
	AuthServer string `json:"authServer"`
	// ResourceServer is where payments and quotes against this wallet are created.
	ResourceServer string `json:"resourceServer"`
}

// AccessToken is a bearer token granted by an auth server.
type AccessToken struct {
	Value     string `json:"value"`
	Manage    string `json:"manage,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// ContinueToken authorizes calls against a grant's continuation URI.
type ContinueToken struct {
	Value string `json:"value"`
}

// Continuation is the handle for continuing or cancelling a pending grant.
type Continuation struct {
	URI         string        `json:"uri"`
	AccessToken ContinueToken `json:"access_token"`
	// Wait is the minimum number of seconds the client should wait before
	// calling the continuation URI.
	Wait int `json:"wait,omitempty"`
}

// Interaction describes the out-of-band step the end user has to complete
// before a pending grant can be finalized.
type Interaction struct {
	// Redirect is the URL the end user must visit.
	Redirect string `json:"redirect"`
	Finish   string `json:"finish,omitempty"`
}

// Grant is an auth server's response to a grant request or continuation.
// A finalized grant carries a usable access token; a pending grant carries a
// continuation handle and an interaction redirect instead.
type Grant struct {
	AccessToken *AccessToken  `json:"access_token,omitempty"`
	Continue    *Continuation `json:"continue,omitempty"`
	Interact    *Interaction  `json:"interact,omitempty"`
}

// Finalized reports whether the grant carries an immediately usable access token.
func (g Grant) Finalized() bool {
	return g.AccessToken != nil && g.AccessToken.Value != ""
}

// Pending reports whether the grant still requires user interaction.
func (g Grant) Pending() bool {
	return !g.Finalized() && g.Interact != nil && g.Interact.Redirect != ""
}

// Access types and actions used in grant requests.
const (
	AccessTypeIncomingPayment = "incoming-payment"
	AccessTypeQuote           = "quote"
	AccessTypeOutgoingPayment = "outgoing-payment"

	ActionCreate   = "create"
	ActionRead     = "read"
	ActionComplete = "complete"
)

// AccessLimits bounds what an access token may be used for.
type AccessLimits struct {
	DebitAmount   *Amount `json:"debitAmount,omitempty"`
	ReceiveAmount *Amount `json:"receiveAmount,omitempty"`
}

// AccessItem is a single entry in a grant request's access array.
type AccessItem struct {
	Type       string        `json:"type"`
	Actions    []string      `json:"actions"`
	Identifier string        `json:"identifier,omitempty"`
	Limits     *AccessLimits `json:"limits,omitempty"`
}

// GrantAccess wraps the requested access items.
type GrantAccess struct {
	Access []AccessItem `json:"access"`
}

// InteractFinish tells the auth server how to hand the user back after the
// interactive step. The URI carries the correlation id for the session and
// the nonce binds the eventual interact_ref to this request.
type InteractFinish struct {
	Method string `json:"method"`
	URI    string `json:"uri"`
	Nonce  string `json:"nonce"`
}

// InteractRequest asks the auth server to start an interactive flow.
type InteractRequest struct {
	Start  []string        `json:"start"`
	Finish *InteractFinish `json:"finish,omitempty"`
}

// GrantRequest is the body of a grant negotiation request.
type GrantRequest struct {
	AccessToken GrantAccess      `json:"access_token"`
	Client      string           `json:"client"`
	Interact    *InteractRequest `json:"interact,omitempty"`
}

// Metadata carries free-form payment annotations. Only the description is
// threaded through by this module.
type Metadata struct {
	Description string `json:"description,omitempty"`
}

// IncomingPayment is a receivable created on the receiver's resource server.
type IncomingPayment struct {
	// ID is the payment URL, used as the receiver of quotes and for completion.
	ID             string     `json:"id"`
	WalletAddress  string     `json:"walletAddress"`
	Completed      bool       `json:"completed"`
	IncomingAmount *Amount    `json:"incomingAmount,omitempty"`
	ReceivedAmount Amount     `json:"receivedAmount"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Metadata       *Metadata  `json:"metadata,omitempty"`
}

// IncomingPaymentRequest creates an incoming payment. An absent
// incomingAmount leaves the payment open-ended.
type IncomingPaymentRequest struct {
	WalletAddress  string     `json:"walletAddress"`
	IncomingAmount *Amount    `json:"incomingAmount,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Metadata       *Metadata  `json:"metadata,omitempty"`
}

// Quote binds a sender wallet and a debit amount to a receiver. The receive
// amount is computed by the sender's resource server. Quotes are immutable
// and expire server-side.
type Quote struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"walletAddress"`
	Receiver      string     `json:"receiver"`
	Method        string     `json:"method"`
	DebitAmount   Amount     `json:"debitAmount"`
	ReceiveAmount Amount     `json:"receiveAmount"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// QuoteMethodILP is the only payment method this module quotes with.
const QuoteMethodILP = "ilp"

// QuoteRequest creates a quote against the sender's resource server.
type QuoteRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Receiver      string  `json:"receiver"`
	Method        string  `json:"method"`
	DebitAmount   *Amount `json:"debitAmount,omitempty"`
}

// OutgoingPayment is the sender-side payment created from a finalized
// outgoing-payment grant and a quote.
type OutgoingPayment struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	QuoteID       string    `json:"quoteId,omitempty"`
	Receiver      string    `json:"receiver"`
	Failed        bool      `json:"failed"`
	DebitAmount   Amount    `json:"debitAmount"`
	SentAmount    Amount    `json:"sentAmount"`
	ReceiveAmount Amount    `json:"receiveAmount"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}

// OutgoingPaymentRequest creates an outgoing payment from a quote.
type OutgoingPaymentRequest struct {
	WalletAddress string    `json:"walletAddress"`
	QuoteID       string    `json:"quoteId"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}
