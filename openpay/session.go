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
	"time"

	"github.com/interledger/publisher-tools/openpayments"
)

// ErrSessionNotFound indicates no session exists for a payment id, either
// because it never existed, was already finalized, or aged out.
var ErrSessionNotFound = errors.New("payment session not found")

// Session is the state of one payment between the outgoing-grant request and
// the redirect callback, keyed by the correlation id that was baked into the
// grant's finish URI. Sessions serialize to JSON so stores can live outside
// the process.
type Session struct {
	PaymentID string    `json:"paymentId"`
	CreatedAt time.Time `json:"createdAt"`

	Sender               openpayments.WalletAddress `json:"sender"`
	Quote                openpayments.Quote         `json:"quote"`
	IncomingPaymentGrant FinalizedGrant             `json:"incomingPaymentGrant"`
	OutgoingGrant        PendingGrant               `json:"outgoingGrant"`
	Note                 string                     `json:"note,omitempty"`
}

// SessionStore holds pending payment sessions between operations. A single
// process can use the in-memory store; deployments where the redirect
// callback may land on another replica need a shared store.
//
// Implementations:
//   - Must treat paymentID as an opaque key.
//   - Must expire sessions after the ttl given to Put and report expired
//     sessions as [ErrSessionNotFound].
//   - Must return [ErrSessionNotFound] from Get and Delete for unknown ids.
//   - Must be safe for concurrent use.
type SessionStore interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, paymentID string) (Session, error)
	Delete(ctx context.Context, paymentID string) error
}
