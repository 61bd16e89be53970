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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrGrantNotFinalized indicates a grant continuation returned a grant
	// that is still pending. This is terminal: the caller has to restart
	// the interactive flow from a fresh grant request.
	ErrGrantNotFinalized = errors.New("grant was not finalized by continuation")

	// ErrMissingInteractRef indicates a continuation was attempted without
	// the interaction reference from the redirect callback.
	ErrMissingInteractRef = errors.New("missing interact_ref")
)

// InvalidWalletAddressError indicates a wallet address could not be resolved
// to complete wallet metadata.
type InvalidWalletAddressError struct {
	Address string
	Err     error
}

func (e InvalidWalletAddressError) Error() string {
	return fmt.Sprintf("invalid wallet address %q: %s", e.Address, e.Err)
}

func (e InvalidWalletAddressError) Unwrap() error {
	return e.Err
}

// UnexpectedInteractiveGrantError indicates the auth server returned a
// pending grant for an access type that never requires interaction. This is
// a protocol violation by the remote, not a user error.
type UnexpectedInteractiveGrantError struct {
	AccessType string
}

func (e UnexpectedInteractiveGrantError) Error() string {
	return fmt.Sprintf("auth server returned an interactive grant for access type %q", e.AccessType)
}

// UnexpectedNonInteractiveGrantError indicates the auth server returned an
// already-finalized grant for an access type that always requires the user
// to interact.
type UnexpectedNonInteractiveGrantError struct {
	AccessType string
}

func (e UnexpectedNonInteractiveGrantError) Error() string {
	return fmt.Sprintf("auth server returned a non-interactive grant for access type %q", e.AccessType)
}

// QuoteCreationError indicates one of the remote steps of quote building
// failed. Step names the failed step; no cleanup is attempted, the short
// incoming-payment expiry bounds what an abandoned attempt leaves behind.
type QuoteCreationError struct {
	Step string
	Err  error
}

func (e QuoteCreationError) Error() string {
	return fmt.Sprintf("quote creation failed at step %q: %s", e.Step, e.Err)
}

func (e QuoteCreationError) Unwrap() error {
	return e.Err
}

// OutgoingPaymentCreationError indicates the outgoing payment could not be
// created. Nothing has been debited at this point.
type OutgoingPaymentCreationError struct {
	Err error
}

func (e OutgoingPaymentCreationError) Error() string {
	return "failed to create outgoing payment: " + e.Err.Error()
}

func (e OutgoingPaymentCreationError) Unwrap() error {
	return e.Err
}

// IncomingPaymentCompletionError indicates the incoming payment could not be
// marked complete after the outgoing payment was already funded. The payment
// itself succeeded; this is surfaced as a warning, never as a failure.
type IncomingPaymentCompletionError struct {
	Err error
}

func (e IncomingPaymentCompletionError) Error() string {
	return "failed to complete incoming payment: " + e.Err.Error()
}

func (e IncomingPaymentCompletionError) Unwrap() error {
	return e.Err
}

// GrantRevocationError indicates a best-effort grant revocation failed. It
// never unwinds an already-completed payment step.
type GrantRevocationError struct {
	Err error
}

func (e GrantRevocationError) Error() string {
	return "failed to revoke grant: " + e.Err.Error()
}

func (e GrantRevocationError) Unwrap() error {
	return e.Err
}

// SettlementTimeoutError indicates the outgoing payment's sent amount did
// not reflect a transfer outcome within the settlement poll window. The
// payment may still settle; the caller should not treat this as proof of
// insufficient balance.
type SettlementTimeoutError struct {
	Timeout time.Duration
}

func (e SettlementTimeoutError) Error() string {
	return fmt.Sprintf("outgoing payment not settled within %s", e.Timeout)
}
