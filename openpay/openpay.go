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

// openpay orchestrates the Open Payments payment-and-grant workflow: it
// negotiates non-interactive and interactive grants, creates an incoming
// payment, quotes against it, drives grant continuation after the user's
// interactive step, creates the outgoing payment and verifies settlement
// before the incoming payment is completed and its grant revoked.
//
// Every operation is a sequential chain of remote calls through an injected
// [openpayments.Client]; independent payment sessions may run concurrently,
// nothing here is shared between sessions except the client itself.
package openpay

// FinalizedGrant is an authorization that is immediately usable: its access
// token can authorize resource-server calls. The continuation handle is kept
// so the grant can be revoked once it is no longer needed.
type FinalizedGrant struct {
	AccessToken   string `json:"accessToken"`
	ManageURL     string `json:"manageUrl,omitempty"`
	ContinueURI   string `json:"continueUri,omitempty"`
	ContinueToken string `json:"continueToken,omitempty"`
}

// PendingGrant is an interactive grant waiting for the end user to complete
// the redirect step. It only becomes usable through continuation with the
// interact_ref delivered by the redirect callback.
type PendingGrant struct {
	// RedirectURL is where the end user has to be sent.
	RedirectURL string `json:"redirectUrl"`
	// Nonce is the finish nonce that was sent with the grant request.
	Nonce         string `json:"nonce"`
	ContinueURI   string `json:"continueUri"`
	ContinueToken string `json:"continueToken"`
	// Wait is the minimum number of seconds to wait before continuing.
	Wait int `json:"wait,omitempty"`
}

// ErrCodeInsufficientBalance is the result code for an outgoing payment that
// settled without funds moving. It is a normal negative outcome, not an
// error: callers branch on it instead of unwrapping errors.
const ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"

// PaymentError is the user-mappable failure payload of a CheckPaymentResult.
type PaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckPaymentResult is the outcome of finalizing a payment. A successful
// result may still carry warnings for degraded cleanup steps (incoming
// payment completion, grant revocation) that failed after the money moved.
type CheckPaymentResult struct {
	Success  bool          `json:"success"`
	Error    *PaymentError `json:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}
