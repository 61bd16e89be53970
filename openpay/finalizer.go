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
	"log/slog"
	"time"

	"github.com/interledger/publisher-tools/delay"
	"github.com/interledger/publisher-tools/openpayments"
	"github.com/interledger/publisher-tools/otel/otelutil"
)

// DefaultSettlementPoll is the default wait schedule for observing the
// outgoing payment's settlement outcome.
var DefaultSettlementPoll = delay.Backoff{
	Initial: time.Second,
	Max:     4 * time.Second,
	Timeout: 30 * time.Second,
}

// Finalizer completes a payment after the user finished the interactive
// grant step: it continues the pending grant, creates the outgoing payment,
// verifies it is funded, then completes the incoming payment and revokes the
// now-unused incoming-payment grant.
//
// Ordering is load-bearing: the funded check gates incoming-payment
// completion, and completion precedes grant revocation. Revoking first would
// make completion impossible.
type Finalizer struct {
	client     openpayments.Client
	negotiator *Negotiator
	poll       delay.Backoff
}

func NewFinalizer(client openpayments.Client, negotiator *Negotiator, poll delay.Backoff) *Finalizer {
	if poll == (delay.Backoff{}) {
		poll = DefaultSettlementPoll
	}
	return &Finalizer{
		client:     client,
		negotiator: negotiator,
		poll:       poll,
	}
}

// FinalizeParams carries the session state needed to finalize a payment.
type FinalizeParams struct {
	// WalletAddress is the sender's resolved wallet.
	WalletAddress openpayments.WalletAddress
	// PendingGrant is the interactive outgoing-payment grant to continue.
	PendingGrant PendingGrant
	// Quote is the quote the outgoing payment is created from. Its receiver
	// is the incoming payment URL used for completion.
	Quote openpayments.Quote
	// IncomingPaymentGrant authorizes completing the incoming payment; it is
	// revoked once the payment is done.
	IncomingPaymentGrant FinalizedGrant
	// InteractRef is the interaction reference from the redirect callback.
	InteractRef string
	Note        string
}

// Finalize drives the payment to its terminal state.
//
// Failures before anything is debited (continuation, outgoing payment
// creation) are returned as errors. An unfunded outgoing payment is a normal
// negative result, not an error. Failures after the payment is funded
// (incoming-payment completion, grant revocation) are warnings on the result
// and never flip a funded payment into a reported failure.
func (f *Finalizer) Finalize(ctx context.Context, p FinalizeParams) (CheckPaymentResult, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Finalizer.Finalize")
	defer span.End()

	grant, err := f.negotiator.ContinueGrant(ctx, p.PendingGrant, p.InteractRef)
	if err != nil {
		return CheckPaymentResult{}, otelutil.RecordError(span, err)
	}

	req := openpayments.OutgoingPaymentRequest{
		WalletAddress: p.WalletAddress.ID,
		QuoteID:       p.Quote.ID,
	}
	if p.Note != "" {
		req.Metadata = &openpayments.Metadata{Description: p.Note}
	}
	payment, err := f.client.CreateOutgoingPayment(ctx, p.WalletAddress.ResourceServer, grant.AccessToken, req)
	if err != nil {
		return CheckPaymentResult{}, otelutil.RecordError(span, OutgoingPaymentCreationError{Err: err})
	}

	funded, err := f.awaitSettlement(ctx, payment.ID, grant.AccessToken)
	if err != nil {
		return CheckPaymentResult{}, otelutil.RecordError(span, err)
	}
	if !funded {
		// Normal negative outcome. The incoming payment stays untouched and
		// expires server-side; the quote cannot be retried because its
		// pricing may be stale.
		return CheckPaymentResult{
			Success: false,
			Error: &PaymentError{
				Code:    ErrCodeInsufficientBalance,
				Message: "Insufficient funds to complete the payment. Check your balance and try again.",
			},
		}, nil
	}

	// Money has moved. Everything from here on is cleanup and must not turn
	// the funded payment into a reported failure.
	var warnings []string

	if err := f.client.CompleteIncomingPayment(ctx, p.Quote.Receiver, p.IncomingPaymentGrant.AccessToken); err != nil {
		wErr := IncomingPaymentCompletionError{Err: err}
		slog.WarnContext(ctx, "incoming payment completion failed after funded outgoing payment",
			"incoming_payment", p.Quote.Receiver, "error", err)
		otelutil.RecordError2(span, wErr)
		warnings = append(warnings, wErr.Error())
	}

	if err := f.negotiator.CancelGrant(ctx, p.IncomingPaymentGrant); err != nil {
		slog.WarnContext(ctx, "incoming payment grant revocation failed", "error", err)
		otelutil.RecordError2(span, err)
		warnings = append(warnings, err.Error())
	}

	return CheckPaymentResult{Success: true, Warnings: warnings}, nil
}

// awaitSettlement polls the outgoing payment until its sent amount reflects
// the transfer outcome: funded when the sent amount turns positive, unfunded
// when the remote marks the payment failed with nothing sent. A payment that
// shows neither within the poll window yields a SettlementTimeoutError
// rather than a stale zero read.
func (f *Finalizer) awaitSettlement(ctx context.Context, paymentURL, accessToken string) (bool, error) {
	var funded bool

	err := delay.Poll(ctx, f.poll, func(ctx context.Context) (bool, error) {
		payment, err := f.client.GetOutgoingPayment(ctx, paymentURL, accessToken)
		if err != nil {
			return false, fmt.Errorf("failed to fetch outgoing payment: %w", err)
		}

		positive, err := payment.SentAmount.Positive()
		if err != nil {
			return false, fmt.Errorf("outgoing payment has malformed sentAmount: %w", err)
		}
		if positive {
			funded = true
			return true, nil
		}
		if payment.Failed {
			funded = false
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, delay.ErrPollTimeout) {
		return false, SettlementTimeoutError{Timeout: f.poll.Timeout}
	}
	if err != nil {
		return false, err
	}
	return funded, nil
}
