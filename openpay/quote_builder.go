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
	"time"

	"github.com/interledger/publisher-tools/openpay/currency"
	"github.com/interledger/publisher-tools/openpayments"
	"github.com/interledger/publisher-tools/otel/otelutil"
)

// DefaultIncomingPaymentExpiry is how long a provisional incoming payment
// stays open. Abandoned quote attempts age out server-side within this
// window, so no cleanup is attempted on quote failures.
const DefaultIncomingPaymentExpiry = 6 * time.Minute

// Quote-building step names carried by QuoteCreationError.
const (
	StepIncomingPaymentGrant = "incoming-payment-grant"
	StepIncomingPayment      = "incoming-payment"
	StepQuoteGrant           = "quote-grant"
	StepQuote                = "quote"
)

// QuoteBuilder orchestrates the receiver-side and sender-side setup of a
// payment: it creates an open-amount incoming payment on the receiver's
// resource server and a quote bound to it on the sender's.
type QuoteBuilder struct {
	client        openpayments.Client
	resolver      *Resolver
	negotiator    *Negotiator
	paymentExpiry time.Duration
	now           func() time.Time
}

func NewQuoteBuilder(client openpayments.Client, resolver *Resolver, negotiator *Negotiator, paymentExpiry time.Duration) *QuoteBuilder {
	if paymentExpiry <= 0 {
		paymentExpiry = DefaultIncomingPaymentExpiry
	}
	return &QuoteBuilder{
		client:        client,
		resolver:      resolver,
		negotiator:    negotiator,
		paymentExpiry: paymentExpiry,
		now:           time.Now,
	}
}

// QuoteParams is the caller's input to quote building. Amount is the decimal
// user-facing amount, denominated in the sender's asset.
type QuoteParams struct {
	SenderAddress   string
	ReceiverAddress string
	Amount          float64
	Note            string
}

// QuoteResult is a built quote plus the handles the caller has to retain:
// the incoming-payment grant is needed later to complete and revoke the
// incoming payment, and the sender wallet is needed to request the outgoing
// grant.
type QuoteResult struct {
	Quote                openpayments.Quote         `json:"quote"`
	IncomingPaymentGrant FinalizedGrant             `json:"incomingPaymentGrant"`
	Sender               openpayments.WalletAddress `json:"sender"`
	Receiver             openpayments.WalletAddress `json:"receiver"`
}

// BuildQuote runs the quote workflow in strict order: resolve receiver,
// resolve sender, convert the amount using the sender's asset scale, obtain
// an incoming-payment grant on the receiver's auth server, create the
// incoming payment, obtain a quote grant on the sender's auth server and
// create the quote with the incoming payment as receiver.
//
// The receiver is resolved first so a bad receiver address fails before the
// sender's auth server is touched at all.
func (b *QuoteBuilder) BuildQuote(ctx context.Context, p QuoteParams) (QuoteResult, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.QuoteBuilder.BuildQuote")
	defer span.End()

	receiver, err := b.resolver.Resolve(ctx, p.ReceiverAddress)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, err)
	}

	sender, err := b.resolver.Resolve(ctx, p.SenderAddress)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, err)
	}

	// The debit amount is always denominated in the sender's asset; the
	// receive amount is computed by the sender's resource server.
	value, err := currency.ToMinorUnits(p.Amount, sender.AssetScale)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, err)
	}
	debitAmount := openpayments.Amount{
		Value:      value,
		AssetCode:  sender.AssetCode,
		AssetScale: sender.AssetScale,
	}

	incomingGrant, err := b.negotiator.RequestIncomingPaymentGrant(ctx, receiver.AuthServer)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, QuoteCreationError{Step: StepIncomingPaymentGrant, Err: err})
	}

	expiresAt := b.now().Add(b.paymentExpiry)
	incomingReq := openpayments.IncomingPaymentRequest{
		WalletAddress: receiver.ID,
		ExpiresAt:     &expiresAt,
	}
	if p.Note != "" {
		incomingReq.Metadata = &openpayments.Metadata{Description: p.Note}
	}
	incoming, err := b.client.CreateIncomingPayment(ctx, receiver.ResourceServer, incomingGrant.AccessToken, incomingReq)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, QuoteCreationError{Step: StepIncomingPayment, Err: err})
	}

	quoteGrant, err := b.negotiator.RequestQuoteGrant(ctx, sender.AuthServer)
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, QuoteCreationError{Step: StepQuoteGrant, Err: err})
	}

	quote, err := b.client.CreateQuote(ctx, sender.ResourceServer, quoteGrant.AccessToken, openpayments.QuoteRequest{
		WalletAddress: sender.ID,
		Receiver:      incoming.ID,
		Method:        openpayments.QuoteMethodILP,
		DebitAmount:   &debitAmount,
	})
	if err != nil {
		return QuoteResult{}, otelutil.RecordError(span, QuoteCreationError{Step: StepQuote, Err: err})
	}

	return QuoteResult{
		Quote:                quote,
		IncomingPaymentGrant: incomingGrant,
		Sender:               sender,
		Receiver:             receiver,
	}, nil
}
