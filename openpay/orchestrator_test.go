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

package openpay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/interledger/publisher-tools/internal/optest"
	"github.com/interledger/publisher-tools/openpay"
	"github.com/interledger/publisher-tools/openpay/sessions/inmem"
	"github.com/interledger/publisher-tools/openpayments"
)

func newOrchestrator(t *testing.T, client *optest.Client) (*openpay.Orchestrator, *inmem.Store) {
	t.Helper()
	store := inmem.New()
	o, err := openpay.NewOrchestrator(client, store, openpay.Config{
		ClientAddress:  clientAddress,
		RedirectURL:    "https://pay.example/callback",
		SettlementPoll: testPoll,
	})
	require.NoError(t, err)
	return o, store
}

func TestNewOrchestratorValidation(t *testing.T) {
	client := optest.New()
	store := inmem.New()

	_, err := openpay.NewOrchestrator(nil, store, openpay.Config{RedirectURL: "https://pay.example"})
	require.Error(t, err)

	_, err = openpay.NewOrchestrator(client, nil, openpay.Config{RedirectURL: "https://pay.example"})
	require.Error(t, err)

	_, err = openpay.NewOrchestrator(client, store, openpay.Config{})
	require.Error(t, err)
}

// TestPaymentWorkflow drives one payment through the full quote, consent and
// finalization sequence.
func TestPaymentWorkflow(t *testing.T) {
	client := optest.New()
	sender, receiver := quoteWallets(client)
	o, store := newOrchestrator(t, client)
	ctx := context.Background()

	quote, err := o.BuildQuote(ctx, openpay.QuoteParams{
		SenderAddress:   sender.ID,
		ReceiverAddress: receiver.ID,
		Amount:          12.5,
		Note:            "thanks",
	})
	require.NoError(t, err)
	require.Equal(t, "1250", quote.Quote.DebitAmount.Value)

	session, err := o.RequestOutgoingGrant(ctx, openpay.OutgoingGrantRequest{
		Sender:               quote.Sender,
		Quote:                quote.Quote,
		IncomingPaymentGrant: quote.IncomingPaymentGrant,
		Note:                 "thanks",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.PaymentID)
	require.NotEmpty(t, session.OutgoingGrant.RedirectURL)
	require.NotEmpty(t, session.OutgoingGrant.Nonce)

	// The session must be resumable by payment id while the user interacts.
	stored, err := store.Get(ctx, session.PaymentID)
	require.NoError(t, err)
	require.Equal(t, session.PaymentID, stored.PaymentID)

	// The grant's finish URI carries the correlation id for the callback.
	grantCalls := client.Calls()
	grantReq := grantCalls[len(grantCalls)-1].Request.(openpayments.GrantRequest)
	require.Contains(t, grantReq.Interact.Finish.URI, "paymentId="+session.PaymentID)

	result, err := o.FinalizePayment(ctx, session.PaymentID, "ref-1")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Warnings)

	// Terminal outcome removes the session.
	_, err = store.Get(ctx, session.PaymentID)
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)
}

func TestFinalizePaymentUnknownSession(t *testing.T) {
	client := optest.New()
	o, _ := newOrchestrator(t, client)

	_, err := o.FinalizePayment(context.Background(), "missing", "ref-1")
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)
	require.Empty(t, client.Calls())
}

func TestFinalizePaymentKeepsSessionOnTransientFailure(t *testing.T) {
	client := optest.New()
	sender, receiver := quoteWallets(client)
	o, store := newOrchestrator(t, client)
	ctx := context.Background()

	quote, err := o.BuildQuote(ctx, openpay.QuoteParams{
		SenderAddress:   sender.ID,
		ReceiverAddress: receiver.ID,
		Amount:          10,
	})
	require.NoError(t, err)

	session, err := o.RequestOutgoingGrant(ctx, openpay.OutgoingGrantRequest{
		Sender:               quote.Sender,
		Quote:                quote.Quote,
		IncomingPaymentGrant: quote.IncomingPaymentGrant,
	})
	require.NoError(t, err)

	client.ContinueGrantFunc = func(string, string, string) (openpayments.Grant, error) {
		return openpayments.Grant{}, context.DeadlineExceeded
	}
	_, err = o.FinalizePayment(ctx, session.PaymentID, "ref-1")
	require.Error(t, err)

	// A transient continuation failure leaves the session so the callback
	// can be retried.
	_, err = store.Get(ctx, session.PaymentID)
	require.NoError(t, err)
}

func TestFinalizePaymentDropsSessionOnStaleGrant(t *testing.T) {
	client := optest.New()
	sender, receiver := quoteWallets(client)
	o, store := newOrchestrator(t, client)
	ctx := context.Background()

	quote, err := o.BuildQuote(ctx, openpay.QuoteParams{
		SenderAddress:   sender.ID,
		ReceiverAddress: receiver.ID,
		Amount:          10,
	})
	require.NoError(t, err)

	session, err := o.RequestOutgoingGrant(ctx, openpay.OutgoingGrantRequest{
		Sender:               quote.Sender,
		Quote:                quote.Quote,
		IncomingPaymentGrant: quote.IncomingPaymentGrant,
	})
	require.NoError(t, err)

	client.ContinueGrantFunc = func(continueURI, _, _ string) (openpayments.Grant, error) {
		return optest.PendingGrant(continueURI, 9), nil
	}
	_, err = o.FinalizePayment(ctx, session.PaymentID, "ref-1")
	require.ErrorIs(t, err, openpay.ErrGrantNotFinalized)

	_, err = store.Get(ctx, session.PaymentID)
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)
}

func TestAbandon(t *testing.T) {
	client := optest.New()
	sender, receiver := quoteWallets(client)
	o, store := newOrchestrator(t, client)
	ctx := context.Background()

	quote, err := o.BuildQuote(ctx, openpay.QuoteParams{
		SenderAddress:   sender.ID,
		ReceiverAddress: receiver.ID,
		Amount:          10,
	})
	require.NoError(t, err)

	session, err := o.RequestOutgoingGrant(ctx, openpay.OutgoingGrantRequest{
		Sender:               quote.Sender,
		Quote:                quote.Quote,
		IncomingPaymentGrant: quote.IncomingPaymentGrant,
	})
	require.NoError(t, err)

	require.NoError(t, o.Abandon(ctx, session.PaymentID))
	require.True(t, client.Called("CancelGrant"))

	_, err = store.Get(ctx, session.PaymentID)
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)

	// Abandoning an unknown or already-abandoned session is a no-op.
	require.NoError(t, o.Abandon(ctx, session.PaymentID))
	require.NoError(t, o.Abandon(ctx, "missing"))
}
