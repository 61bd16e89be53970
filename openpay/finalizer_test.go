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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/interledger/publisher-tools/delay"
	"github.com/interledger/publisher-tools/internal/optest"
	"github.com/interledger/publisher-tools/openpay"
	"github.com/interledger/publisher-tools/openpayments"
)

var testPoll = delay.Backoff{
	Initial: time.Millisecond,
	Max:     time.Millisecond,
	Timeout: 250 * time.Millisecond,
}

func newFinalizer(client *optest.Client) *openpay.Finalizer {
	return openpay.NewFinalizer(client, openpay.NewNegotiator(client, clientAddress), testPoll)
}

func finalizeParams() openpay.FinalizeParams {
	return openpay.FinalizeParams{
		WalletAddress: testWallet("https://wallet.example/alice"),
		PendingGrant: openpay.PendingGrant{
			ContinueURI:   "https://auth.example/continue/1",
			ContinueToken: "ct",
		},
		Quote: openpayments.Quote{
			ID:          "https://rs.example/quotes/1",
			Receiver:    "https://rs-receiver.example/incoming-payments/1",
			DebitAmount: openpayments.Amount{Value: "1000", AssetCode: "USD", AssetScale: 2},
		},
		IncomingPaymentGrant: openpay.FinalizedGrant{
			AccessToken:   optest.IncomingToken,
			ContinueURI:   "https://auth-receiver.example/continue/1",
			ContinueToken: "ict",
		},
		InteractRef: "ref-1",
		Note:        "coffee",
	}
}

func TestFinalize(t *testing.T) {
	client := optest.New()
	finalizer := newFinalizer(client)

	result, err := finalizer.Finalize(context.Background(), finalizeParams())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Nil(t, result.Error)
	require.Empty(t, result.Warnings)

	require.Equal(t, []string{
		"ContinueGrant",
		"CreateOutgoingPayment",
		"GetOutgoingPayment",
		"CompleteIncomingPayment",
		"CancelGrant",
	}, client.Methods())

	calls := client.Calls()
	outgoingReq := calls[1].Request.(openpayments.OutgoingPaymentRequest)
	require.Equal(t, "https://wallet.example/alice", outgoingReq.WalletAddress)
	require.Equal(t, "https://rs.example/quotes/1", outgoingReq.QuoteID)
	require.Equal(t, "coffee", outgoingReq.Metadata.Description)

	// Completion targets the incoming payment the quote was bound to, and
	// revocation targets the incoming-payment grant.
	require.Equal(t, "https://rs-receiver.example/incoming-payments/1", calls[3].Target)
	require.Equal(t, "https://auth-receiver.example/continue/1", calls[4].Target)
}

func TestFinalizeUnfundedPayment(t *testing.T) {
	client := optest.New()
	client.GetOutgoingFunc = func(paymentURL string) (openpayments.OutgoingPayment, error) {
		return openpayments.OutgoingPayment{
			ID:         paymentURL,
			Failed:     true,
			SentAmount: openpayments.Amount{Value: "0", AssetCode: "USD", AssetScale: 2},
		}, nil
	}
	finalizer := newFinalizer(client)

	result, err := finalizer.Finalize(context.Background(), finalizeParams())
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	require.Equal(t, openpay.ErrCodeInsufficientBalance, result.Error.Code)

	// The unfunded payment gates all cleanup: the incoming payment must stay
	// open and its grant must not be revoked.
	require.False(t, client.Called("CompleteIncomingPayment"))
	require.False(t, client.Called("CancelGrant"))
}

func TestFinalizeSettlesAfterPolling(t *testing.T) {
	client := optest.New()
	polls := 0
	client.GetOutgoingFunc = func(paymentURL string) (openpayments.OutgoingPayment, error) {
		polls++
		sent := "0"
		if polls >= 3 {
			sent = "1000"
		}
		return openpayments.OutgoingPayment{
			ID:         paymentURL,
			SentAmount: openpayments.Amount{Value: sent, AssetCode: "USD", AssetScale: 2},
		}, nil
	}
	finalizer := newFinalizer(client)

	result, err := finalizer.Finalize(context.Background(), finalizeParams())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 3, polls)
}

func TestFinalizeSettlementTimeout(t *testing.T) {
	client := optest.New()
	client.GetOutgoingFunc = func(paymentURL string) (openpayments.OutgoingPayment, error) {
		return openpayments.OutgoingPayment{
			ID:         paymentURL,
			SentAmount: openpayments.Amount{Value: "0", AssetCode: "USD", AssetScale: 2},
		}, nil
	}
	finalizer := newFinalizer(client)

	_, err := finalizer.Finalize(context.Background(), finalizeParams())

	var timeoutErr openpay.SettlementTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, testPoll.Timeout, timeoutErr.Timeout)
	require.False(t, client.Called("CompleteIncomingPayment"))
}

func TestFinalizeCleanupFailuresAreWarnings(t *testing.T) {
	client := optest.New()
	client.CompleteIncomingErr = errors.New("already completed")
	client.CancelGrantErr = errors.New("revocation rejected")
	finalizer := newFinalizer(client)

	result, err := finalizer.Finalize(context.Background(), finalizeParams())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Nil(t, result.Error)
	require.Len(t, result.Warnings, 2)
	require.Contains(t, result.Warnings[0], "already completed")
	require.Contains(t, result.Warnings[1], "revocation rejected")
}

func TestFinalizeContinuationStillPending(t *testing.T) {
	client := optest.New()
	client.ContinueGrantFunc = func(continueURI, _, _ string) (openpayments.Grant, error) {
		return optest.PendingGrant(continueURI, 2), nil
	}
	finalizer := newFinalizer(client)

	_, err := finalizer.Finalize(context.Background(), finalizeParams())
	require.ErrorIs(t, err, openpay.ErrGrantNotFinalized)
	require.False(t, client.Called("CreateOutgoingPayment"))
}

func TestFinalizeOutgoingPaymentCreationFails(t *testing.T) {
	client := optest.New()
	remoteErr := errors.New("limit exceeded")
	client.CreateOutgoingFunc = func(string, openpayments.OutgoingPaymentRequest) (openpayments.OutgoingPayment, error) {
		return openpayments.OutgoingPayment{}, remoteErr
	}
	finalizer := newFinalizer(client)

	_, err := finalizer.Finalize(context.Background(), finalizeParams())

	var creationErr openpay.OutgoingPaymentCreationError
	require.ErrorAs(t, err, &creationErr)
	require.ErrorIs(t, err, remoteErr)
	require.False(t, client.Called("GetOutgoingPayment"))
}
