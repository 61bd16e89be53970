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

// DefaultSessionTTL is how long a session waits for the redirect callback.
// It tracks the incoming-payment expiry with some slack so sessions age out
// in step with the server-side TTLs they reference.
const DefaultSessionTTL = DefaultIncomingPaymentExpiry + time.Minute

// Config parameterizes an Orchestrator.
type Config struct {
	// ClientAddress is the wallet address identifying this client to auth
	// servers; its key signs every outgoing request.
	ClientAddress string `yaml:"client_address"`
	// RedirectURL is where auth servers send the user after the interactive
	// step. The payment correlation id is appended as a query parameter.
	RedirectURL string `yaml:"redirect_url"`
	// IncomingPaymentExpiry bounds how long a provisional incoming payment
	// stays open. Defaults to 6 minutes.
	IncomingPaymentExpiry time.Duration `yaml:"incoming_payment_expiry"`
	// SessionTTL bounds how long a pending session waits for the redirect
	// callback. Defaults to the incoming-payment expiry plus a minute.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// SettlementPoll is the wait schedule for the funded check.
	SettlementPoll delay.Backoff `yaml:"-"`
}

// Orchestrator sequences the payment workflow into the operations the
// embedding application consumes: BuildQuote, RequestOutgoingGrant,
// FinalizePayment and Abandon. It owns no remote state; everything it
// tracks lives in the injected session store, keyed by correlation id.
type Orchestrator struct {
	resolver   *Resolver
	negotiator *Negotiator
	quotes     *QuoteBuilder
	finalizer  *Finalizer
	sessions   SessionStore

	redirectURL string
	sessionTTL  time.Duration
}

// NewOrchestrator wires the workflow components around a single injected
// client. The client is shared by all concurrent sessions; it carries no
// per-session state.
func NewOrchestrator(client openpayments.Client, sessions SessionStore, cfg Config) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("nil openpayments client")
	}
	if sessions == nil {
		return nil, errors.New("nil session store")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("missing redirect url")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	resolver := NewResolver(client)
	negotiator := NewNegotiator(client, cfg.ClientAddress)
	return &Orchestrator{
		resolver:    resolver,
		negotiator:  negotiator,
		quotes:      NewQuoteBuilder(client, resolver, negotiator, cfg.IncomingPaymentExpiry),
		finalizer:   NewFinalizer(client, negotiator, cfg.SettlementPoll),
		sessions:    sessions,
		redirectURL: cfg.RedirectURL,
		sessionTTL:  ttl,
	}, nil
}

// BuildQuote resolves both wallets, creates the incoming payment and returns
// a quote bound to it. The caller renders the quote's amounts and, once the
// user confirms, passes the result to RequestOutgoingGrant.
func (o *Orchestrator) BuildQuote(ctx context.Context, p QuoteParams) (QuoteResult, error) {
	return o.quotes.BuildQuote(ctx, p)
}

// OutgoingGrantRequest asks for user consent to debit the quoted amount.
type OutgoingGrantRequest struct {
	Sender               openpayments.WalletAddress
	Quote                openpayments.Quote
	IncomingPaymentGrant FinalizedGrant
	Note                 string
}

// RequestOutgoingGrant generates a fresh correlation id and nonce, requests
// the interactive outgoing-payment grant, and stores the session so the
// redirect callback can resume it. The caller sends the user to the
// returned session's OutgoingGrant.RedirectURL.
func (o *Orchestrator) RequestOutgoingGrant(ctx context.Context, req OutgoingGrantRequest) (Session, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Orchestrator.RequestOutgoingGrant")
	defer span.End()

	paymentID, err := NewPaymentID()
	if err != nil {
		return Session{}, otelutil.RecordError(span, err)
	}
	nonce, err := NewNonce()
	if err != nil {
		return Session{}, otelutil.RecordError(span, err)
	}

	receiveAmount := req.Quote.ReceiveAmount
	pending, err := o.negotiator.RequestOutgoingPaymentGrant(ctx, OutgoingGrantParams{
		WalletAddress: req.Sender,
		DebitAmount:   req.Quote.DebitAmount,
		ReceiveAmount: &receiveAmount,
		RedirectURL:   o.redirectURL,
		Nonce:         nonce,
		PaymentID:     paymentID,
	})
	if err != nil {
		return Session{}, otelutil.RecordError(span, err)
	}

	session := Session{
		PaymentID:            paymentID,
		CreatedAt:            time.Now(),
		Sender:               req.Sender,
		Quote:                req.Quote,
		IncomingPaymentGrant: req.IncomingPaymentGrant,
		OutgoingGrant:        pending,
		Note:                 req.Note,
	}
	if err := o.sessions.Put(ctx, session, o.sessionTTL); err != nil {
		return Session{}, otelutil.RecordError(span, fmt.Errorf("failed to store payment session: %w", err))
	}
	return session, nil
}

// FinalizePayment resumes the session identified by the redirect callback's
// payment id and drives the payment to completion. The session is removed on
// every terminal outcome, success or not; a retry has to start from a fresh
// quote.
func (o *Orchestrator) FinalizePayment(ctx context.Context, paymentID, interactRef string) (CheckPaymentResult, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Orchestrator.FinalizePayment")
	defer span.End()

	session, err := o.sessions.Get(ctx, paymentID)
	if err != nil {
		return CheckPaymentResult{}, otelutil.RecordError(span, fmt.Errorf("failed to load payment session: %w", err))
	}

	result, err := o.finalizer.Finalize(ctx, FinalizeParams{
		WalletAddress:        session.Sender,
		PendingGrant:         session.OutgoingGrant,
		Quote:                session.Quote,
		IncomingPaymentGrant: session.IncomingPaymentGrant,
		InteractRef:          interactRef,
		Note:                 session.Note,
	})
	if err != nil {
		// The session stays for transient failures; a stale grant cannot be
		// continued twice so continuation failures drop it.
		if errors.Is(err, ErrGrantNotFinalized) {
			o.dropSession(ctx, paymentID)
		}
		return CheckPaymentResult{}, otelutil.RecordError(span, err)
	}

	o.dropSession(ctx, paymentID)
	return result, nil
}

// Abandon releases a session whose user never returned from the interactive
// redirect: it best-effort revokes the held incoming-payment grant instead
// of relying solely on the remote's own TTLs, then drops the session.
func (o *Orchestrator) Abandon(ctx context.Context, paymentID string) error {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Orchestrator.Abandon")
	defer span.End()

	session, err := o.sessions.Get(ctx, paymentID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return otelutil.RecordError(span, fmt.Errorf("failed to load payment session: %w", err))
	}

	cancelErr := o.negotiator.CancelGrant(ctx, session.IncomingPaymentGrant)
	if cancelErr != nil {
		slog.WarnContext(ctx, "failed to cancel incoming payment grant for abandoned session",
			"payment_id", paymentID, "error", cancelErr)
	}

	o.dropSession(ctx, paymentID)
	return cancelErr
}

func (o *Orchestrator) dropSession(ctx context.Context, paymentID string) {
	if err := o.sessions.Delete(ctx, paymentID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		slog.WarnContext(ctx, "failed to delete payment session", "payment_id", paymentID, "error", err)
	}
}
