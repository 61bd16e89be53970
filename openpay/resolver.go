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
	"net/url"
	"strings"

	"github.com/interledger/publisher-tools/openpay/currency"
	"github.com/interledger/publisher-tools/openpayments"
	"github.com/interledger/publisher-tools/otel/otelutil"
)

// Resolver resolves user-supplied wallet address strings to full wallet
// metadata. Addresses are re-resolved per operation; a wallet's asset and
// server endpoints are effectively static, so callers may cache results.
type Resolver struct {
	client openpayments.Client
}

func NewResolver(client openpayments.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve accepts an https:// wallet address URL or the $-prefixed short
// form and returns the wallet's metadata. Partial responses are rejected,
// never defaulted.
func (r *Resolver) Resolve(ctx context.Context, address string) (openpayments.WalletAddress, error) {
	ctx, span := otelutil.Tracer.Start(ctx, "openpay.Resolver.Resolve")
	defer span.End()

	addr, err := normalizeAddress(address)
	if err != nil {
		return openpayments.WalletAddress{}, otelutil.RecordError(span, InvalidWalletAddressError{Address: address, Err: err})
	}

	wallet, err := r.client.GetWalletAddress(ctx, addr)
	if err != nil {
		return openpayments.WalletAddress{}, otelutil.RecordError(span, InvalidWalletAddressError{
			Address: address,
			Err:     fmt.Errorf("wallet address lookup failed: %w", err),
		})
	}

	if err := validateWallet(wallet); err != nil {
		return openpayments.WalletAddress{}, otelutil.RecordError(span, InvalidWalletAddressError{Address: address, Err: err})
	}

	return wallet, nil
}

// normalizeAddress rewrites the $ shorthand to https:// and rejects
// anything that is not an absolute https URL.
func normalizeAddress(address string) (string, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return "", errors.New("empty address")
	}
	if strings.HasPrefix(addr, "$") {
		addr = "https://" + addr[1:]
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("malformed address: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", errors.New("address must be an https URL or $-prefixed payment pointer")
	}
	return addr, nil
}

func validateWallet(w openpayments.WalletAddress) error {
	switch {
	case w.ID == "":
		return errors.New("wallet metadata is missing id")
	case w.AssetCode == "":
		return errors.New("wallet metadata is missing assetCode")
	case w.AssetScale < 0 || w.AssetScale > currency.MaxAssetScale:
		return fmt.Errorf("wallet metadata has invalid assetScale %d", w.AssetScale)
	case w.AuthServer == "":
		return errors.New("wallet metadata is missing authServer")
	case w.ResourceServer == "":
		return errors.New("wallet metadata is missing resourceServer")
	}
	return nil
}
