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

package pubtools

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/interledger/publisher-tools/openpay"
)

// Config allows for configuration of clients via YAML files.
type Config struct {
	// ClientAddress is the wallet address URL identifying this client to auth
	// servers. Its published key set must contain the signing key below.
	ClientAddress string `yaml:"client_address"`
	// KeyID names the signing key within the client wallet's key set.
	KeyID string `yaml:"key_id"`
	// PrivateKey is the base64-encoded Ed25519 signing key, either the
	// 32-byte seed or the full 64-byte private key.
	PrivateKey string `yaml:"private_key"`

	// RedirectURL is where auth servers send the user after the interactive
	// grant step. The payment correlation id is appended as a query parameter.
	RedirectURL string `yaml:"redirect_url"`

	// IncomingPaymentExpiry bounds how long a provisional incoming payment
	// stays open.
	IncomingPaymentExpiry time.Duration `yaml:"incoming_payment_expiry"`
	// SessionTTL bounds how long a pending session waits for the redirect
	// callback.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// RequestTimeout is the per-request timeout of the underlying HTTP client.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// SettlementPollInterval is the initial wait between settlement checks;
	// it doubles up to SettlementPollMaxInterval.
	SettlementPollInterval    time.Duration `yaml:"settlement_poll_interval"`
	SettlementPollMaxInterval time.Duration `yaml:"settlement_poll_max_interval"`
	// SettlementTimeout bounds the total time spent waiting for an outgoing
	// payment to reflect its settlement outcome.
	SettlementTimeout time.Duration `yaml:"settlement_timeout"`

	// RedisAddr, when set, switches session storage from in-process memory to
	// the Redis instance at this address. Required for multi-replica
	// deployments where the redirect callback may land on any replica.
	RedisAddr string `yaml:"redis_addr"`
}

// DefaultConfig returns a new instance of Config with default values set.
func DefaultConfig() Config {
	return Config{
		IncomingPaymentExpiry:     openpay.DefaultIncomingPaymentExpiry,
		SessionTTL:                openpay.DefaultSessionTTL,
		RequestTimeout:            30 * time.Second,
		SettlementPollInterval:    openpay.DefaultSettlementPoll.Initial,
		SettlementPollMaxInterval: openpay.DefaultSettlementPoll.Max,
		SettlementTimeout:         openpay.DefaultSettlementPoll.Timeout,
	}
}

// ParseConfig decodes a YAML document over DefaultConfig, so omitted fields
// keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
