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
	"net/http"

	"github.com/interledger/publisher-tools/openpay"
	"github.com/interledger/publisher-tools/openpayments"
)

type scratch struct {
	opClient   openpayments.Client
	sessions   openpay.SessionStore
	httpClient *http.Client
}

type Option func(c *Client, s *scratch, config *Config) error

// WithOpenPaymentsClient replaces the HTTP-backed Open Payments client. With
// an injected client no signing key is needed; primarily for tests.
func WithOpenPaymentsClient(opClient openpayments.Client) Option {
	return func(_ *Client, s *scratch, _ *Config) error {
		s.opClient = opClient
		return nil
	}
}

// WithSessionStore replaces the session store picked from the config.
func WithSessionStore(sessions openpay.SessionStore) Option {
	return func(_ *Client, s *scratch, _ *Config) error {
		s.sessions = sessions
		return nil
	}
}

// WithHTTPClient replaces the base HTTP client the Open Payments client is
// built on. The signing and tracing transports are still layered on top.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(_ *Client, s *scratch, _ *Config) error {
		s.httpClient = httpClient
		return nil
	}
}
