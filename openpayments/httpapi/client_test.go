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

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/interledger/publisher-tools/httpfmt"
	"github.com/interledger/publisher-tools/openpayments"
)

// capture records the last request a test server saw.
type capture struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, status int, respBody string) (*httptest.Server, *capture) {
	t.Helper()
	cap := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.header = r.Header.Clone()
		cap.body = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&cap.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, cap
}

func TestGetWalletAddress(t *testing.T) {
	srv, cap := newTestServer(t, http.StatusOK, `{
		"id": "https://wallet.example/alice",
		"publicName": "Alice",
		"assetCode": "USD",
		"assetScale": 2,
		"authServer": "https://auth.example",
		"resourceServer": "https://rs.example"
	}`)

	client := New(nil)
	wallet, err := client.GetWalletAddress(context.Background(), srv.URL+"/alice")
	require.NoError(t, err)
	require.Equal(t, openpayments.WalletAddress{
		ID:             "https://wallet.example/alice",
		PublicName:     "Alice",
		AssetCode:      "USD",
		AssetScale:     2,
		AuthServer:     "https://auth.example",
		ResourceServer: "https://rs.example",
	}, wallet)

	require.Equal(t, http.MethodGet, cap.method)
	require.Equal(t, "application/json", cap.header.Get("Accept"))
	require.Empty(t, cap.header.Get("Authorization"))
}

func TestGetWalletAddressMissingFields(t *testing.T) {
	// assetScale of zero is valid, so its absence has to be told apart
	// from an explicit zero.
	srv, _ := newTestServer(t, http.StatusOK, `{
		"id": "https://wallet.example/alice",
		"assetCode": "USD",
		"authServer": "https://auth.example",
		"resourceServer": "https://rs.example"
	}`)

	client := New(nil)
	_, err := client.GetWalletAddress(context.Background(), srv.URL+"/alice")
	require.ErrorContains(t, err, "missing required fields")
}

func TestRequestGrant(t *testing.T) {
	srv, cap := newTestServer(t, http.StatusOK, `{
		"access_token": {"value": "tok", "manage": "https://auth.example/token/1"},
		"continue": {"uri": "https://auth.example/continue/1", "access_token": {"value": "ct"}}
	}`)

	client := New(nil)
	grant, err := client.RequestGrant(context.Background(), srv.URL, openpayments.GrantRequest{
		Client: "https://wallet.example/client",
		AccessToken: openpayments.GrantAccess{
			Access: []openpayments.AccessItem{{
				Type:    openpayments.AccessTypeQuote,
				Actions: []string{openpayments.ActionCreate},
			}},
		},
	})
	require.NoError(t, err)
	require.True(t, grant.Finalized())
	require.Equal(t, "tok", grant.AccessToken.Value)

	require.Equal(t, http.MethodPost, cap.method)
	require.Equal(t, "application/json", cap.header.Get("Content-Type"))
	require.Empty(t, cap.header.Get("Authorization"))
	require.Equal(t, "https://wallet.example/client", cap.body["client"])
}

func TestContinueGrant(t *testing.T) {
	srv, cap := newTestServer(t, http.StatusOK, `{
		"access_token": {"value": "outgoing-tok"}
	}`)

	client := New(nil)
	grant, err := client.ContinueGrant(context.Background(), srv.URL+"/continue/1", "ct", "ref-1")
	require.NoError(t, err)
	require.True(t, grant.Finalized())

	require.Equal(t, "GNAP ct", cap.header.Get("Authorization"))
	require.Equal(t, map[string]any{"interact_ref": "ref-1"}, cap.body)
}

func TestCancelGrant(t *testing.T) {
	srv, cap := newTestServer(t, http.StatusNoContent, "")

	client := New(nil)
	require.NoError(t, client.CancelGrant(context.Background(), srv.URL+"/continue/1", "ct"))
	require.Equal(t, http.MethodDelete, cap.method)
	require.Equal(t, "GNAP ct", cap.header.Get("Authorization"))
}

func TestResourcePaths(t *testing.T) {
	tests := map[string]struct {
		call     func(c *Client, baseURL string) error
		wantPath string
	}{
		"incoming payment": {
			call: func(c *Client, baseURL string) error {
				_, err := c.CreateIncomingPayment(context.Background(), baseURL+"/", "tok",
					openpayments.IncomingPaymentRequest{WalletAddress: "https://wallet.example/bob"})
				return err
			},
			wantPath: "/incoming-payments",
		},
		"complete incoming payment": {
			call: func(c *Client, baseURL string) error {
				return c.CompleteIncomingPayment(context.Background(), baseURL+"/incoming-payments/1", "tok")
			},
			wantPath: "/incoming-payments/1/complete",
		},
		"quote": {
			call: func(c *Client, baseURL string) error {
				_, err := c.CreateQuote(context.Background(), baseURL, "tok", openpayments.QuoteRequest{
					WalletAddress: "https://wallet.example/alice",
					Receiver:      "https://rs.example/incoming-payments/1",
					Method:        openpayments.QuoteMethodILP,
				})
				return err
			},
			wantPath: "/quotes",
		},
		"outgoing payment": {
			call: func(c *Client, baseURL string) error {
				_, err := c.CreateOutgoingPayment(context.Background(), baseURL, "tok",
					openpayments.OutgoingPaymentRequest{QuoteID: "https://rs.example/quotes/1"})
				return err
			},
			wantPath: "/outgoing-payments",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv, cap := newTestServer(t, http.StatusCreated, `{"id": "created"}`)
			require.NoError(t, tc.call(New(nil), srv.URL))
			require.Equal(t, http.MethodPost, cap.method)
			require.Equal(t, tc.wantPath, cap.path)
			require.Equal(t, "GNAP tok", cap.header.Get("Authorization"))
		})
	}
}

func TestErrorResponses(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `{"error": {"code": "invalid_client", "description": "unknown key"}}`)

	client := New(nil)
	_, err := client.GetOutgoingPayment(context.Background(), srv.URL+"/outgoing-payments/1", "tok")
	require.Error(t, err)

	var statusErr httpfmt.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	require.ErrorContains(t, err, "invalid_client")
}
