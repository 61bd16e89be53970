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

package httpfmt

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func response(status int, contentType, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func TestDecodeJSON(t *testing.T) {
	var tgt struct {
		ID string `json:"id"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"id":"a"}`), &tgt))
	require.Equal(t, "a", tgt.ID)

	require.Error(t, DecodeJSON(strings.NewReader(`{`), &tgt))
}

func TestErrorFromResponse(t *testing.T) {
	tests := map[string]struct {
		resp *http.Response
		want string
	}{
		"string error": {
			resp: response(400, "application/json", `{"error":"invalid client"}`),
			want: "status code 400: invalid client",
		},
		"message": {
			resp: response(403, "application/json", `{"message":"forbidden"}`),
			want: "status code 403: forbidden",
		},
		"structured error": {
			resp: response(400, "application/json", `{"error":{"code":"invalid_client","description":"unknown key"}}`),
			want: "status code 400: invalid_client: unknown key",
		},
		"plain text": {
			resp: response(500, "text/plain", "boom"),
			want: "status code 500: boom",
		},
		"empty body": {
			resp: response(502, "", ""),
			want: "status code 502",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := ErrorFromResponse(tc.resp)
			require.EqualError(t, err, tc.want)

			var statusErr StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tc.resp.StatusCode, statusErr.StatusCode)
		})
	}
}
