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

// httpsig signs outgoing HTTP requests with Ed25519 message signatures
// (RFC 9421). Open Payments servers authenticate clients by these
// signatures; the key pair is identified by a key id published under the
// client's wallet address.
//
// The package exposes the signer as an [http.RoundTripper] so it can be
// injected into any client as a transport wrapper.
package httpsig

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const signatureLabel = "sig1"

// Signer computes RFC 9421 signature headers for requests.
type Signer struct {
	keyID string
	key   ed25519.PrivateKey
	now   func() time.Time
}

func NewSigner(keyID string, key ed25519.PrivateKey) (*Signer, error) {
	if keyID == "" {
		return nil, errors.New("missing key id")
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	return &Signer{
		keyID: keyID,
		key:   key,
		now:   time.Now,
	}, nil
}

// Sign adds Signature, Signature-Input and, when a body is present,
// Content-Digest headers to the request. The body bytes must match what
// will actually be sent.
func (s *Signer) Sign(req *http.Request, body []byte) error {
	components := []string{"@method", "@target-uri"}

	if len(body) > 0 {
		digest := sha512.Sum512(body)
		req.Header.Set("Content-Digest",
			"sha-512=:"+base64.StdEncoding.EncodeToString(digest[:])+":")
		req.Header.Set("Content-Length", strconv.Itoa(len(body)))
		components = append(components, "content-digest", "content-length", "content-type")
	}

	params := signatureParams(components, s.keyID, s.now().Unix())
	base, err := signatureBase(req, components, params)
	if err != nil {
		return err
	}

	sig := ed25519.Sign(s.key, []byte(base))
	req.Header.Set("Signature-Input", signatureLabel+"="+params)
	req.Header.Set("Signature", signatureLabel+"=:"+base64.StdEncoding.EncodeToString(sig)+":")
	return nil
}

// signatureParams renders the @signature-params value for the covered
// components.
func signatureParams(components []string, keyID string, created int64) string {
	quoted := make([]string, len(components))
	for i, c := range components {
		quoted[i] = strconv.Quote(c)
	}
	return fmt.Sprintf("(%s);created=%d;keyid=%q;alg=\"ed25519\"",
		strings.Join(quoted, " "), created, keyID)
}

// signatureBase builds the canonical string that gets signed: one line per
// covered component, closed by the @signature-params line.
func signatureBase(req *http.Request, components []string, params string) (string, error) {
	var b strings.Builder
	for _, c := range components {
		value, err := componentValue(req, c)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%q: %s\n", c, value)
	}
	fmt.Fprintf(&b, "%q: %s", "@signature-params", params)
	return b.String(), nil
}

func componentValue(req *http.Request, component string) (string, error) {
	switch component {
	case "@method":
		return req.Method, nil
	case "@target-uri":
		return req.URL.String(), nil
	default:
		v := req.Header.Get(component)
		if v == "" {
			return "", fmt.Errorf("request is missing covered header %q", component)
		}
		return v, nil
	}
}

// Transport signs every request passing through it.
type Transport struct {
	signer *Signer
	base   http.RoundTripper
}

// NewTransport wraps base so every outgoing request carries signature
// headers. A nil base defaults to http.DefaultTransport.
func NewTransport(signer *Signer, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{signer: signer, base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body for signing: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	if err := t.signer.Sign(req, body); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return t.base.RoundTrip(req)
}
