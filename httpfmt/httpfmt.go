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

// httpfmt holds the JSON plumbing shared by HTTP clients in this module:
// bounded response decoding and extraction of service errors from response
// bodies.
package httpfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxBodyBytes bounds how much of any response body is read, in case a
// service returns excessively large payloads.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes a JSON response body into tgt with a read limit.
func DecodeJSON(r io.Reader, tgt any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	if err := dec.Decode(tgt); err != nil {
		return fmt.Errorf("failed to decode json body: %w", err)
	}
	return nil
}

// StatusError indicates a response with a non-success status code.
type StatusError struct {
	StatusCode int
	Cause      error
}

func (e StatusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("status code %d: %s", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("status code %d", e.StatusCode)
}

func (e StatusError) Unwrap() error {
	return e.Cause
}

// ErrorFromResponse turns a non-success response into a StatusError,
// extracting whatever error detail the body carries. It closes the body.
func ErrorFromResponse(resp *http.Response) error {
	defer resp.Body.Close()

	const maxErrorBytes = 4096
	reader := io.LimitReader(resp.Body, maxErrorBytes)

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if cause := decodeJSONError(reader); cause != nil {
			return StatusError{StatusCode: resp.StatusCode, Cause: cause}
		}
		return StatusError{StatusCode: resp.StatusCode}
	}

	body, _ := io.ReadAll(reader)
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return StatusError{StatusCode: resp.StatusCode, Cause: errors.New(msg)}
	}
	return StatusError{StatusCode: resp.StatusCode}
}

// decodeJSONError pulls an error message out of the common JSON error
// shapes: {"error": "..."}, {"message": "..."} and
// {"error": {"code": ..., "description": ...}}.
func decodeJSONError(r io.Reader) error {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil
	}

	if len(body.Error) > 0 {
		var msg string
		if err := json.Unmarshal(body.Error, &msg); err == nil && msg != "" {
			return errors.New(msg)
		}
		var detail struct {
			Code        string `json:"code"`
			Message     string `json:"message"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(body.Error, &detail); err == nil {
			switch {
			case detail.Description != "":
				return fmt.Errorf("%s: %s", detail.Code, detail.Description)
			case detail.Message != "":
				return fmt.Errorf("%s: %s", detail.Code, detail.Message)
			case detail.Code != "":
				return errors.New(detail.Code)
			}
		}
	}
	if body.Message != "" {
		return errors.New(body.Message)
	}
	return nil
}
