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

// otelutil holds the shared tracer handle and a few helpers for recording
// errors on spans. The tracer defaults to a noop implementation; embedders
// that run a real OpenTelemetry pipeline should install their own tracer
// during startup.
package otelutil

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer is the tracer used by all payment operations.
// It is a noop until the embedding application installs a real tracer.
var Tracer trace.Tracer = noop.Tracer{}

// RecordError attaches an error to a span and returns it.
func RecordError(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	return err
}

// RecordError2 attaches an error to a span without returning it.
// This function exists because the errcheck linter requires that we check returned errors.
func RecordError2(span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

// Error creates an error, attaches it to the span, and returns it.
func Error(span trace.Span, message string) error {
	return RecordError(span, errors.New(message))
}

// Errorf creates an error, attaches it to the span, and returns it.
func Errorf(span trace.Span, format string, a ...any) error {
	return RecordError(span, fmt.Errorf(format, a...))
}
