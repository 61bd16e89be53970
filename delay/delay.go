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

// delay provides context-aware waits and a bounded poll loop. It exists so
// that settlement checks against remote payment services never turn into
// unbounded sleeps: every wait can be cancelled through the context and every
// poll has a total deadline.
package delay

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned by Poll when the condition did not hold before
// the configured total timeout elapsed.
var ErrPollTimeout = errors.New("poll timed out")

// For waits for the given duration or until the context is cancelled.
func For(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff describes the wait schedule of a Poll. The wait between attempts
// starts at Initial and doubles until it reaches Max.
type Backoff struct {
	// Initial is the wait before the second attempt. The first attempt runs
	// after one Initial wait as well, since pollers typically follow an
	// operation that has just been submitted.
	Initial time.Duration
	// Max caps the wait between attempts.
	Max time.Duration
	// Timeout bounds the total time spent polling, waits included.
	Timeout time.Duration
}

// Poll repeatedly invokes fn until it reports done, the context is cancelled,
// or the backoff's total timeout elapses. fn errors are terminal and returned
// as-is; a timeout is reported as [ErrPollTimeout].
func Poll(ctx context.Context, b Backoff, fn func(ctx context.Context) (done bool, err error)) error {
	if b.Initial <= 0 {
		b.Initial = time.Second
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	wait := b.Initial
	for {
		if err := For(ctx, wait); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				return ErrPollTimeout
			}
			return err
		}

		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		wait *= 2
		if wait > b.Max {
			wait = b.Max
		}
	}
}
