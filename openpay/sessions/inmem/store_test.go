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

package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/interledger/publisher-tools/openpay"
)

func TestPutGetDelete(t *testing.T) {
	store := New()

	session := openpay.Session{PaymentID: "p-1", Note: "coffee"}
	require.NoError(t, store.Put(context.Background(), session, time.Minute))

	got, err := store.Get(context.Background(), "p-1")
	require.NoError(t, err)
	require.Equal(t, session, got)

	require.NoError(t, store.Delete(context.Background(), "p-1"))

	_, err = store.Get(context.Background(), "p-1")
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)
	require.ErrorIs(t, store.Delete(context.Background(), "p-1"), openpay.ErrSessionNotFound)
}

func TestPutValidation(t *testing.T) {
	store := New()

	require.Error(t, store.Put(context.Background(), openpay.Session{}, time.Minute))
	require.Error(t, store.Put(context.Background(), openpay.Session{PaymentID: "p-1"}, 0))
}

func TestExpiry(t *testing.T) {
	store := New()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(context.Background(), openpay.Session{PaymentID: "p-1"}, time.Minute))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(context.Background(), "p-1")
	require.ErrorIs(t, err, openpay.ErrSessionNotFound)
}

func TestSweepOnPut(t *testing.T) {
	store := New()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(context.Background(), openpay.Session{PaymentID: "old"}, time.Minute))

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Put(context.Background(), openpay.Session{PaymentID: "new"}, time.Minute))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotContains(t, store.sessions, "old")
	require.Contains(t, store.sessions, "new")
}
