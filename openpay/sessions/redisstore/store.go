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

// redisstore is the Redis-backed session store, for deployments where the
// redirect callback may land on a different replica than the one that
// requested the grant. Sessions are stored as JSON with the TTL enforced by
// Redis itself.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/interledger/publisher-tools/openpay"
)

const keyPrefix = "pubtools:session:"

// Store implements [openpay.SessionStore] on top of a Redis client.
type Store struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Put(ctx context.Context, session openpay.Session, ttl time.Duration) error {
	if session.PaymentID == "" {
		return errors.New("session has no payment id")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+session.PaymentID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, paymentID string) (openpay.Session, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+paymentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return openpay.Session{}, openpay.ErrSessionNotFound
	}
	if err != nil {
		return openpay.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session openpay.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return openpay.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, paymentID string) error {
	n, err := s.rdb.Del(ctx, keyPrefix+paymentID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return openpay.ErrSessionNotFound
	}
	return nil
}
