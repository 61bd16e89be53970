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

// inmem is the in-process session store. It is the default for
// single-replica embedders and for tests; expired sessions are swept
// opportunistically on writes.
package inmem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/interledger/publisher-tools/openpay"
)

type entry struct {
	session   openpay.Session
	expiresAt time.Time
}

// Store implements [openpay.SessionStore] with a mutex-guarded map.
type Store struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func New() *Store {
	return &Store{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *Store) Put(_ context.Context, session openpay.Session, ttl time.Duration) error {
	if session.PaymentID == "" {
		return errors.New("session has no payment id")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[session.PaymentID] = entry{
		session:   session,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *Store) Get(_ context.Context, paymentID string) (openpay.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[paymentID]
	if !ok {
		return openpay.Session{}, openpay.ErrSessionNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, paymentID)
		return openpay.Session{}, openpay.ErrSessionNotFound
	}
	return e.session, nil
}

func (s *Store) Delete(_ context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[paymentID]; !ok {
		return openpay.ErrSessionNotFound
	}
	delete(s.sessions, paymentID)
	return nil
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
