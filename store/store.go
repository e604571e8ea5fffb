// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists serialized sessions. The memory core itself
// never persists anything; stores are the external collaborator behind
// the session snapshot boundary and round-trip sessions exactly through
// their serialized form.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/kadirpekel/mnemo/session"
)

// ErrSessionNotFound is returned when loading or deleting a session
// that the store does not hold.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions by id.
type Store interface {
	// Save persists the session's current snapshot.
	Save(ctx context.Context, s *session.Session) error

	// Load reconstructs the session with the given id.
	Load(ctx context.Context, sessionID string) (*session.Session, error)

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)

	// Delete removes the session with the given id.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps serialized snapshots in process memory. Storing the
// serialized form rather than live sessions gives callers the same
// isolation guarantees as a durable store.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// Save persists the session's serialized snapshot.
func (m *MemoryStore) Save(ctx context.Context, s *session.Session) error {
	data, err := s.Serialize()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.ID()] = data
	return nil
}

// Load reconstructs a stored session.
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	m.mu.RLock()
	data, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Deserialize(data)
}

// List returns the ids of all stored sessions.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes a stored session.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.snapshots, sessionID)
	return nil
}

// Compile-time interface checks.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
