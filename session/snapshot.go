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

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kadirpekel/mnemo/event"
)

// ErrMalformedSnapshot indicates serialized input that does not conform
// to the snapshot shape. Deserialization is all-or-nothing; no partial
// recovery is attempted.
var ErrMalformedSnapshot = errors.New("malformed session snapshot")

// Snapshot is the structural serialized form of a session. It is the
// persistence boundary: external stores carry exactly this shape.
type Snapshot struct {
	Metadata         Metadata         `json:"metadata"`
	Events           []*event.Event   `json:"events"`
	Statistics       Statistics       `json:"statistics"`
	CompactionConfig CompactionConfig `json:"compactionConfig"`
}

// Snapshot captures the session's current state as a structural value.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Metadata:         s.metadata,
		Events:           append([]*event.Event(nil), s.events...),
		Statistics:       s.Statistics(),
		CompactionConfig: s.compaction,
	}
}

// Serialize encodes the session snapshot as JSON.
func (s *Session) Serialize() ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("serialize session %s: %w", s.ID(), err)
	}
	return data, nil
}

// FromSnapshot reconstructs a session whose subsequent behavior is
// indistinguishable from the one that produced the snapshot.
func FromSnapshot(snap Snapshot) (*Session, error) {
	if snap.Metadata.SessionID == "" {
		return nil, fmt.Errorf("%w: missing sessionId", ErrMalformedSnapshot)
	}
	if snap.Metadata.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing createdAt", ErrMalformedSnapshot)
	}
	for i, e := range snap.Events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrMalformedSnapshot, i, err)
		}
	}

	stats := snap.Statistics
	if stats.EventsByAction == nil {
		stats.EventsByAction = make(map[event.Action]int)
	}

	compaction := snap.CompactionConfig
	if compaction.Strategy != "" {
		switch compaction.Strategy {
		case StrategySimple, StrategySemantic, StrategyHybrid:
		default:
			return nil, fmt.Errorf("%w: unknown compaction strategy %q", ErrMalformedSnapshot, compaction.Strategy)
		}
	}

	return &Session{
		metadata:   snap.Metadata,
		events:     append([]*event.Event(nil), snap.Events...),
		stats:      stats,
		compaction: compaction,
	}, nil
}

// Deserialize decodes a JSON snapshot produced by Serialize. Input that
// does not conform to the snapshot shape is rejected with
// ErrMalformedSnapshot.
func Deserialize(data []byte) (*Session, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return FromSnapshot(snap)
}

// Clone returns an independent deep copy of the session via a snapshot
// round-trip. Callers that want transactional response-pipeline
// semantics can clone first and swap on success.
func (s *Session) Clone() (*Session, error) {
	data, err := s.Serialize()
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}
