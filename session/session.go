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

// Package session provides the durable, append-only conversation log.
//
// A Session owns the ordered event sequence for one conversation plus
// statistics derived from it and a compaction policy. It is a
// single-writer structure: one logical actor owns a session at a time,
// and concurrent pipeline runs against the same session must be
// externally serialized. Persistence is an external collaborator's
// responsibility; a session is fully reconstructible from its
// serialized snapshot.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/mnemo/event"
)

// Metadata identifies a session.
type Metadata struct {
	SessionID string    `json:"sessionId"`
	AgentID   string    `json:"agentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Statistics is the exact fold of the event sequence seen so far. It is
// maintained by AddEvent and never corrected independently.
type Statistics struct {
	TotalEvents       int                  `json:"totalEvents"`
	EventsByAction    map[event.Action]int `json:"eventsByAction"`
	TokensUsed        int                  `json:"tokensUsed"`
	AvgResponseTimeMs float64              `json:"avgResponseTimeMs"`
}

// Session is the append-only event log for one conversation.
type Session struct {
	metadata   Metadata
	events     []*event.Event
	stats      Statistics
	compaction CompactionConfig
}

// New creates a session for the given agent. An empty sessionID gets a
// generated uuid.
func New(sessionID, agentID string) *Session {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now()
	return &Session{
		metadata: Metadata{
			SessionID: sessionID,
			AgentID:   agentID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		stats: Statistics{
			EventsByAction: make(map[event.Action]int),
		},
		compaction: DefaultCompactionConfig(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.metadata.SessionID }

// AgentID returns the owning agent identifier.
func (s *Session) AgentID() string { return s.metadata.AgentID }

// Metadata returns a copy of the session metadata.
func (s *Session) Metadata() Metadata { return s.metadata }

// Statistics returns a copy of the derived statistics.
func (s *Session) Statistics() Statistics {
	out := s.stats
	out.EventsByAction = make(map[event.Action]int, len(s.stats.EventsByAction))
	for k, v := range s.stats.EventsByAction {
		out.EventsByAction[k] = v
	}
	return out
}

// CompactionConfig returns the current compaction configuration.
func (s *Session) CompactionConfig() CompactionConfig { return s.compaction }

// Events returns the event log in insertion order. The returned slice
// must be treated as read-only; events themselves are immutable.
func (s *Session) Events() []*event.Event { return s.events }

// AddEvent appends an event to the log, bumps UpdatedAt and folds the
// event into statistics. It returns the session so appends can be
// chained.
func (s *Session) AddEvent(e *event.Event) *Session {
	if e == nil {
		return s
	}
	s.events = append(s.events, e)
	s.metadata.UpdatedAt = time.Now()

	s.stats.TotalEvents++
	s.stats.EventsByAction[e.Action]++
	if e.Action == event.ActionAgentMessage && e.TokensUsed > 0 {
		s.stats.TokensUsed += e.TokensUsed
	}
	return s
}

// RecordResponseLatency folds one response latency sample into the
// running average, weighting the prior average by the agent message
// count seen so far.
func (s *Session) RecordResponseLatency(sampleMs float64) {
	prior := s.stats.EventsByAction[event.ActionAgentMessage]
	s.stats.AvgResponseTimeMs = (s.stats.AvgResponseTimeMs*float64(prior) + sampleMs) / float64(prior+1)
}

// NeedsCompaction reports whether the non-compaction event count has
// reached the trigger threshold. Compaction markers never count toward
// the trigger, and a disabled config always reports false.
func (s *Session) NeedsCompaction() bool {
	if !s.compaction.Enabled {
		return false
	}
	threshold := s.compaction.TriggerThreshold
	if threshold <= 0 {
		threshold = DefaultTriggerThreshold
	}
	count := s.stats.TotalEvents - s.stats.EventsByAction[event.ActionCompaction]
	return count >= threshold
}

// UpdateCompactionConfig shallow-merges the set fields of the patch
// into the compaction configuration and returns the session.
func (s *Session) UpdateCompactionConfig(patch CompactionConfigPatch) *Session {
	if patch.Enabled != nil {
		s.compaction.Enabled = *patch.Enabled
	}
	if patch.TriggerThreshold != nil {
		s.compaction.TriggerThreshold = *patch.TriggerThreshold
	}
	if patch.WindowSize != nil {
		s.compaction.WindowSize = *patch.WindowSize
	}
	if patch.OverlapSize != nil {
		s.compaction.OverlapSize = *patch.OverlapSize
	}
	if patch.Strategy != nil {
		s.compaction.Strategy = *patch.Strategy
	}
	return s
}

// EventsBetween returns all events whose timestamp falls within the
// inclusive [start, end] range, preserving order.
func (s *Session) EventsBetween(start, end time.Time) []*event.Event {
	var out []*event.Event
	for _, e := range s.events {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			out = append(out, e)
		}
	}
	return out
}

// EventsByAction returns all events with the given action, preserving
// order.
func (s *Session) EventsByAction(action event.Action) []*event.Event {
	var out []*event.Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// LastEvents returns the last n events in order. It returns the whole
// log when n exceeds the event count and nil when n <= 0.
func (s *Session) LastEvents(n int) []*event.Event {
	if n <= 0 {
		return nil
	}
	if n >= len(s.events) {
		return s.events
	}
	return s.events[len(s.events)-n:]
}

// Turn groups one user message with the agent message and tool activity
// that follow it, up to the next user message. Turns are derived on
// demand and never stored.
type Turn struct {
	User  *event.Event
	Agent *event.Event
	Tools []*event.Event
}

// ConversationTurns derives the turn structure with a single
// left-to-right scan. A user message starts a new turn, the latest
// agent message wins the turn's agent slot, and tool call/result events
// attach in encounter order. Events before the first user message are
// not part of any turn.
func (s *Session) ConversationTurns() []Turn {
	var turns []Turn
	var current *Turn

	for _, e := range s.events {
		switch e.Action {
		case event.ActionUserMessage:
			if current != nil {
				turns = append(turns, *current)
			}
			current = &Turn{User: e}
		case event.ActionAgentMessage:
			if current != nil {
				current.Agent = e
			}
		case event.ActionToolCall, event.ActionToolResult:
			if current != nil {
				current.Tools = append(current.Tools, e)
			}
		default:
			// Other actions do not participate in turn grouping.
		}
	}

	if current != nil {
		turns = append(turns, *current)
	}
	return turns
}
