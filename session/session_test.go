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

package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
)

func TestNew_GeneratesIDWhenEmpty(t *testing.T) {
	s := session.New("", "agent-1")
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "agent-1", s.AgentID())
	assert.False(t, s.Metadata().CreatedAt.IsZero())

	explicit := session.New("sess-1", "agent-1")
	assert.Equal(t, "sess-1", explicit.ID())
}

func TestAddEvent_FoldsStatistics(t *testing.T) {
	s := session.New("sess-1", "agent-1")

	s.AddEvent(event.NewUserMessage("hi")).
		AddEvent(event.NewAgentMessage("hello", "gpt-4o", "openai", 10)).
		AddEvent(event.NewAgentMessage("more", "gpt-4o", "openai", 15)).
		AddEvent(event.NewToolCall("search", nil, "c1"))

	stats := s.Statistics()
	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, 1, stats.EventsByAction[event.ActionUserMessage])
	assert.Equal(t, 2, stats.EventsByAction[event.ActionAgentMessage])
	assert.Equal(t, 1, stats.EventsByAction[event.ActionToolCall])
	assert.Equal(t, 25, stats.TokensUsed)
}

func TestAddEvent_TokensOnlyFromAgentMessages(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(event.NewUserMessage("hi"))
	s.AddEvent(event.NewToolResult("search", "sunny", "c1"))
	assert.Equal(t, 0, s.Statistics().TokensUsed)
}

func TestAddEvent_IgnoresNil(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(nil)
	assert.Equal(t, 0, s.Statistics().TotalEvents)
	assert.Empty(t, s.Events())
}

func TestRecordResponseLatency_RunningAverage(t *testing.T) {
	s := session.New("sess-1", "agent-1")

	// First sample with no prior agent messages becomes the average.
	s.RecordResponseLatency(100)
	assert.InDelta(t, 100, s.Statistics().AvgResponseTimeMs, 0.001)

	// One agent message on record weights the prior average by one.
	s.AddEvent(event.NewAgentMessage("a", "gpt-4o", "openai", 1))
	s.RecordResponseLatency(300)
	assert.InDelta(t, 200, s.Statistics().AvgResponseTimeMs, 0.001)
}

func TestNeedsCompaction(t *testing.T) {
	t.Run("false below threshold", func(t *testing.T) {
		s := session.New("sess-1", "agent-1")
		for i := 0; i < session.DefaultTriggerThreshold-1; i++ {
			s.AddEvent(event.NewUserMessage("x"))
		}
		assert.False(t, s.NeedsCompaction())
	})

	t.Run("true at threshold", func(t *testing.T) {
		s := session.New("sess-1", "agent-1")
		for i := 0; i < session.DefaultTriggerThreshold; i++ {
			s.AddEvent(event.NewUserMessage("x"))
		}
		assert.True(t, s.NeedsCompaction())
	})

	t.Run("compaction markers do not count", func(t *testing.T) {
		s := session.New("sess-1", "agent-1")
		for i := 0; i < session.DefaultTriggerThreshold-1; i++ {
			s.AddEvent(event.NewUserMessage("x"))
		}
		s.AddEvent(event.NewCompaction("sum", []string{"a"}, session.StrategySimple))
		assert.False(t, s.NeedsCompaction())
	})

	t.Run("disabled always false", func(t *testing.T) {
		s := session.New("sess-1", "agent-1")
		enabled := false
		s.UpdateCompactionConfig(session.CompactionConfigPatch{Enabled: &enabled})
		for i := 0; i < session.DefaultTriggerThreshold+10; i++ {
			s.AddEvent(event.NewUserMessage("x"))
		}
		assert.False(t, s.NeedsCompaction())
	})
}

func TestUpdateCompactionConfig_PartialMerge(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	threshold := 10
	strategy := session.StrategyHybrid
	s.UpdateCompactionConfig(session.CompactionConfigPatch{
		TriggerThreshold: &threshold,
		Strategy:         &strategy,
	})

	cfg := s.CompactionConfig()
	assert.Equal(t, 10, cfg.TriggerThreshold)
	assert.Equal(t, session.StrategyHybrid, cfg.Strategy)
	// Untouched fields keep their defaults.
	assert.True(t, cfg.Enabled)
	assert.Equal(t, session.DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, session.DefaultOverlapSize, cfg.OverlapSize)
}

func TestQueries(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.AddEvent(event.NewUserMessage("m",
			event.WithID(stringID(i)),
			event.WithTimestamp(base.Add(time.Duration(i)*time.Minute))))
	}
	s.AddEvent(event.NewAgentMessage("a", "gpt-4o", "openai", 1,
		event.WithTimestamp(base.Add(10*time.Minute))))

	t.Run("events between inclusive", func(t *testing.T) {
		got := s.EventsBetween(base.Add(1*time.Minute), base.Add(3*time.Minute))
		require.Len(t, got, 3)
		assert.Equal(t, "e1", got[0].ID)
		assert.Equal(t, "e3", got[2].ID)
	})

	t.Run("events by action", func(t *testing.T) {
		assert.Len(t, s.EventsByAction(event.ActionUserMessage), 5)
		assert.Len(t, s.EventsByAction(event.ActionAgentMessage), 1)
		assert.Empty(t, s.EventsByAction(event.ActionError))
	})

	t.Run("last events", func(t *testing.T) {
		got := s.LastEvents(2)
		require.Len(t, got, 2)
		assert.Equal(t, event.ActionAgentMessage, got[1].Action)

		assert.Len(t, s.LastEvents(100), 6)
		assert.Nil(t, s.LastEvents(0))
	})
}

func stringID(i int) string {
	return "e" + string(rune('0'+i))
}

func TestConversationTurns(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	u1 := event.NewUserMessage("first")
	a1 := event.NewAgentMessage("answer", "gpt-4o", "openai", 5)
	tc := event.NewToolCall("search", nil, "c1")
	tr := event.NewToolResult("search", "found", "c1")
	u2 := event.NewUserMessage("second")

	s.AddEvent(u1).AddEvent(a1).AddEvent(tc).AddEvent(tr).AddEvent(u2)

	turns := s.ConversationTurns()
	require.Len(t, turns, 2)

	assert.Equal(t, u1.ID, turns[0].User.ID)
	assert.Equal(t, a1.ID, turns[0].Agent.ID)
	require.Len(t, turns[0].Tools, 2)
	assert.Equal(t, tc.ID, turns[0].Tools[0].ID)
	assert.Equal(t, tr.ID, turns[0].Tools[1].ID)

	assert.Equal(t, u2.ID, turns[1].User.ID)
	assert.Nil(t, turns[1].Agent)
	assert.Empty(t, turns[1].Tools)
}

func TestConversationTurns_EventsBeforeFirstUserDropped(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(event.NewAgentMessage("orphan", "gpt-4o", "openai", 1))
	s.AddEvent(event.NewUserMessage("hello"))

	turns := s.ConversationTurns()
	require.Len(t, turns, 1)
	assert.Nil(t, turns[0].Agent)
}

func TestConversationTurns_LastAgentMessageWins(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(event.NewUserMessage("q"))
	s.AddEvent(event.NewAgentMessage("draft", "gpt-4o", "openai", 1))
	final := event.NewAgentMessage("final", "gpt-4o", "openai", 1)
	s.AddEvent(final)

	turns := s.ConversationTurns()
	require.Len(t, turns, 1)
	assert.Equal(t, final.ID, turns[0].Agent.ID)
}

func TestSerialize_RoundTrip(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(event.NewUserMessage("hi"))
	s.AddEvent(event.NewAgentMessage("hello", "gpt-4o", "openai", 12))
	s.RecordResponseLatency(250)
	threshold := 30
	s.UpdateCompactionConfig(session.CompactionConfigPatch{TriggerThreshold: &threshold})

	data, err := s.Serialize()
	require.NoError(t, err)

	restored, err := session.Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.AgentID(), restored.AgentID())
	assert.Equal(t, s.Statistics(), restored.Statistics())
	assert.Equal(t, s.CompactionConfig(), restored.CompactionConfig())
	require.Len(t, restored.Events(), 2)
	assert.Equal(t, s.Events()[0].ID, restored.Events()[0].ID)

	// Behavior continues identically after restore.
	restored.AddEvent(event.NewUserMessage("again"))
	assert.Equal(t, 3, restored.Statistics().TotalEvents)
}

func TestDeserialize_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{{{"},
		{name: "missing session id", data: `{"metadata":{"agentId":"a","createdAt":"2025-01-01T00:00:00Z"}}`},
		{name: "missing created at", data: `{"metadata":{"sessionId":"s","agentId":"a"}}`},
		{
			name: "invalid event",
			data: `{"metadata":{"sessionId":"s","agentId":"a","createdAt":"2025-01-01T00:00:00Z"},"events":[{"id":"","action":"user_message"}]}`,
		},
		{
			name: "unknown strategy",
			data: `{"metadata":{"sessionId":"s","agentId":"a","createdAt":"2025-01-01T00:00:00Z"},"compactionConfig":{"strategy":"psychic"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.Deserialize([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, session.ErrMalformedSnapshot)
		})
	}
}

func TestClone_Independent(t *testing.T) {
	s := session.New("sess-1", "agent-1")
	s.AddEvent(event.NewUserMessage("hi"))

	clone, err := s.Clone()
	require.NoError(t, err)

	clone.AddEvent(event.NewUserMessage("only in clone"))
	assert.Equal(t, 1, s.Statistics().TotalEvents)
	assert.Equal(t, 2, clone.Statistics().TotalEvents)
}
