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

package event_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/mnemo/event"
)

func TestConstructors_SetVariantFields(t *testing.T) {
	tests := []struct {
		name   string
		e      *event.Event
		action event.Action
		check  func(t *testing.T, e *event.Event)
	}{
		{
			name:   "user message",
			e:      event.NewUserMessage("hello"),
			action: event.ActionUserMessage,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "hello", e.Content)
			},
		},
		{
			name:   "agent message",
			e:      event.NewAgentMessage("hi there", "gpt-4o", "openai", 42),
			action: event.ActionAgentMessage,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "hi there", e.Content)
				assert.Equal(t, "gpt-4o", e.Model)
				assert.Equal(t, "openai", e.Gateway)
				assert.Equal(t, 42, e.TokensUsed)
			},
		},
		{
			name:   "tool call",
			e:      event.NewToolCall("search", map[string]any{"q": "weather"}, "call-1"),
			action: event.ActionToolCall,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "search", e.ToolName)
				assert.Equal(t, "weather", e.Arguments["q"])
				assert.Equal(t, "call-1", e.ToolCallID)
			},
		},
		{
			name:   "tool result",
			e:      event.NewToolResult("search", "sunny", "call-1"),
			action: event.ActionToolResult,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "sunny", e.Result)
				assert.Equal(t, "call-1", e.ToolCallID)
			},
		},
		{
			name:   "error",
			e:      event.NewError("rate_limit", "slow down"),
			action: event.ActionError,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "rate_limit", e.ErrorCode)
				assert.Equal(t, "slow down", e.ErrorMessage)
			},
		},
		{
			name:   "control",
			e:      event.NewControl("pause"),
			action: event.ActionControl,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "pause", e.Signal)
			},
		},
		{
			name:   "compaction",
			e:      event.NewCompaction("summary text", []string{"e1", "e2"}, "simple"),
			action: event.ActionCompaction,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "summary text", e.Summary)
				assert.Equal(t, []string{"e1", "e2"}, e.CompactedEventIDs)
				assert.Equal(t, "simple", e.CompactionStrategy)
			},
		},
		{
			name:   "transfer",
			e:      event.NewTransfer("triage", "billing", "account question"),
			action: event.ActionTransfer,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "triage", e.FromAgent)
				assert.Equal(t, "billing", e.ToAgent)
				assert.Equal(t, "account question", e.Reason)
			},
		},
		{
			name:   "system instruction",
			e:      event.NewSystemInstruction("be brief", true),
			action: event.ActionSystemInstruction,
			check: func(t *testing.T, e *event.Event) {
				assert.Equal(t, "be brief", e.Instruction)
				assert.True(t, e.IsStatic)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.e)
			assert.Equal(t, tt.action, tt.e.Action)
			assert.NotEmpty(t, tt.e.ID)
			assert.False(t, tt.e.Timestamp.IsZero())
			require.NoError(t, tt.e.Validate())
			tt.check(t, tt.e)
		})
	}
}

func TestConstructors_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := event.NewUserMessage("x")
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestOptions_OverrideGeneratedFields(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := event.NewUserMessage("hello",
		event.WithID("fixed-id"),
		event.WithTimestamp(ts),
		event.WithMetadata(map[string]any{"source": "test"}))

	assert.Equal(t, "fixed-id", e.ID)
	assert.Equal(t, ts, e.Timestamp)
	assert.Equal(t, "test", e.Metadata["source"])
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	original := event.NewCompaction("folded history", []string{"a", "b", "c"}, "semantic")

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded event.Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, event.ActionCompaction, decoded.Action)
	assert.Equal(t, original.Summary, decoded.Summary)
	assert.Equal(t, original.CompactedEventIDs, decoded.CompactedEventIDs)
	assert.Equal(t, original.CompactionStrategy, decoded.CompactionStrategy)
}

func TestValidate_RejectsMalformedEvents(t *testing.T) {
	tests := []struct {
		name string
		e    *event.Event
	}{
		{name: "nil event", e: nil},
		{name: "missing id", e: &event.Event{Action: event.ActionUserMessage, Timestamp: time.Now()}},
		{name: "unknown action", e: &event.Event{ID: "x", Action: "telepathy", Timestamp: time.Now()}},
		{name: "missing timestamp", e: &event.Event{ID: "x", Action: event.ActionUserMessage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, event.ErrMalformed)
		})
	}
}

func TestRecognized_ClosedSet(t *testing.T) {
	for _, a := range event.Actions {
		assert.True(t, event.Recognized(a), "action %q", a)
	}
	assert.False(t, event.Recognized("unknown"))
	assert.False(t, event.Recognized(""))
}
