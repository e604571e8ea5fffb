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

// Package event defines the closed set of interaction records that make
// up a conversation log.
//
// An Event is write-once: it is fully populated by one of the New*
// constructors and never mutated after it has been appended to a
// session. The Action discriminant selects one of nine variants;
// consumers that iterate events they do not specifically handle must
// skip unrecognized actions rather than fail.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Action discriminates the event variants.
type Action string

// The nine recognized event actions.
const (
	ActionUserMessage       Action = "user_message"
	ActionAgentMessage      Action = "agent_message"
	ActionToolCall          Action = "tool_call"
	ActionToolResult        Action = "tool_result"
	ActionError             Action = "error"
	ActionControl           Action = "control"
	ActionCompaction        Action = "compaction"
	ActionTransfer          Action = "transfer"
	ActionSystemInstruction Action = "system_instruction"
)

// Actions lists every recognized action in a stable order.
var Actions = []Action{
	ActionUserMessage,
	ActionAgentMessage,
	ActionToolCall,
	ActionToolResult,
	ActionError,
	ActionControl,
	ActionCompaction,
	ActionTransfer,
	ActionSystemInstruction,
}

// Recognized reports whether a is one of the nine known actions.
func Recognized(a Action) bool {
	switch a {
	case ActionUserMessage, ActionAgentMessage, ActionToolCall,
		ActionToolResult, ActionError, ActionControl,
		ActionCompaction, ActionTransfer, ActionSystemInstruction:
		return true
	}
	return false
}

// Event is a single immutable interaction record.
//
// ID is unique within a session (practically: across the process, since
// sessions can be merged). Timestamp is monotonically non-decreasing by
// convention, not enforced. Metadata is free-form and optional.
//
// The variant payload lives in the remaining fields; only the fields
// belonging to the Action variant are populated.
type Event struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// user_message, agent_message
	Content string `json:"content,omitempty"`

	// agent_message
	Model      string `json:"model,omitempty"`
	Gateway    string `json:"gateway,omitempty"`
	TokensUsed int    `json:"tokensUsed,omitempty"`

	// tool_call, tool_result
	ToolName   string `json:"toolName,omitempty"`
	ToolCallID string `json:"toolCallId,omitempty"`

	// tool_call
	Arguments map[string]any `json:"arguments,omitempty"`

	// tool_result
	Result any `json:"result,omitempty"`

	// error
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// control
	Signal string `json:"signal,omitempty"`

	// compaction
	Summary            string   `json:"summary,omitempty"`
	CompactedEventIDs  []string `json:"compactedEventIds,omitempty"`
	CompactionStrategy string   `json:"compactionStrategy,omitempty"`

	// transfer
	FromAgent string `json:"fromAgent,omitempty"`
	ToAgent   string `json:"toAgent,omitempty"`
	Reason    string `json:"reason,omitempty"`

	// system_instruction
	Instruction string `json:"instruction,omitempty"`
	IsStatic    bool   `json:"isStatic,omitempty"`
}

func newEvent(action Action) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now(),
	}
}

// Option customizes an event at construction time.
type Option func(*Event)

// WithID overrides the generated event ID.
func WithID(id string) Option {
	return func(e *Event) { e.ID = id }
}

// WithTimestamp overrides the construction timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Event) { e.Timestamp = t }
}

// WithMetadata attaches free-form metadata.
func WithMetadata(md map[string]any) Option {
	return func(e *Event) { e.Metadata = md }
}

func apply(e *Event, opts []Option) *Event {
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewUserMessage creates a user message event.
func NewUserMessage(content string, opts ...Option) *Event {
	e := newEvent(ActionUserMessage)
	e.Content = content
	return apply(e, opts)
}

// NewAgentMessage creates an agent message event. Model and gateway
// identify where the text came from; tokensUsed may be zero when the
// provider did not report usage.
func NewAgentMessage(content, model, gateway string, tokensUsed int, opts ...Option) *Event {
	e := newEvent(ActionAgentMessage)
	e.Content = content
	e.Model = model
	e.Gateway = gateway
	e.TokensUsed = tokensUsed
	return apply(e, opts)
}

// NewToolCall creates a tool call event.
func NewToolCall(toolName string, arguments map[string]any, toolCallID string, opts ...Option) *Event {
	e := newEvent(ActionToolCall)
	e.ToolName = toolName
	e.Arguments = arguments
	e.ToolCallID = toolCallID
	return apply(e, opts)
}

// NewToolResult creates a tool result event. Result may be any
// JSON-serializable value; consumers stringify non-string results.
func NewToolResult(toolName string, result any, toolCallID string, opts ...Option) *Event {
	e := newEvent(ActionToolResult)
	e.ToolName = toolName
	e.Result = result
	e.ToolCallID = toolCallID
	return apply(e, opts)
}

// NewError creates an error event.
func NewError(code, message string, opts ...Option) *Event {
	e := newEvent(ActionError)
	e.ErrorCode = code
	e.ErrorMessage = message
	return apply(e, opts)
}

// NewControl creates a control signal event (e.g. "pause", "cancel").
func NewControl(signal string, opts ...Option) *Event {
	e := newEvent(ActionControl)
	e.Signal = signal
	return apply(e, opts)
}

// NewCompaction creates a compaction event summarizing a range of prior
// events. compactedEventIDs must reference real prior event ids and
// strategy must be one of the recognized compaction strategy names.
func NewCompaction(summary string, compactedEventIDs []string, strategy string, opts ...Option) *Event {
	e := newEvent(ActionCompaction)
	e.Summary = summary
	e.CompactedEventIDs = append([]string(nil), compactedEventIDs...)
	e.CompactionStrategy = strategy
	return apply(e, opts)
}

// NewTransfer creates an agent transfer event.
func NewTransfer(fromAgent, toAgent, reason string, opts ...Option) *Event {
	e := newEvent(ActionTransfer)
	e.FromAgent = fromAgent
	e.ToAgent = toAgent
	e.Reason = reason
	return apply(e, opts)
}

// NewSystemInstruction creates a system instruction event. Static
// instructions are injected into every compiled context; dynamic ones
// are left to application-specific stages.
func NewSystemInstruction(instruction string, isStatic bool, opts ...Option) *Event {
	e := newEvent(ActionSystemInstruction)
	e.Instruction = instruction
	e.IsStatic = isStatic
	return apply(e, opts)
}
