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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kadirpekel/mnemo/contextwindow"
	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
)

// Built-in processor names. Use these with RemoveRequestProcessor and
// Set*ProcessorEnabled.
const (
	NameBasic            = "basic"
	NameInstructions     = "instructions"
	NameIdentity         = "identity"
	NameContents         = "contents"
	NameSlidingWindow    = "slidingWindow"
	NameCompactionFilter = "compactionFilter"
	NameContextCache     = "contextCache"
	NameTokenLimit       = "tokenLimit"
	NameStatistics       = "statistics"
)

// DefaultSlidingWindowTurns is the turn count used when SlidingWindow
// is configured with a non-positive value.
const DefaultSlidingWindowTurns = 3

// Basic copies the session id and total event count into the context
// metadata. Pure bookkeeping; it runs first in the default pipeline.
func Basic(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
	wc.Metadata.SessionID = s.ID()
	wc.Metadata.TotalEvents = len(s.Events())
	return wc, nil
}

// Instructions appends the configured instruction strings and then the
// instruction text of every static system-instruction event in the
// session. Dynamic system-instruction events are intentionally left to
// application-specific stages.
func Instructions(static ...string) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		for _, instruction := range static {
			wc.AddSystemInstruction(instruction)
		}
		for _, e := range s.EventsByAction(event.ActionSystemInstruction) {
			if e.IsStatic {
				wc.AddSystemInstruction(e.Instruction)
			}
		}
		return wc, nil
	}
}

// Identity sets the agent identity verbatim on the context.
func Identity(identity contextwindow.AgentIdentity) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		wc.SetAgentIdentity(identity)
		return wc, nil
	}
}

// ContentsConfig parameterizes the event-to-content projection.
type ContentsConfig struct {
	// WindowSize, when positive, restricts the projection to the most
	// recent N raw events before filtering.
	WindowSize int

	// IncludeToolCalls projects tool call and tool result events.
	IncludeToolCalls bool

	// FilterActions drops events with these actions entirely.
	FilterActions []event.Action
}

// DefaultContentsConfig returns the projection defaults: no window,
// tool calls included, nothing filtered.
func DefaultContentsConfig() ContentsConfig {
	return ContentsConfig{IncludeToolCalls: true}
}

// Contents is the core event-to-content projection. It replaces the
// context's contents with the projection of the session's events and
// records the realized content count in the context metadata.
func Contents(cfg ContentsConfig) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		events := s.Events()
		if cfg.WindowSize > 0 && len(events) > cfg.WindowSize {
			events = events[len(events)-cfg.WindowSize:]
		}
		setProjection(wc, projectContents(events, cfg))
		return wc, nil
	}
}

// SlidingWindow shapes history by conversation turns: it selects the
// last turns user messages, keeps every event at or after the oldest
// selected user message, always retains compaction events, and re-runs
// the contents projection over the filtered view.
//
// SlidingWindow and CompactionFilter are mutually exclusive history
// strategies; a pipeline should use exactly one.
func SlidingWindow(turns int) RequestProcessor {
	if turns <= 0 {
		turns = DefaultSlidingWindowTurns
	}
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		events := s.Events()
		userEvents := s.EventsByAction(event.ActionUserMessage)
		if len(userEvents) > turns {
			userEvents = userEvents[len(userEvents)-turns:]
		}

		filtered := events
		if len(userEvents) > 0 {
			windowStart := userEvents[0].Timestamp
			filtered = make([]*event.Event, 0, len(events))
			for _, e := range events {
				if e.Action == event.ActionCompaction || !e.Timestamp.Before(windowStart) {
					filtered = append(filtered, e)
				}
			}
		}

		setProjection(wc, projectContents(filtered, DefaultContentsConfig()))
		return wc, nil
	}
}

// CompactionFilter shapes history by dropping every event referenced by
// a compaction event's compactedEventIds, re-running the contents
// projection over what remains. Compaction events themselves survive
// the filter only when keepSummaries is true, so their summaries show
// up as system-role contents.
func CompactionFilter(keepSummaries bool) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		compacted := make(map[string]struct{})
		for _, e := range s.EventsByAction(event.ActionCompaction) {
			for _, id := range e.CompactedEventIDs {
				compacted[id] = struct{}{}
			}
		}

		events := s.Events()
		filtered := make([]*event.Event, 0, len(events))
		for _, e := range events {
			if e.Action == event.ActionCompaction {
				if keepSummaries {
					filtered = append(filtered, e)
				}
				continue
			}
			if _, dropped := compacted[e.ID]; dropped {
				continue
			}
			filtered = append(filtered, e)
		}

		wc.Metadata.CompactedEvents = len(compacted)
		setProjection(wc, projectContents(filtered, DefaultContentsConfig()))
		return wc, nil
	}
}

// ContextCache records the cacheable-prefix length (the current system
// instruction count) for a caching-aware transport to consume.
func ContextCache(enabled bool) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		if enabled {
			wc.Metadata.CacheablePrefix = len(wc.SystemInstructions)
		}
		return wc, nil
	}
}

// TokenLimit enforces the window budget by truncating the context to
// the most recent contents that fit.
func TokenLimit(cfg contextwindow.WindowConfig) RequestProcessor {
	return func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error) {
		before := len(wc.Contents)
		wc.TruncateToFit(cfg)
		if dropped := before - len(wc.Contents); dropped > 0 {
			truncatedContents.Add(float64(dropped))
		}
		return wc, nil
	}
}

// Statistics updates the session's running average response latency
// from the response metadata. A response without metadata, or without a
// reported latency, is a silent no-op.
func Statistics(ctx context.Context, s *session.Session, resp *Response, wc *contextwindow.WorkingContext) (*session.Session, error) {
	if resp == nil || resp.Metadata == nil || resp.Metadata.ResponseTimeMs <= 0 {
		return s, nil
	}
	s.RecordResponseLatency(resp.Metadata.ResponseTimeMs)
	return s, nil
}

// setProjection replaces the context's contents with a fresh projection
// and records the realized window size.
func setProjection(wc *contextwindow.WorkingContext, contents []contextwindow.Content) {
	wc.Contents = contents
	wc.Metadata.WindowSize = len(contents)
}

// projectContents maps events to role-tagged contents in order.
// Unhandled actions are silently skipped so that new event variants
// never break projection.
func projectContents(events []*event.Event, cfg ContentsConfig) []contextwindow.Content {
	filtered := make(map[event.Action]struct{}, len(cfg.FilterActions))
	for _, a := range cfg.FilterActions {
		filtered[a] = struct{}{}
	}

	var out []contextwindow.Content
	for _, e := range events {
		if _, drop := filtered[e.Action]; drop {
			continue
		}

		switch e.Action {
		case event.ActionUserMessage:
			out = append(out, contextwindow.Content{Role: "user", Text: e.Content})

		case event.ActionAgentMessage:
			c := contextwindow.Content{Role: "assistant", Text: e.Content}
			if e.Model != "" || e.Gateway != "" {
				c.Metadata = map[string]any{}
				if e.Model != "" {
					c.Metadata["model"] = e.Model
				}
				if e.Gateway != "" {
					c.Metadata["gateway"] = e.Gateway
				}
			}
			out = append(out, c)

		case event.ActionToolCall:
			if !cfg.IncludeToolCalls {
				continue
			}
			out = append(out, contextwindow.Content{
				Role: "assistant",
				Text: fmt.Sprintf("Tool call: %s with arguments: %s", e.ToolName, stringifyArguments(e.Arguments)),
			})

		case event.ActionToolResult:
			if !cfg.IncludeToolCalls {
				continue
			}
			out = append(out, contextwindow.Content{
				Role:       "tool",
				Text:       stringifyResult(e.Result),
				Name:       e.ToolName,
				ToolCallID: e.ToolCallID,
			})

		case event.ActionCompaction:
			out = append(out, contextwindow.Content{
				Role: "system",
				Text: "[Conversation Summary]: " + e.Summary,
			})

		default:
			// Unrecognized or non-content actions are skipped.
		}
	}
	return out
}

func stringifyArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}

func stringifyResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
