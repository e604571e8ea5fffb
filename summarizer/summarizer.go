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

// Package summarizer generates compaction events for sessions whose
// history has grown past their trigger threshold.
//
// The memory core never produces summaries itself; a Summarizer is the
// external collaborator behind that boundary. Every implementation
// returns a well-formed compaction event whose compactedEventIds
// reference real prior events, ready to append via Session.AddEvent.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
)

// Summarizer folds a window of session events into one compaction
// event. Implementations must not mutate the session; the caller
// appends the returned event.
type Summarizer interface {
	// Summarize selects a compaction window from the session per its
	// compaction config and returns the compaction event, or nil when
	// there is nothing to compact.
	Summarize(ctx context.Context, s *session.Session) (*event.Event, error)
}

// selectWindow picks the events to compact: the oldest WindowSize
// events that are neither compaction markers nor already referenced by
// an earlier compaction, minus the OverlapSize most recent of those,
// which stay uncompacted for continuity.
func selectWindow(s *session.Session) []*event.Event {
	cfg := s.CompactionConfig()
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = session.DefaultWindowSize
	}
	overlap := cfg.OverlapSize
	if overlap < 0 {
		overlap = 0
	}

	compacted := make(map[string]struct{})
	for _, e := range s.EventsByAction(event.ActionCompaction) {
		for _, id := range e.CompactedEventIDs {
			compacted[id] = struct{}{}
		}
	}

	var window []*event.Event
	for _, e := range s.Events() {
		if e.Action == event.ActionCompaction {
			continue
		}
		if _, done := compacted[e.ID]; done {
			continue
		}
		window = append(window, e)
		if len(window) == windowSize {
			break
		}
	}

	if len(window) <= overlap {
		return nil
	}
	return window[:len(window)-overlap]
}

// renderTranscript renders events as a role-tagged transcript for
// prompting and extractive summarization.
func renderTranscript(events []*event.Event) string {
	var b strings.Builder
	for _, e := range events {
		switch e.Action {
		case event.ActionUserMessage:
			fmt.Fprintf(&b, "[user]: %s\n\n", e.Content)
		case event.ActionAgentMessage:
			fmt.Fprintf(&b, "[assistant]: %s\n\n", e.Content)
		case event.ActionToolCall:
			fmt.Fprintf(&b, "[tool call]: %s\n\n", e.ToolName)
		case event.ActionToolResult:
			fmt.Fprintf(&b, "[tool result]: %s\n\n", e.ToolName)
		case event.ActionError:
			fmt.Fprintf(&b, "[error]: %s\n\n", e.ErrorMessage)
		case event.ActionTransfer:
			fmt.Fprintf(&b, "[transfer]: %s -> %s\n\n", e.FromAgent, e.ToAgent)
		default:
			// Control and instruction events carry no conversational
			// content worth summarizing.
		}
	}
	return b.String()
}

func eventIDs(events []*event.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
