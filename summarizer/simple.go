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

package summarizer

import (
	"context"
	"strings"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
)

// maxLineChars bounds each extracted line in a simple summary.
const maxLineChars = 120

// SimpleSummarizer builds a deterministic extractive summary: the first
// line of each user and agent message in the window, truncated. It
// needs no model call and is the fallback of the hybrid strategy.
type SimpleSummarizer struct{}

// NewSimpleSummarizer creates a simple summarizer.
func NewSimpleSummarizer() *SimpleSummarizer {
	return &SimpleSummarizer{}
}

// Summarize implements Summarizer with the "simple" strategy.
func (s *SimpleSummarizer) Summarize(ctx context.Context, sess *session.Session) (*event.Event, error) {
	window := selectWindow(sess)
	if len(window) == 0 {
		return nil, nil
	}

	var lines []string
	for _, e := range window {
		var prefix, text string
		switch e.Action {
		case event.ActionUserMessage:
			prefix, text = "User", e.Content
		case event.ActionAgentMessage:
			prefix, text = "Agent", e.Content
		case event.ActionToolCall:
			prefix, text = "Tool", e.ToolName
		default:
			continue
		}
		if line := firstLine(text); line != "" {
			lines = append(lines, prefix+": "+line)
		}
	}

	summary := "Conversation covered: " + strings.Join(lines, "; ")
	return event.NewCompaction(summary, eventIDs(window), session.StrategySimple), nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxLineChars {
		text = text[:maxLineChars] + "…"
	}
	return text
}

var _ Summarizer = (*SimpleSummarizer)(nil)
