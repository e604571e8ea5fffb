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
	"log/slog"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
)

// HybridSummarizer tries the semantic strategy and falls back to the
// simple one when the model call fails, so compaction still makes
// progress during provider outages.
type HybridSummarizer struct {
	semantic *SemanticSummarizer
	simple   *SimpleSummarizer
}

// NewHybridSummarizer creates a hybrid summarizer around a semantic
// one.
func NewHybridSummarizer(semantic *SemanticSummarizer) *HybridSummarizer {
	return &HybridSummarizer{
		semantic: semantic,
		simple:   NewSimpleSummarizer(),
	}
}

// Summarize implements Summarizer with the "hybrid" strategy.
func (h *HybridSummarizer) Summarize(ctx context.Context, sess *session.Session) (*event.Event, error) {
	e, err := h.semantic.Summarize(ctx, sess)
	if err != nil {
		slog.Warn("semantic summarization failed, falling back to simple",
			"session", sess.ID(),
			"error", err)
		if e, err = h.simple.Summarize(ctx, sess); err != nil {
			return nil, err
		}
	}
	if e == nil {
		return nil, nil
	}
	// Events are write-once: rebuild rather than retag.
	return event.NewCompaction(e.Summary, e.CompactedEventIDs, session.StrategyHybrid), nil
}

var _ Summarizer = (*HybridSummarizer)(nil)
