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

import "github.com/kadirpekel/mnemo/contextwindow"

// Options configures the default pipeline assembly.
type Options struct {
	// Instructions are appended by the instructions stage ahead of the
	// session's static system-instruction events.
	Instructions []string

	// Identity, when set, adds the identity stage.
	Identity *contextwindow.AgentIdentity

	// UseSlidingWindow selects the sliding-window history strategy
	// instead of the default compaction filter.
	UseSlidingWindow bool

	// SlidingWindowTurns is the turn count for the sliding window.
	// Non-positive values use DefaultSlidingWindowTurns.
	SlidingWindowTurns int

	// DisableCompactionFilter drops the compaction filter without
	// selecting the sliding window, leaving the bare contents
	// projection.
	DisableCompactionFilter bool

	// KeepCompactionSummaries controls whether compaction summaries
	// survive the compaction filter. Nil means true.
	KeepCompactionSummaries *bool

	// Contents overrides the projection config of the bare contents
	// stage. Nil means DefaultContentsConfig.
	Contents *ContentsConfig

	// EnableContextCache adds the context-cache stage.
	EnableContextCache bool

	// Window, when set, adds the token-limit stage with this budget.
	Window *contextwindow.WindowConfig
}

// New assembles the default pipeline:
//
//	basic -> instructions -> [identity] ->
//	exactly one of {compactionFilter | slidingWindow | contents} ->
//	[contextCache] -> [tokenLimit]
//
// with the statistics processor always registered on the response side.
// The compaction filter is the default history strategy.
func New(opts Options) *Pipeline {
	p := NewPipeline()

	p.RegisterRequestProcessor(NameBasic, Basic)
	p.RegisterRequestProcessor(NameInstructions, Instructions(opts.Instructions...))

	if opts.Identity != nil {
		p.RegisterRequestProcessor(NameIdentity, Identity(*opts.Identity))
	}

	switch {
	case opts.UseSlidingWindow:
		p.RegisterRequestProcessor(NameSlidingWindow, SlidingWindow(opts.SlidingWindowTurns))
	case opts.DisableCompactionFilter:
		cfg := DefaultContentsConfig()
		if opts.Contents != nil {
			cfg = *opts.Contents
		}
		p.RegisterRequestProcessor(NameContents, Contents(cfg))
	default:
		keep := true
		if opts.KeepCompactionSummaries != nil {
			keep = *opts.KeepCompactionSummaries
		}
		p.RegisterRequestProcessor(NameCompactionFilter, CompactionFilter(keep))
	}

	if opts.EnableContextCache {
		p.RegisterRequestProcessor(NameContextCache, ContextCache(true))
	}
	if opts.Window != nil {
		p.RegisterRequestProcessor(NameTokenLimit, TokenLimit(*opts.Window))
	}

	p.RegisterResponseProcessor(NameStatistics, Statistics)
	return p
}
