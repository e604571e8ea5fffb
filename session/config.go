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

// Recognized compaction strategy names.
const (
	StrategySimple   = "simple"
	StrategySemantic = "semantic"
	StrategyHybrid   = "hybrid"
)

// Default compaction settings.
const (
	DefaultTriggerThreshold = 50
	DefaultWindowSize       = 20
	DefaultOverlapSize      = 5
)

// CompactionConfig controls when a session wants its history compacted
// and how an external summarizer should shape the window.
//
// The session itself never generates summaries; it only reports
// NeedsCompaction and accepts the resulting compaction event through
// AddEvent.
type CompactionConfig struct {
	// Enabled turns the compaction trigger on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TriggerThreshold is the non-compaction event count at which
	// NeedsCompaction starts returning true. Default: 50.
	TriggerThreshold int `json:"triggerThreshold" yaml:"trigger_threshold"`

	// WindowSize is how many events a summarizer should fold into one
	// compaction event. Default: 20.
	WindowSize int `json:"windowSize" yaml:"window_size"`

	// OverlapSize is how many of the most recent windowed events the
	// summarizer should leave uncompacted for continuity. Default: 5.
	OverlapSize int `json:"overlapSize" yaml:"overlap_size"`

	// Strategy selects the summarization approach: "simple",
	// "semantic", or "hybrid".
	Strategy string `json:"strategy" yaml:"strategy"`
}

// DefaultCompactionConfig returns the compaction defaults.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		Enabled:          true,
		TriggerThreshold: DefaultTriggerThreshold,
		WindowSize:       DefaultWindowSize,
		OverlapSize:      DefaultOverlapSize,
		Strategy:         StrategySimple,
	}
}

// CompactionConfigPatch is a partial CompactionConfig. Nil fields are
// left untouched by UpdateCompactionConfig.
type CompactionConfigPatch struct {
	Enabled          *bool
	TriggerThreshold *int
	WindowSize       *int
	OverlapSize      *int
	Strategy         *string
}
