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
	"fmt"

	"github.com/kadirpekel/mnemo/session"
)

// ForStrategy builds the summarizer matching a compaction strategy
// name. The semantic config is only consulted for the semantic and
// hybrid strategies.
func ForStrategy(strategy string, cfg SemanticSummarizerConfig) (Summarizer, error) {
	switch strategy {
	case "", session.StrategySimple:
		return NewSimpleSummarizer(), nil
	case session.StrategySemantic:
		return NewSemanticSummarizer(cfg)
	case session.StrategyHybrid:
		semantic, err := NewSemanticSummarizer(cfg)
		if err != nil {
			return nil, err
		}
		return NewHybridSummarizer(semantic), nil
	default:
		return nil, fmt.Errorf("unknown compaction strategy: %q", strategy)
	}
}
