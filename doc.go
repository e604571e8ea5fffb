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

// Package mnemo is a conversational memory core for AI agents.
//
// It models a conversation as an append-only log of typed events owned
// by a Session, compiles that log into an ephemeral WorkingContext
// through a configurable request pipeline, and folds model responses
// back into the session through a response pipeline. Long histories are
// kept within budget by token-estimate truncation and by compaction:
// summarizers fold old event windows into compaction events that
// replace their sources in the compiled view.
//
// The packages:
//
//   - event: the typed event union and constructors
//   - session: the append-only log, statistics and compaction policy
//   - contextwindow: the working-context builder and model formats
//   - pipeline: request/response processor chains
//   - summarizer: simple, semantic and hybrid compaction strategies
//   - store: in-memory and SQL session persistence
//   - tokens: model-accurate token counting
//   - config: YAML configuration and .env loading
package mnemo
