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

// Package contextwindow provides the Working Context: the ephemeral,
// mutable builder holding the compiled view of a session that is handed
// to a model.
//
// A WorkingContext is built fresh for every model invocation by the
// request pipeline and discarded afterward. It is never persisted and
// carries no identity beyond the invocation that created it.
package contextwindow

import (
	"strings"
	"time"
)

// Content is one role-tagged message fragment in the compiled context.
type Content struct {
	Role       string         `json:"role"`
	Text       string         `json:"text"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AgentIdentity describes who the agent is to the model.
type AgentIdentity struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ArtifactRef points at an artifact the agent produced or was given.
type ArtifactRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// Metadata carries bookkeeping about how the context was compiled.
type Metadata struct {
	SessionID string
	// TotalEvents is the session event count at compile time.
	TotalEvents int
	// CompactedEvents is the number of event ids dropped by compaction
	// filtering.
	CompactedEvents int
	// WindowSize is the realized content count after windowing or
	// truncation.
	WindowSize int
	// CacheablePrefix is the number of leading system instructions a
	// caching-aware transport may treat as a stable prefix.
	CacheablePrefix int
	// CreatedAt is when the context build started.
	CreatedAt time.Time
}

// WorkingContext is the mutable builder for one model invocation.
// All Add* mutators append and return the context for chaining; none
// validate content beyond type shape.
type WorkingContext struct {
	SystemInstructions []string
	Identity           *AgentIdentity
	Contents           []Content
	MemoryResults      []string
	Artifacts          []ArtifactRef
	Metadata           Metadata
}

// New creates an empty working context for the given session.
func New(sessionID string) *WorkingContext {
	return &WorkingContext{
		Metadata: Metadata{
			SessionID: sessionID,
			CreatedAt: time.Now(),
		},
	}
}

// AddSystemInstruction appends one system instruction.
func (w *WorkingContext) AddSystemInstruction(instruction string) *WorkingContext {
	w.SystemInstructions = append(w.SystemInstructions, instruction)
	return w
}

// SetAgentIdentity sets the agent identity.
func (w *WorkingContext) SetAgentIdentity(identity AgentIdentity) *WorkingContext {
	w.Identity = &identity
	return w
}

// AddContent appends one content item.
func (w *WorkingContext) AddContent(c Content) *WorkingContext {
	w.Contents = append(w.Contents, c)
	return w
}

// AddContents appends content items in order.
func (w *WorkingContext) AddContents(cs []Content) *WorkingContext {
	w.Contents = append(w.Contents, cs...)
	return w
}

// AddMemoryResults appends opaque memory-search results.
func (w *WorkingContext) AddMemoryResults(results []string) *WorkingContext {
	w.MemoryResults = append(w.MemoryResults, results...)
	return w
}

// AddArtifactReference appends one artifact reference.
func (w *WorkingContext) AddArtifactReference(ref ArtifactRef) *WorkingContext {
	w.Artifacts = append(w.Artifacts, ref)
	return w
}

// renderIdentity renders the identity as Name/Role/Capabilities lines.
func renderIdentity(id *AgentIdentity) string {
	if id == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Name: " + id.Name)
	b.WriteString("\nRole: " + id.Role)
	if len(id.Capabilities) > 0 {
		b.WriteString("\nCapabilities: " + strings.Join(id.Capabilities, ", "))
	}
	return b.String()
}

// renderArtifacts renders the artifact list one reference per line.
func renderArtifacts(refs []ArtifactRef) string {
	if len(refs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		lines = append(lines, "- "+ref.Name+" ("+ref.Type+"): "+ref.Summary)
	}
	return strings.Join(lines, "\n")
}

// EstimateTokens estimates the token footprint of the whole context
// using the ceiling of total characters over four. The estimate is a
// heuristic, not a provider tokenization, and is authoritative for
// every budget decision in this package.
func (w *WorkingContext) EstimateTokens() int {
	total := len(strings.Join(w.SystemInstructions, "\n"))
	total += len(renderIdentity(w.Identity))
	for _, c := range w.Contents {
		total += len(c.Text)
	}
	if len(w.MemoryResults) > 0 {
		total += len(strings.Join(w.MemoryResults, "\n"))
	}
	total += len(renderArtifacts(w.Artifacts))
	return ceilDiv4(total)
}

func ceilDiv4(chars int) int {
	return (chars + 3) / 4
}

// FitsWithinLimit reports whether the estimated footprint fits the
// history budget.
func (w *WorkingContext) FitsWithinLimit(cfg WindowConfig) bool {
	return w.EstimateTokens() <= cfg.AvailableForHistory
}

// TruncateToFit drops the oldest contents until the context fits the
// history budget. The retained set is always a contiguous suffix of the
// most recent contents: the walk from newest to oldest stops at the
// first item that would exceed the remaining budget, even if an older,
// smaller item would still have fit. No-op when already within budget;
// applying it twice with the same config yields the same contents.
func (w *WorkingContext) TruncateToFit(cfg WindowConfig) *WorkingContext {
	if w.FitsWithinLimit(cfg) {
		return w
	}

	systemChars := len(strings.Join(w.SystemInstructions, "\n")) + len(renderIdentity(w.Identity))
	systemTokens := ceilDiv4(systemChars)
	availableForContents := cfg.AvailableForHistory - systemTokens

	var retained []Content
	running := 0
	for i := len(w.Contents) - 1; i >= 0; i-- {
		cost := ceilDiv4(len(w.Contents[i].Text))
		if running+cost > availableForContents {
			break
		}
		retained = append([]Content{w.Contents[i]}, retained...)
		running += cost
	}

	w.Contents = retained
	w.Metadata.WindowSize = len(retained)
	return w
}
