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

package contextwindow

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects the provider-agnostic request shape.
type Format string

const (
	// FormatChat emits a messages[] shape with one leading system
	// message. Unknown formats fall back to this shape.
	FormatChat Format = "chat"

	// FormatStructured emits an instructions/input[]/reasoning shape
	// where tool output becomes function_call_output entries.
	FormatStructured Format = "structured"
)

// ErrUnsupportedModel is returned when the target model type has no
// entry in the capability table. Context construction aborts before any
// partial result is produced.
var ErrUnsupportedModel = errors.New("unsupported model type")

// ModelCapabilities describes formatting-relevant traits of a model
// family. The table is explicit configuration, not runtime probing;
// extend it by passing your own map in FormatOptions.
type ModelCapabilities struct {
	// SupportsToolRole is false for models that expect tool output on
	// the assistant role instead of a dedicated tool role.
	SupportsToolRole bool
}

// DefaultModelCapabilities maps known model identifiers to their
// formatting capabilities.
var DefaultModelCapabilities = map[string]ModelCapabilities{
	"gpt-4o":            {SupportsToolRole: true},
	"gpt-4o-mini":       {SupportsToolRole: true},
	"gpt-4.1":           {SupportsToolRole: true},
	"o3-mini":           {SupportsToolRole: true},
	"claude-3-5-sonnet": {SupportsToolRole: false},
	"claude-sonnet-4":   {SupportsToolRole: false},
	"gemini-2.0-flash":  {SupportsToolRole: false},
	"llama-3.1":         {SupportsToolRole: false},
}

// FormatOptions controls ToModelFormat.
type FormatOptions struct {
	// Format selects the output shape. Values other than
	// FormatStructured produce the chat shape.
	Format Format

	// Capabilities overrides the capability table. Nil uses
	// DefaultModelCapabilities.
	Capabilities map[string]ModelCapabilities
}

// ChatMessage is one entry in the chat-style messages list.
type ChatMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// InputItem is one entry in the structured-input list. Tool output uses
// Type "function_call_output" with CallID/Output; everything else is a
// role/content entry.
type InputItem struct {
	Type    string `json:"type,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Output  string `json:"output,omitempty"`
}

// Reasoning is the fixed reasoning annotation accompanying structured
// output.
type Reasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary"`
}

// ModelRequest is the provider-agnostic request handed to an external
// transport. Exactly one shape is populated, selected by Format.
type ModelRequest struct {
	Format Format `json:"-"`

	// Chat shape.
	Messages []ChatMessage `json:"messages,omitempty"`

	// Structured shape.
	Instructions string      `json:"instructions,omitempty"`
	Input        []InputItem `json:"input,omitempty"`
	Reasoning    *Reasoning  `json:"reasoning,omitempty"`
}

// systemText synthesizes the leading system text from instructions,
// identity, memory results and artifact summaries. Sections are
// appended only when non-empty and separated by blank lines.
func (w *WorkingContext) systemText() string {
	var sections []string
	if len(w.SystemInstructions) > 0 {
		sections = append(sections, strings.Join(w.SystemInstructions, "\n"))
	}
	if id := renderIdentity(w.Identity); id != "" {
		sections = append(sections, id)
	}
	if len(w.MemoryResults) > 0 {
		sections = append(sections, strings.Join(w.MemoryResults, "\n"))
	}
	if artifacts := renderArtifacts(w.Artifacts); artifacts != "" {
		sections = append(sections, artifacts)
	}
	return strings.Join(sections, "\n\n")
}

// ToModelFormat converts the builder into one of the two request
// shapes. The target model must have an entry in the capability table;
// requesting an unknown model type fails before any partial result.
func (w *WorkingContext) ToModelFormat(modelType string, opts FormatOptions) (*ModelRequest, error) {
	caps := opts.Capabilities
	if caps == nil {
		caps = DefaultModelCapabilities
	}
	capability, ok := caps[modelType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}

	if opts.Format == FormatStructured {
		return w.toStructured(), nil
	}
	return w.toChat(capability), nil
}

func (w *WorkingContext) toChat(capability ModelCapabilities) *ModelRequest {
	messages := make([]ChatMessage, 0, len(w.Contents)+1)
	if system := w.systemText(); system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}

	for _, c := range w.Contents {
		msg := ChatMessage{Role: c.Role, Content: c.Text, Name: c.Name}
		if c.Role == "tool" {
			if capability.SupportsToolRole {
				msg.ToolCallID = c.ToolCallID
			} else {
				// Model has no tool role; carry the output on the
				// assistant role instead.
				msg.Role = "assistant"
			}
		} else {
			msg.ToolCallID = c.ToolCallID
		}
		messages = append(messages, msg)
	}

	return &ModelRequest{Format: FormatChat, Messages: messages}
}

func (w *WorkingContext) toStructured() *ModelRequest {
	input := make([]InputItem, 0, len(w.Contents))
	for _, c := range w.Contents {
		if c.Role == "tool" {
			input = append(input, InputItem{
				Type:   "function_call_output",
				CallID: c.ToolCallID,
				Output: c.Text,
			})
			continue
		}
		input = append(input, InputItem{
			Role:    c.Role,
			Content: c.Text,
			Name:    c.Name,
		})
	}

	return &ModelRequest{
		Format:       FormatStructured,
		Instructions: w.systemText(),
		Input:        input,
		Reasoning:    &Reasoning{Effort: "medium", Summary: "auto"},
	}
}
