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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildContext() *WorkingContext {
	return New("sess-1").
		AddSystemInstruction("be helpful").
		SetAgentIdentity(AgentIdentity{Name: "mnemo", Role: "assistant", Capabilities: []string{"search", "math"}}).
		AddContent(Content{Role: "user", Text: "what's the weather?"}).
		AddContent(Content{Role: "assistant", Text: "let me check"}).
		AddContent(Content{Role: "tool", Text: "sunny, 22C", Name: "search", ToolCallID: "call-1"})
}

func TestToModelFormat_Chat(t *testing.T) {
	req, err := buildContext().ToModelFormat("gpt-4o", FormatOptions{Format: FormatChat})
	require.NoError(t, err)

	assert.Equal(t, FormatChat, req.Format)
	require.Len(t, req.Messages, 4)

	system := req.Messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "be helpful")
	assert.Contains(t, system.Content, "Name: mnemo")
	assert.Contains(t, system.Content, "Capabilities: search, math")

	tool := req.Messages[3]
	assert.Equal(t, "tool", tool.Role)
	assert.Equal(t, "call-1", tool.ToolCallID)
	assert.Equal(t, "sunny, 22C", tool.Content)
}

func TestToModelFormat_ChatRemapsToolRole(t *testing.T) {
	req, err := buildContext().ToModelFormat("claude-3-5-sonnet", FormatOptions{Format: FormatChat})
	require.NoError(t, err)

	tool := req.Messages[3]
	assert.Equal(t, "assistant", tool.Role)
	assert.Empty(t, tool.ToolCallID)
	assert.Equal(t, "sunny, 22C", tool.Content)
}

func TestToModelFormat_Structured(t *testing.T) {
	req, err := buildContext().ToModelFormat("gpt-4o", FormatOptions{Format: FormatStructured})
	require.NoError(t, err)

	assert.Equal(t, FormatStructured, req.Format)
	assert.Contains(t, req.Instructions, "be helpful")
	assert.Contains(t, req.Instructions, "Name: mnemo")
	assert.Empty(t, req.Messages)

	require.Len(t, req.Input, 3)
	assert.Equal(t, "user", req.Input[0].Role)

	toolOut := req.Input[2]
	assert.Equal(t, "function_call_output", toolOut.Type)
	assert.Equal(t, "call-1", toolOut.CallID)
	assert.Equal(t, "sunny, 22C", toolOut.Output)
	assert.Empty(t, toolOut.Role)

	require.NotNil(t, req.Reasoning)
	assert.Equal(t, "medium", req.Reasoning.Effort)
	assert.Equal(t, "auto", req.Reasoning.Summary)
}

func TestToModelFormat_UnknownModelFails(t *testing.T) {
	_, err := buildContext().ToModelFormat("quantum-brain-9000", FormatOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestToModelFormat_CustomCapabilityTable(t *testing.T) {
	caps := map[string]ModelCapabilities{
		"in-house-llm": {SupportsToolRole: false},
	}
	req, err := buildContext().ToModelFormat("in-house-llm", FormatOptions{Capabilities: caps})
	require.NoError(t, err)
	assert.Equal(t, "assistant", req.Messages[3].Role)

	_, err = buildContext().ToModelFormat("gpt-4o", FormatOptions{Capabilities: caps})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestToModelFormat_UnknownFormatFallsBackToChat(t *testing.T) {
	req, err := buildContext().ToModelFormat("gpt-4o", FormatOptions{Format: "carrier-pigeon"})
	require.NoError(t, err)
	assert.Equal(t, FormatChat, req.Format)
	assert.NotEmpty(t, req.Messages)
}

func TestSystemText_SkipsEmptySections(t *testing.T) {
	wc := New("sess-1").AddContent(Content{Role: "user", Text: "hi"})
	assert.Empty(t, wc.systemText())

	req, err := wc.ToModelFormat("gpt-4o", FormatOptions{})
	require.NoError(t, err)
	// No synthetic system message when there is nothing to say.
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
}

func TestSystemText_IncludesMemoryAndArtifacts(t *testing.T) {
	wc := New("sess-1").
		AddSystemInstruction("be brief").
		AddMemoryResults([]string{"user prefers metric units"}).
		AddArtifactReference(ArtifactRef{Name: "report", Type: "pdf", Summary: "q2 numbers"})

	system := wc.systemText()
	assert.Contains(t, system, "be brief")
	assert.Contains(t, system, "user prefers metric units")
	assert.Contains(t, system, "- report (pdf): q2 numbers")
}
