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
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"
	"github.com/kadirpekel/mnemo/tokens"
)

const defaultSummarizationPrompt = `You are a conversation summarizer. Create a concise summary of the conversation below that preserves key facts, decisions, names, dates and numbers, written in a neutral factual tone. Do not add information not present in the conversation.

Conversation:
%s

Summary:`

// DefaultPromptBudget bounds the transcript portion of the
// summarization prompt, in model tokens.
const DefaultPromptBudget = 6000

// ChatCompleter is the slice of the OpenAI-compatible client the
// semantic summarizer needs. *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SemanticSummarizerConfig configures the semantic summarizer.
type SemanticSummarizerConfig struct {
	// Client is the chat-completion client. Required.
	Client ChatCompleter

	// Model is the summarization model. Default: gpt-4o-mini.
	Model string

	// Prompt overrides the summarization prompt template. Must contain
	// one %s placeholder for the transcript.
	Prompt string

	// PromptBudget bounds the transcript tokens. Default:
	// DefaultPromptBudget.
	PromptBudget int
}

// SemanticSummarizer asks a chat-completion model to fold the window
// into a summary. The transcript is budgeted with a model-accurate
// token counter so the prompt fits small summarization models.
type SemanticSummarizer struct {
	client  ChatCompleter
	model   string
	prompt  string
	budget  int
	counter *tokens.Counter
}

// NewSemanticSummarizer creates a semantic summarizer.
func NewSemanticSummarizer(cfg SemanticSummarizerConfig) (*SemanticSummarizer, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("chat completion client is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultSummarizationPrompt
	}
	budget := cfg.PromptBudget
	if budget <= 0 {
		budget = DefaultPromptBudget
	}

	counter, err := tokens.NewCounter(model)
	if err != nil {
		return nil, fmt.Errorf("token counter for %q: %w", model, err)
	}

	return &SemanticSummarizer{
		client:  cfg.Client,
		model:   model,
		prompt:  prompt,
		budget:  budget,
		counter: counter,
	}, nil
}

// Summarize implements Summarizer with the "semantic" strategy.
func (s *SemanticSummarizer) Summarize(ctx context.Context, sess *session.Session) (*event.Event, error) {
	window := selectWindow(sess)
	if len(window) == 0 {
		return nil, nil
	}

	transcript := renderTranscript(window)
	if transcript == "" {
		return nil, nil
	}
	transcript = s.trimToBudget(transcript)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(s.prompt, transcript),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarization call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("summarization call returned no choices")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return nil, fmt.Errorf("summarization call returned an empty summary")
	}

	slog.Debug("semantic summary generated",
		"session", sess.ID(),
		"window", len(window),
		"model", s.model)

	return event.NewCompaction(summary, eventIDs(window), session.StrategySemantic), nil
}

// trimToBudget cuts the transcript to the budget, dropping the oldest
// lines first so the freshest context survives.
func (s *SemanticSummarizer) trimToBudget(transcript string) string {
	if s.counter.Count(transcript) <= s.budget {
		return transcript
	}

	lines := strings.Split(transcript, "\n")
	for len(lines) > 1 {
		lines = lines[1:]
		trimmed := strings.Join(lines, "\n")
		if s.counter.Count(trimmed) <= s.budget {
			return trimmed
		}
	}
	return lines[0]
}

var _ Summarizer = (*SemanticSummarizer)(nil)
