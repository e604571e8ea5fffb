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

// Package tokens provides model-accurate token counting for callers
// that need it, such as the compaction summarizer when budgeting its
// prompt.
//
// The working-context budget arithmetic deliberately does NOT use this
// package: context fitting is defined over the character/4 estimate so
// that budget decisions stay deterministic and tokenizer-independent.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens for a specific model's encoding.
type Counter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	// Encodings are expensive to build; cache them per model.
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.Mutex
)

// NewCounter creates a counter for the given model, falling back to the
// cl100k_base encoding when the model is unknown to tiktoken.
func NewCounter(model string) (*Counter, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	encoding, ok := encodingCache[model]
	if !ok {
		var err error
		encoding, err = tiktoken.EncodingForModel(model)
		if err != nil {
			encoding, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return nil, fmt.Errorf("get encoding for %q: %w", model, err)
			}
		}
		encodingCache[model] = encoding
	}

	return &Counter{encoding: encoding, model: model}, nil
}

// Model returns the model name this counter was built for.
func (c *Counter) Model() string { return c.model }

// Count returns the token count for text.
func (c *Counter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Message is a role/content pair for per-message counting.
type Message struct {
	Role    string
	Content string
}

// CountMessages counts tokens across a message list including the
// per-message framing overhead and the reply priming.
func (c *Counter) CountMessages(messages []Message) int {
	const tokensPerMessage = 3

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += len(c.encoding.Encode(msg.Role, nil, nil))
		total += len(c.encoding.Encode(msg.Content, nil, nil))
	}
	// Reply is primed with <|start|>assistant<|message|>.
	total += 3
	return total
}

// FitWithinLimit returns the suffix of messages that fits within
// maxTokens, selecting from the most recent backwards.
func (c *Counter) FitWithinLimit(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}

	fitted := []Message{}
	current := 3 // reply priming
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		cost := 3 + len(c.encoding.Encode(msg.Role, nil, nil)) + len(c.encoding.Encode(msg.Content, nil, nil))
		if current+cost > maxTokens {
			break
		}
		fitted = append([]Message{msg}, fitted...)
		current += cost
	}
	return fitted
}
