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

// Package pipeline orchestrates the two directions of the memory core:
// compiling a session into a working context before a model invocation
// (request side) and folding the model's response back into the session
// (response side).
//
// Processors run strictly sequentially in registration order, each
// stage receiving the context or session produced by the previous one.
// A processor error aborts the remainder of its pipeline and propagates
// to the caller. The request side is read-only over the session, so an
// aborted request pipeline has no persisted side effects; the response
// side is not transactional, and earlier processors' mutations stand
// when a later one fails.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/mnemo/contextwindow"
	"github.com/kadirpekel/mnemo/session"
)

// RequestProcessor rewrites or inspects the working context being
// compiled from a session. It returns the context to thread into the
// next stage (usually the same one, mutated).
type RequestProcessor func(ctx context.Context, s *session.Session, wc *contextwindow.WorkingContext) (*contextwindow.WorkingContext, error)

// ResponseProcessor folds a model response into the session. It returns
// the session to thread into the next stage. Mutations take effect
// immediately on return; there is no rollback on later failure.
type ResponseProcessor func(ctx context.Context, s *session.Session, resp *Response, wc *contextwindow.WorkingContext) (*session.Session, error)

// ResponseMetadata carries the optional timing and usage fields a
// transport may attach to a response.
type ResponseMetadata struct {
	// ResponseTimeMs is the wall-clock latency of the model call.
	// Zero means the transport did not report it.
	ResponseTimeMs float64 `json:"responseTimeMs,omitempty"`

	// TokensUsed is the provider-reported token usage.
	TokensUsed int `json:"tokensUsed,omitempty"`
}

// Response is the opaque model response re-entering the pipeline.
type Response struct {
	Text     string
	Metadata *ResponseMetadata

	// Raw holds the transport's original response object, untouched.
	Raw any
}

type requestEntry struct {
	name    string
	enabled bool
	process RequestProcessor
}

type responseEntry struct {
	name    string
	enabled bool
	process ResponseProcessor
}

// Pipeline holds two ordered lists of named, enable-flagged processors.
type Pipeline struct {
	request  []requestEntry
	response []responseEntry
}

// NewPipeline creates an empty pipeline. Most callers want New with
// Options instead.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// RegisterRequestProcessor appends a named request processor.
func (p *Pipeline) RegisterRequestProcessor(name string, proc RequestProcessor) *Pipeline {
	p.request = append(p.request, requestEntry{name: name, enabled: true, process: proc})
	return p
}

// RegisterResponseProcessor appends a named response processor.
func (p *Pipeline) RegisterResponseProcessor(name string, proc ResponseProcessor) *Pipeline {
	p.response = append(p.response, responseEntry{name: name, enabled: true, process: proc})
	return p
}

// InsertRequestProcessor inserts a named request processor at index,
// clamping the index to the list bounds.
func (p *Pipeline) InsertRequestProcessor(index int, name string, proc RequestProcessor) *Pipeline {
	if index < 0 {
		index = 0
	}
	if index > len(p.request) {
		index = len(p.request)
	}
	entry := requestEntry{name: name, enabled: true, process: proc}
	p.request = append(p.request[:index], append([]requestEntry{entry}, p.request[index:]...)...)
	return p
}

// RemoveRequestProcessor removes the named request processor. It is a
// no-op when the name is absent.
func (p *Pipeline) RemoveRequestProcessor(name string) *Pipeline {
	for i, e := range p.request {
		if e.name == name {
			p.request = append(p.request[:i], p.request[i+1:]...)
			return p
		}
	}
	return p
}

// RemoveResponseProcessor removes the named response processor. It is a
// no-op when the name is absent.
func (p *Pipeline) RemoveResponseProcessor(name string) *Pipeline {
	for i, e := range p.response {
		if e.name == name {
			p.response = append(p.response[:i], p.response[i+1:]...)
			return p
		}
	}
	return p
}

// SetRequestProcessorEnabled flips the enabled flag of a named request
// processor. It is a no-op when the name is absent.
func (p *Pipeline) SetRequestProcessorEnabled(name string, enabled bool) *Pipeline {
	for i := range p.request {
		if p.request[i].name == name {
			p.request[i].enabled = enabled
			return p
		}
	}
	return p
}

// SetResponseProcessorEnabled flips the enabled flag of a named
// response processor. It is a no-op when the name is absent.
func (p *Pipeline) SetResponseProcessorEnabled(name string, enabled bool) *Pipeline {
	for i := range p.response {
		if p.response[i].name == name {
			p.response[i].enabled = enabled
			return p
		}
	}
	return p
}

// RequestProcessorNames returns the registered request processor names
// in execution order.
func (p *Pipeline) RequestProcessorNames() []string {
	names := make([]string, len(p.request))
	for i, e := range p.request {
		names[i] = e.name
	}
	return names
}

// ResponseProcessorNames returns the registered response processor
// names in execution order.
func (p *Pipeline) ResponseProcessorNames() []string {
	names := make([]string, len(p.response))
	for i, e := range p.response {
		names[i] = e.name
	}
	return names
}

// ExecuteRequestPipeline compiles a fresh working context from the
// session by running every enabled request processor in order. The
// context returned by each stage is threaded into the next; stages
// never run concurrently. Cancellation is checked between stages.
func (p *Pipeline) ExecuteRequestPipeline(ctx context.Context, s *session.Session) (*contextwindow.WorkingContext, error) {
	requestExecutions.Inc()
	wc := contextwindow.New(s.ID())

	for _, entry := range p.request {
		if !entry.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := entry.process(ctx, s, wc)
		if err != nil {
			requestFailures.WithLabelValues(entry.name).Inc()
			return nil, fmt.Errorf("request processor %q: %w", entry.name, err)
		}
		wc = next

		slog.Debug("request processor applied",
			"processor", entry.name,
			"session", s.ID(),
			"contents", len(wc.Contents))
	}

	return wc, nil
}

// ExecuteResponsePipeline folds a model response into the session by
// running every enabled response processor in order. Each stage's
// mutations take effect immediately; a failure leaves the session with
// the updates of the stages that already completed.
func (p *Pipeline) ExecuteResponsePipeline(ctx context.Context, s *session.Session, resp *Response, wc *contextwindow.WorkingContext) (*session.Session, error) {
	responseExecutions.Inc()

	for _, entry := range p.response {
		if !entry.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}

		next, err := entry.process(ctx, s, resp, wc)
		if err != nil {
			responseFailures.WithLabelValues(entry.name).Inc()
			return s, fmt.Errorf("response processor %q: %w", entry.name, err)
		}
		s = next

		slog.Debug("response processor applied",
			"processor", entry.name,
			"session", s.ID())
	}

	return s, nil
}
