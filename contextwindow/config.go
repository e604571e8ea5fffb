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

// WindowConfig is the token budget for one model invocation.
type WindowConfig struct {
	// MaxTokens is the model's total context window.
	MaxTokens int `json:"maxTokens" yaml:"max_tokens"`

	// ReservedForResponse is held back for the model's reply.
	ReservedForResponse int `json:"reservedForResponse" yaml:"reserved_for_response"`

	// ReservedForTools is held back for tool definitions.
	ReservedForTools int `json:"reservedForTools" yaml:"reserved_for_tools"`

	// AvailableForHistory is the budget for the compiled context.
	AvailableForHistory int `json:"availableForHistory" yaml:"available_for_history"`
}

// NewWindowConfig derives AvailableForHistory from the reservations.
func NewWindowConfig(maxTokens, reservedForResponse, reservedForTools int) WindowConfig {
	available := maxTokens - reservedForResponse - reservedForTools
	if available < 0 {
		available = 0
	}
	return WindowConfig{
		MaxTokens:           maxTokens,
		ReservedForResponse: reservedForResponse,
		ReservedForTools:    reservedForTools,
		AvailableForHistory: available,
	}
}
