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

// Package config loads file-based configuration for the memory core:
// compaction policy, window budgets, pipeline assembly and summarizer
// settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/mnemo/contextwindow"
	"github.com/kadirpekel/mnemo/session"
)

// SummarizerConfig configures the compaction summarizer collaborator.
type SummarizerConfig struct {
	// Model is the summarization model name.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// Default: OPENAI_API_KEY.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider endpoint (for OpenAI-compatible
	// gateways).
	BaseURL string `yaml:"base_url"`

	// PromptBudget bounds the prompt transcript tokens.
	PromptBudget int `yaml:"prompt_budget"`
}

// PipelineConfig mirrors the pipeline factory options that make sense
// in a file.
type PipelineConfig struct {
	Instructions            []string `yaml:"instructions"`
	UseSlidingWindow        bool     `yaml:"use_sliding_window"`
	SlidingWindowTurns      int      `yaml:"sliding_window_turns"`
	DisableCompactionFilter bool     `yaml:"disable_compaction_filter"`
	KeepCompactionSummaries *bool    `yaml:"keep_compaction_summaries"`
	EnableContextCache      bool     `yaml:"enable_context_cache"`
}

// Config is the full file configuration.
type Config struct {
	Compaction session.CompactionConfig   `yaml:"compaction"`
	Window     contextwindow.WindowConfig `yaml:"window"`
	Pipeline   PipelineConfig             `yaml:"pipeline"`
	Summarizer SummarizerConfig           `yaml:"summarizer"`
}

// SetDefaults fills zero-valued fields with usable defaults.
func (c *Config) SetDefaults() {
	if c.Compaction.TriggerThreshold <= 0 {
		c.Compaction.TriggerThreshold = session.DefaultTriggerThreshold
	}
	if c.Compaction.WindowSize <= 0 {
		c.Compaction.WindowSize = session.DefaultWindowSize
	}
	if c.Compaction.OverlapSize <= 0 {
		c.Compaction.OverlapSize = session.DefaultOverlapSize
	}
	if c.Compaction.Strategy == "" {
		c.Compaction.Strategy = session.StrategySimple
	}
	if c.Window.MaxTokens > 0 && c.Window.AvailableForHistory <= 0 {
		c.Window = contextwindow.NewWindowConfig(
			c.Window.MaxTokens, c.Window.ReservedForResponse, c.Window.ReservedForTools)
	}
	if c.Summarizer.APIKeyEnv == "" {
		c.Summarizer.APIKeyEnv = "OPENAI_API_KEY"
	}
}

// Validate rejects configurations the core cannot honor.
func (c *Config) Validate() error {
	switch c.Compaction.Strategy {
	case session.StrategySimple, session.StrategySemantic, session.StrategyHybrid:
	default:
		return fmt.Errorf("unknown compaction strategy: %q", c.Compaction.Strategy)
	}
	if c.Window.AvailableForHistory < 0 {
		return fmt.Errorf("available_for_history must not be negative")
	}
	return nil
}

// APIKey resolves the summarizer API key from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.Summarizer.APIKeyEnv)
}

// Load reads, defaults and validates a YAML config file. Surrounding
// .env files are loaded first so APIKey lookups resolve.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}
