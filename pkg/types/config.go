// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "brief-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for components that call a
// Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the completion length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds one completion request end to end.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SearchConfig holds settings for the search adapter.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the search backend: serper, brave, or
	// simulated. Empty picks serper when an API key is set, the
	// simulated backend otherwise.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey authenticates against the selected provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the total result cap across all queries
	// (default 10). Lowest-ranked entries are truncated first.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FetchConfig holds settings for the content fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxChars truncates extracted article text (default 8000).
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// MaxSources is the number of top-ranked results to fetch and
	// summarize (default 5).
	MaxSources int `json:"max_sources" yaml:"max_sources"`
}

// HistoryConfig holds settings for the brief history store.
type HistoryConfig struct {
	// DBPath is the SQLite database file (default "briefs.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// Retention is the number of briefs kept per user (default 10).
	// Older briefs are pruned on append.
	Retention int `json:"retention" yaml:"retention"`
}

// WorkflowConfig holds orchestrator-level settings.
type WorkflowConfig struct {
	// MaxRetries is the per-node retry limit on retryable failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MinRelevance drops source entries scoring below it during
	// post-processing. Zero keeps everything.
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Workflow WorkflowConfig `json:"workflow" yaml:"workflow"`
}

// Defaults returns a PipelineConfig with every field at its default.
func Defaults() PipelineConfig {
	return PipelineConfig{
		AI: AIConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 4096,
			Timeout:   60 * time.Second,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "brief-engine/0.1"},
			MaxResults: 10,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "brief-engine/0.1"},
			MaxChars:   8000,
			MaxSources: 5,
		},
		History: HistoryConfig{
			DBPath:    "briefs.db",
			Retention: 10,
		},
		Workflow: WorkflowConfig{
			MaxRetries: 3,
		},
	}
}
