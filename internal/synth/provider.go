// Package synth turns proto-narratives into named narratives and follow-on
// product ideas via a pluggable text-synthesis provider, with a deterministic
// algorithmic fallback when the provider is unavailable.
package synth

import (
	"context"
	"fmt"
	"os"
)

// Options tune a single provider call.
type Options struct {
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Provider is the single capability interface the engine depends on. Concrete
// implementations are selected by configuration at startup; the engine never
// imports a specific vendor.
type Provider interface {
	Name() string
	// GenerateJSON runs the prompt and unmarshals the model's JSON reply
	// into out.
	GenerateJSON(ctx context.Context, prompt string, opts Options, out any) error
}

// Config selects and parametrizes the provider plus the synthesis filters.
type Config struct {
	// Provider is "groq", "glm", "openai" or "" to disable external
	// synthesis entirely (fallback narratives only).
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the key; secrets
	// never live in config files.
	APIKeyEnv string `yaml:"api_key_env"`

	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`

	// MaxClusters bounds how many proto-narratives are submitted per call.
	MaxClusters int `yaml:"max_clusters"`
	// MinConfidence drops provider responses below this confidence score.
	MinConfidence float64 `yaml:"min_confidence"`
	// CacheTTLHours caches provider responses keyed by cluster summary.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// DefaultConfig returns production synthesis parameters with no provider
// selected; deployments opt in via config.
func DefaultConfig() Config {
	return Config{
		Provider:          "",
		BaseURL:           "https://api.groq.com/openai/v1/chat/completions",
		Model:             "llama-3.3-70b-versatile",
		APIKeyEnv:         "SYNTH_API_KEY",
		Temperature:       0.3,
		MaxTokens:         6000,
		RequestsPerMinute: 20,
		TimeoutSeconds:    60,
		MaxClusters:       15,
		MinConfidence:     30,
		CacheTTLHours:     6,
	}
}

// NewProvider builds the configured provider, or nil when none is selected.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case "groq", "glm", "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("provider %q requires %s to be set", cfg.Provider, cfg.APIKeyEnv)
		}
		return newOpenAIClient(cfg, key), nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", cfg.Provider)
	}
}
