package ai

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider name constants
const (
	ProviderGemini     = "gemini"
	ProviderVertex     = "vertex"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// Environment variable names
const (
	EnvProvider = "OASMOCK_AI_PROVIDER"
	EnvAPIKey   = "OASMOCK_AI_API_KEY"
	EnvModel    = "OASMOCK_AI_MODEL"
	EnvEndpoint = "OASMOCK_AI_ENDPOINT"
	EnvRegion   = "OASMOCK_AI_REGION"
	EnvProject  = "OASMOCK_AI_PROJECT"
	EnvToken    = "OASMOCK_AI_TOKEN"
)

// Default model names for each provider
const (
	DefaultGeminiModel        = "gemini-2.0-flash"
	DefaultGeminiEndpoint     = "https://generativelanguage.googleapis.com"
	DefaultVertexRegion       = "us-central1"
	DefaultOpenAIModel        = "gpt-4o-mini"
	DefaultAnthropicModel     = "claude-3-haiku-20240307"
	DefaultOllamaModel        = "llama3.2"
	DefaultOllamaEndpoint     = "http://localhost:11434"
	DefaultOpenRouterModel    = "google/gemini-2.5-flash"
	DefaultOpenRouterEndpoint = "https://openrouter.ai/api/v1"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

// Config holds the configuration for AI providers.
type Config struct {
	// Provider is the AI provider to use (see SupportedProviders).
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the provider (not needed for Ollama or Vertex AI).
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`

	// Model is the model name to use.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Endpoint is the API endpoint URL (optional, every provider has a default).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Region is the Vertex AI location, e.g. "us-central1".
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Project is the Google Cloud project for Vertex AI.
	Project string `json:"project,omitempty" yaml:"project,omitempty"`

	// Token is the OAuth access token for Vertex AI.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`

	// Timeout bounds each request; zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ConfigFromEnv reads AI configuration from environment variables.
func ConfigFromEnv() *Config {
	provider := os.Getenv(EnvProvider)
	if provider == "" {
		return nil
	}

	cfg := &Config{
		Provider: strings.ToLower(provider),
		APIKey:   os.Getenv(EnvAPIKey),
		Model:    os.Getenv(EnvModel),
		Endpoint: os.Getenv(EnvEndpoint),
		Region:   os.Getenv(EnvRegion),
		Project:  os.Getenv(EnvProject),
		Token:    os.Getenv(EnvToken),
	}

	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults sets default values based on the provider.
func (c *Config) ApplyDefaults() {
	c.Provider = strings.ToLower(c.Provider)

	switch c.Provider {
	case ProviderGemini:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
		if c.Endpoint == "" {
			c.Endpoint = DefaultGeminiEndpoint
		}
	case ProviderVertex:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
		if c.Region == "" {
			c.Region = DefaultVertexRegion
		}
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = DefaultOpenAIModel
		}
	case ProviderAnthropic:
		if c.Model == "" {
			c.Model = DefaultAnthropicModel
		}
	case ProviderOllama:
		if c.Model == "" {
			c.Model = DefaultOllamaModel
		}
		if c.Endpoint == "" {
			c.Endpoint = DefaultOllamaEndpoint
		}
	case ProviderOpenRouter:
		if c.Model == "" {
			c.Model = DefaultOpenRouterModel
		}
		if c.Endpoint == "" {
			c.Endpoint = DefaultOpenRouterEndpoint
		}
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrProviderNotConfigured
	}

	if c.Provider == "" {
		return errors.New("provider is required")
	}

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("%w for %s", ErrAPIKeyMissing, c.Provider)
		}
	case ProviderVertex:
		if c.Token == "" || c.Project == "" {
			return fmt.Errorf("%w: vertex needs a token and a project", ErrCredentialsMissing)
		}
	case ProviderOllama:
		if c.Endpoint == "" {
			return errors.New("endpoint is required for ollama")
		}
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}

	return nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	return []string{ProviderGemini, ProviderVertex, ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderOpenRouter}
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
