package ai

import (
	"context"
	"errors"
	"fmt"
)

// Provider generates example payloads with a language model.
type Provider interface {
	// GenerateExample produces one example document.
	GenerateExample(ctx context.Context, req *ExampleRequest) (*ExampleResponse, error)

	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// Format is the document format an example is requested in.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ExampleRequest contains the input for example generation.
type ExampleRequest struct {
	// Format selects JSON or XML output.
	Format Format `json:"format"`

	// Prompt is the full user prompt, including request context.
	Prompt string `json:"prompt"`

	// ResponseSchema is a JSON schema the output must follow. Providers with
	// structured output support enforce it; others receive it in the prompt.
	ResponseSchema any `json:"responseSchema,omitempty"`

	// Seed makes generation repeatable on providers that support it.
	Seed int32 `json:"seed"`
}

// ExampleResponse contains the generated example.
type ExampleResponse struct {
	// Text is the generated document with code fences removed.
	Text string `json:"text"`

	// RawResponse is the raw response body (for debugging).
	RawResponse string `json:"rawResponse,omitempty"`

	// TokensUsed is the number of tokens consumed (if available).
	TokensUsed int `json:"tokensUsed,omitempty"`
}

// maxSeed bounds seeds to the positive int32 range accepted by Gemini.
const maxSeed = 2147483647

// Seed converts a sampler seed into a provider seed.
func Seed(seed uint32) int32 {
	return int32(seed % maxSeed)
}

// Common errors
var (
	// ErrProviderNotConfigured is returned when the provider is not properly configured.
	ErrProviderNotConfigured = errors.New("AI provider not configured")

	// ErrAPIKeyMissing is returned when the API key is not set.
	ErrAPIKeyMissing = errors.New("API key is required")

	// ErrCredentialsMissing is returned when Vertex AI has no token, project or region.
	ErrCredentialsMissing = errors.New("credentials missing")

	// ErrRateLimited is returned when the provider rate limits the request.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrEmptyOutput is returned when the provider answers without any text.
	ErrEmptyOutput = errors.New("response format error or empty output")

	// ErrInvalidResponse is returned when the AI response cannot be parsed.
	ErrInvalidResponse = errors.New("invalid response from provider")
)

// ProviderError wraps errors from AI providers with additional context.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProvider creates a provider based on the configuration.
func NewProvider(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, ErrProviderNotConfigured
	}

	switch cfg.Provider {
	case ProviderGemini, ProviderVertex:
		return NewGeminiProvider(cfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case ProviderOllama:
		return NewOllamaProvider(cfg)
	case ProviderOpenRouter:
		// OpenRouter uses an OpenAI-compatible API with a different base URL.
		if cfg.Endpoint == "" {
			cfg.Endpoint = DefaultOpenRouterEndpoint
		}
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderNotConfigured, cfg.Provider)
	}
}
