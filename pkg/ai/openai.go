package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIDefaultEndpoint = "https://api.openai.com/v1"
	openAITimeout         = 30 * time.Second
)

// OpenAIProvider implements the Provider interface using OpenAI's API.
// It also supports OpenAI-compatible endpoints like OpenRouter.
type OpenAIProvider struct {
	name         string
	apiKey       string
	model        string
	baseURL      string
	httpClient   *http.Client
	maxTokens    int
	extraHeaders map[string]string // Additional headers (e.g., OpenRouter attribution)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg *Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for OpenAI", ErrAPIKeyMissing)
	}

	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = openAIDefaultEndpoint
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	p := &OpenAIProvider{
		name:    ProviderOpenAI,
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeoutOr(cfg.Timeout, openAITimeout),
		},
		maxTokens: maxTokens,
	}

	// Add OpenRouter attribution headers when using their endpoint.
	if cfg.Provider == ProviderOpenRouter || strings.Contains(baseURL, "openrouter.ai") {
		p.name = ProviderOpenRouter
		p.extraHeaders = map[string]string{
			"HTTP-Referer": "https://github.com/getmockd/oasmock",
			"X-Title":      "oasmock",
		}
	}

	return p, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// GenerateExample produces an example document. The schema, if any, is
// enforced through the json_schema response format.
func (p *OpenAIProvider) GenerateExample(ctx context.Context, req *ExampleRequest) (*ExampleResponse, error) {
	text, tokens, raw, err := p.callAPI(ctx, req)
	if err != nil {
		return nil, err
	}

	text = stripCodeBlocks(text)
	if text == "" {
		return nil, &ProviderError{Provider: p.name, Message: "chat completion", Cause: ErrEmptyOutput}
	}

	return &ExampleResponse{Text: text, RawResponse: raw, TokensUsed: tokens}, nil
}

// openAIChatRequest represents the request to OpenAI chat completions API.
type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Seed           int32                 `json:"seed"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIChatResponse represents the response from OpenAI.
type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (p *OpenAIProvider) callAPI(ctx context.Context, ex *ExampleRequest) (string, int, string, error) {
	reqBody := openAIChatRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{
				Role:    "system",
				Content: systemPrompt,
			},
			{
				Role:    "user",
				Content: ex.Prompt,
			},
		},
		MaxTokens: p.maxTokens,
		Seed:      ex.Seed,
	}
	if ex.Format != FormatXML && ex.ResponseSchema != nil {
		reqBody.ResponseFormat = &openAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: &openAIJSONSchema{Name: "example", Schema: ex.ResponseSchema},
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	for k, v := range p.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, "", &ProviderError{
			Provider: p.name,
			Message:  "API request failed",
			Cause:    err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", 0, "", ErrRateLimited
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", 0, "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		if chatResp.Error.Code == "rate_limit_exceeded" {
			return "", 0, "", ErrRateLimited
		}
		return "", 0, "", &ProviderError{
			Provider: p.name,
			Message:  chatResp.Error.Message,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, "", &ProviderError{
			Provider: p.name,
			Message:  fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if len(chatResp.Choices) == 0 {
		return "", 0, "", ErrInvalidResponse
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), chatResp.Usage.TotalTokens, string(body), nil
}
