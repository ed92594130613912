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
	ollamaTimeout = 60 * time.Second // Ollama can be slower, especially for first requests
)

// OllamaProvider implements the Provider interface using a local Ollama instance.
type OllamaProvider struct {
	endpoint   string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg *Config) (*OllamaProvider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaProvider{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		model:     model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: timeoutOr(cfg.Timeout, ollamaTimeout),
		},
	}, nil
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

// GenerateExample produces an example document. JSON requests pass the
// schema through Ollama's format field; XML requests embed it in the prompt.
func (p *OllamaProvider) GenerateExample(ctx context.Context, req *ExampleRequest) (*ExampleResponse, error) {
	resp, raw, err := p.callAPI(ctx, req)
	if err != nil {
		return nil, err
	}

	text := stripCodeBlocks(resp.Message.Content)
	if text == "" {
		return nil, &ProviderError{Provider: ProviderOllama, Message: "chat", Cause: ErrEmptyOutput}
	}

	return &ExampleResponse{
		Text:        text,
		RawResponse: raw,
		TokensUsed:  resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

// ollamaRequest represents the request to Ollama's chat API.
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   any             `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Seed       int32 `json:"seed"`
	NumPredict int   `json:"num_predict,omitempty"`
}

// ollamaResponse represents the response from Ollama.
type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

func (p *OllamaProvider) callAPI(ctx context.Context, ex *ExampleRequest) (*ollamaResponse, string, error) {
	reqBody := ollamaRequest{
		Model: p.model,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: systemPrompt,
			},
			{
				Role:    "user",
				Content: ex.Prompt,
			},
		},
		Stream: false,
		Options: &ollamaOptions{
			Seed:       ex.Seed,
			NumPredict: p.maxTokens,
		},
	}
	if ex.Format == FormatXML {
		reqBody.Messages[1].Content = inlineSchema(ex)
	} else if ex.ResponseSchema != nil {
		reqBody.Format = ex.ResponseSchema
	} else {
		reqBody.Format = "json"
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", &ProviderError{
			Provider: ProviderOllama,
			Message:  "API request failed - is Ollama running?",
			Cause:    err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, "", fmt.Errorf("failed to parse response: %w", err)
	}

	if ollamaResp.Error != "" {
		return nil, "", &ProviderError{
			Provider: ProviderOllama,
			Message:  ollamaResp.Error,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &ProviderError{
			Provider: ProviderOllama,
			Message:  fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	return &ollamaResp, string(body), nil
}

// CheckConnection verifies that Ollama is running and the model is available.
func (p *OllamaProvider) CheckConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ProviderError{
			Provider: ProviderOllama,
			Message:  "cannot connect to Ollama - is it running?",
			Cause:    err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider: ProviderOllama,
			Message:  fmt.Sprintf("Ollama returned status %d", resp.StatusCode),
		}
	}

	return nil
}
