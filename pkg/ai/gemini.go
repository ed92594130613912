package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// candidateText locates the generated text in a generateContent response.
var candidateText = jp.MustParseString("candidates[0].content.parts[0].text")

// tokenCount locates the total token usage in a generateContent response.
var tokenCount = jp.MustParseString("usageMetadata.totalTokenCount")

// GeminiProvider implements the Provider interface using the generateContent
// API of Google AI Studio or Vertex AI.
type GeminiProvider struct {
	name       string
	endpoint   string
	apiKey     string
	token      string
	httpClient *http.Client
}

// NewGeminiProvider creates a provider for Gemini or, when cfg.Provider is
// "vertex", for Vertex AI.
func NewGeminiProvider(cfg *Config) (*GeminiProvider, error) {
	c := *cfg
	c.ApplyDefaults()

	p := &GeminiProvider{
		name:       c.Provider,
		httpClient: &http.Client{Timeout: c.Timeout},
	}

	if c.Provider == ProviderVertex {
		if c.Token == "" || c.Project == "" || c.Region == "" {
			return nil, &ProviderError{Provider: ProviderVertex, Message: "generateContent", Cause: ErrCredentialsMissing}
		}
		base := c.Endpoint
		if base == "" {
			base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.Region)
		}
		p.token = c.Token
		p.endpoint = fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
			strings.TrimSuffix(base, "/"), url.PathEscape(c.Project), url.PathEscape(c.Region), url.PathEscape(c.Model))
		return p, nil
	}

	if c.APIKey == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "generateContent", Cause: ErrAPIKeyMissing}
	}
	p.name = ProviderGemini
	p.apiKey = c.APIKey
	p.endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(c.Endpoint, "/"), url.PathEscape(c.Model))
	return p, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return p.name
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Seed             int32  `json:"seed"`
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
	ResponseSchema   any    `json:"response_schema,omitempty"`
}

// GenerateExample calls generateContent. JSON requests use structured output
// with the request schema; XML requests carry the schema in the prompt.
func (p *GeminiProvider) GenerateExample(ctx context.Context, req *ExampleRequest) (*ExampleResponse, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{Seed: req.Seed},
	}
	if req.Format != FormatXML {
		body.GenerationConfig.ResponseMIMEType = "application/json"
		body.GenerationConfig.ResponseSchema = req.ResponseSchema
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.endpoint
	if p.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(p.apiKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Message: "generateContent: API request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{
			Provider: p.name,
			Message:  fmt.Sprintf("generateContent: API call failed with status %d", resp.StatusCode),
		}
	}

	doc, err := oj.ParseString(string(raw))
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Message: "generateContent", Cause: ErrInvalidResponse}
	}

	text, _ := candidateText.First(doc).(string)
	text = stripCodeBlocks(text)
	if text == "" {
		return nil, &ProviderError{Provider: p.name, Message: "generateContent", Cause: ErrEmptyOutput}
	}

	out := &ExampleResponse{Text: text, RawResponse: string(raw)}
	if n, ok := tokenCount.First(doc).(int64); ok {
		out.TokensUsed = int(n)
	}
	return out, nil
}
