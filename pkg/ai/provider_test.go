package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("returns nil when no provider set", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		cfg := ConfigFromEnv()
		if cfg != nil {
			t.Error("expected nil config when provider not set")
		}
	})

	t.Run("returns config when provider set", func(t *testing.T) {
		t.Setenv(EnvProvider, "OpenAI")
		t.Setenv(EnvAPIKey, "test-key")
		t.Setenv(EnvModel, "gpt-4")

		cfg := ConfigFromEnv()
		if cfg == nil {
			t.Fatal("expected config to be returned")
		}
		if cfg.Provider != "openai" {
			t.Errorf("expected provider=openai, got %s", cfg.Provider)
		}
		if cfg.APIKey != "test-key" {
			t.Errorf("expected apiKey=test-key, got %s", cfg.APIKey)
		}
		if cfg.Model != "gpt-4" {
			t.Errorf("expected model=gpt-4, got %s", cfg.Model)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %s", cfg.Timeout)
		}
	})

	t.Run("applies defaults for gemini", func(t *testing.T) {
		t.Setenv(EnvProvider, "gemini")
		t.Setenv(EnvModel, "")
		t.Setenv(EnvEndpoint, "")

		cfg := ConfigFromEnv()
		if cfg.Model != DefaultGeminiModel {
			t.Errorf("expected default model %s, got %s", DefaultGeminiModel, cfg.Model)
		}
		if cfg.Endpoint != DefaultGeminiEndpoint {
			t.Errorf("expected default endpoint %s, got %s", DefaultGeminiEndpoint, cfg.Endpoint)
		}
	})

	t.Run("reads vertex credentials", func(t *testing.T) {
		t.Setenv(EnvProvider, "vertex")
		t.Setenv(EnvProject, "demo")
		t.Setenv(EnvToken, "tok")
		t.Setenv(EnvRegion, "")

		cfg := ConfigFromEnv()
		if cfg.Region != DefaultVertexRegion {
			t.Errorf("expected default region %s, got %s", DefaultVertexRegion, cfg.Region)
		}
		if cfg.Project != "demo" || cfg.Token != "tok" {
			t.Errorf("unexpected vertex credentials: %+v", cfg)
		}
	})

	t.Run("applies defaults for ollama", func(t *testing.T) {
		t.Setenv(EnvProvider, "ollama")
		t.Setenv(EnvModel, "")
		t.Setenv(EnvEndpoint, "")

		cfg := ConfigFromEnv()
		if cfg.Model != DefaultOllamaModel {
			t.Errorf("expected default model %s, got %s", DefaultOllamaModel, cfg.Model)
		}
		if cfg.Endpoint != DefaultOllamaEndpoint {
			t.Errorf("expected default endpoint %s, got %s", DefaultOllamaEndpoint, cfg.Endpoint)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("returns error for nil config", func(t *testing.T) {
		var cfg *Config
		if err := cfg.Validate(); !errors.Is(err, ErrProviderNotConfigured) {
			t.Errorf("expected ErrProviderNotConfigured, got %v", err)
		}
	})

	t.Run("returns error for empty provider", func(t *testing.T) {
		cfg := &Config{}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty provider")
		}
	})

	t.Run("requires api key for gemini", func(t *testing.T) {
		cfg := &Config{Provider: ProviderGemini}
		if err := cfg.Validate(); !errors.Is(err, ErrAPIKeyMissing) {
			t.Errorf("expected ErrAPIKeyMissing, got %v", err)
		}
	})

	t.Run("requires credentials for vertex", func(t *testing.T) {
		cfg := &Config{Provider: ProviderVertex, Project: "demo"}
		if err := cfg.Validate(); !errors.Is(err, ErrCredentialsMissing) {
			t.Errorf("expected ErrCredentialsMissing, got %v", err)
		}
	})

	t.Run("accepts ollama without key", func(t *testing.T) {
		cfg := &Config{Provider: ProviderOllama, Endpoint: DefaultOllamaEndpoint}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := &Config{Provider: "bard"}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		wantName string
		wantErr  bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "unknown", cfg: &Config{Provider: "nope"}, wantErr: true},
		{name: "gemini", cfg: &Config{Provider: ProviderGemini, APIKey: "k"}, wantName: ProviderGemini},
		{name: "gemini without key", cfg: &Config{Provider: ProviderGemini}, wantErr: true},
		{name: "vertex", cfg: &Config{Provider: ProviderVertex, Project: "p", Token: "t"}, wantName: ProviderVertex},
		{name: "vertex without token", cfg: &Config{Provider: ProviderVertex, Project: "p"}, wantErr: true},
		{name: "openai", cfg: &Config{Provider: ProviderOpenAI, APIKey: "k"}, wantName: ProviderOpenAI},
		{name: "openrouter", cfg: &Config{Provider: ProviderOpenRouter, APIKey: "k"}, wantName: ProviderOpenRouter},
		{name: "anthropic", cfg: &Config{Provider: ProviderAnthropic, APIKey: "k"}, wantName: ProviderAnthropic},
		{name: "ollama", cfg: &Config{Provider: ProviderOllama}, wantName: ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected name %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestGeminiProvider(t *testing.T) {
	schema := map[string]interface{}{"type": "object"}

	t.Run("sends structured output request", func(t *testing.T) {
		var gotPath, gotKey string
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.URL.Query().Get("key")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"name\":\"Rex\"}"}]}}],"usageMetadata":{"totalTokenCount":42}}`))
		}))
		defer server.Close()

		p, err := NewGeminiProvider(&Config{Provider: ProviderGemini, APIKey: "secret", Endpoint: server.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resp, err := p.GenerateExample(context.Background(), &ExampleRequest{
			Format:         FormatJSON,
			Prompt:         "make a pet",
			ResponseSchema: schema,
			Seed:           7,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotPath != "/v1beta/models/"+DefaultGeminiModel+":generateContent" {
			t.Errorf("unexpected path %s", gotPath)
		}
		if gotKey != "secret" {
			t.Errorf("expected api key in query, got %q", gotKey)
		}
		genCfg, _ := gotBody["generationConfig"].(map[string]interface{})
		if genCfg["response_mime_type"] != "application/json" {
			t.Errorf("expected json mime type, got %v", genCfg["response_mime_type"])
		}
		if genCfg["seed"] != float64(7) {
			t.Errorf("expected seed 7, got %v", genCfg["seed"])
		}
		if _, ok := genCfg["response_schema"]; !ok {
			t.Error("expected response_schema in generationConfig")
		}
		if resp.Text != `{"name":"Rex"}` {
			t.Errorf("unexpected text %q", resp.Text)
		}
		if resp.TokensUsed != 42 {
			t.Errorf("expected 42 tokens, got %d", resp.TokensUsed)
		}
	})

	t.Run("xml request omits schema", func(t *testing.T) {
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte("{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"```xml\\n<pet/>\\n```\"}]}}]}"))
		}))
		defer server.Close()

		p, _ := NewGeminiProvider(&Config{Provider: ProviderGemini, APIKey: "k", Endpoint: server.URL})
		resp, err := p.GenerateExample(context.Background(), &ExampleRequest{Format: FormatXML, Prompt: "xml"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		genCfg, _ := gotBody["generationConfig"].(map[string]interface{})
		if _, ok := genCfg["response_mime_type"]; ok {
			t.Error("xml request should not set response_mime_type")
		}
		if resp.Text != "<pet/>" {
			t.Errorf("expected code fence stripped, got %q", resp.Text)
		}
	})

	t.Run("vertex uses bearer token", func(t *testing.T) {
		var gotAuth, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
		}))
		defer server.Close()

		p, err := NewGeminiProvider(&Config{Provider: ProviderVertex, Project: "proj", Token: "tok", Endpoint: server.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", gotAuth)
		}
		want := "/v1/projects/proj/locations/us-central1/publishers/google/models/" + DefaultGeminiModel + ":generateContent"
		if gotPath != want {
			t.Errorf("expected path %s, got %s", want, gotPath)
		}
	})

	t.Run("reports non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		p, _ := NewGeminiProvider(&Config{Provider: ProviderGemini, APIKey: "k", Endpoint: server.URL})
		_, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"})
		if err == nil || !strings.Contains(err.Error(), "API call failed with status 500") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("reports empty output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		p, _ := NewGeminiProvider(&Config{Provider: ProviderGemini, APIKey: "k", Endpoint: server.URL})
		_, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"})
		if !errors.Is(err, ErrEmptyOutput) {
			t.Errorf("expected ErrEmptyOutput, got %v", err)
		}
	})
}

func TestOpenAIProvider(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewOpenAIProvider(&Config{})
		if !errors.Is(err, ErrAPIKeyMissing) {
			t.Errorf("expected ErrAPIKeyMissing, got %v", err)
		}
	})

	t.Run("sends json schema response format", func(t *testing.T) {
		var gotReq openAIChatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
			}
			_ = json.NewDecoder(r.Body).Decode(&gotReq)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"id\":1}"}}],"usage":{"total_tokens":12}}`))
		}))
		defer server.Close()

		p, err := NewOpenAIProvider(&Config{APIKey: "test-key", Endpoint: server.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resp, err := p.GenerateExample(context.Background(), &ExampleRequest{
			Format:         FormatJSON,
			Prompt:         "pet",
			ResponseSchema: map[string]interface{}{"type": "object"},
			Seed:           3,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Text != `{"id":1}` {
			t.Errorf("unexpected text %q", resp.Text)
		}
		if resp.TokensUsed != 12 {
			t.Errorf("expected 12 tokens, got %d", resp.TokensUsed)
		}
		if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_schema" {
			t.Errorf("expected json_schema response format, got %+v", gotReq.ResponseFormat)
		}
		if gotReq.Seed != 3 {
			t.Errorf("expected seed 3, got %d", gotReq.Seed)
		}
	})

	t.Run("handles rate limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","code":"rate_limit_exceeded"}}`))
		}))
		defer server.Close()

		p, _ := NewOpenAIProvider(&Config{APIKey: "test-key", Endpoint: server.URL})
		_, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"})
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("openrouter adds attribution headers", func(t *testing.T) {
		var gotTitle string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotTitle = r.Header.Get("X-Title")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<a/>"}}]}`))
		}))
		defer server.Close()

		p, _ := NewOpenAIProvider(&Config{Provider: ProviderOpenRouter, APIKey: "k", Endpoint: server.URL})
		if _, err := p.GenerateExample(context.Background(), &ExampleRequest{Format: FormatXML, Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotTitle != "oasmock" {
			t.Errorf("expected X-Title header, got %q", gotTitle)
		}
	})
}

func TestAnthropicProvider(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewAnthropicProvider(&Config{})
		if !errors.Is(err, ErrAPIKeyMissing) {
			t.Errorf("expected ErrAPIKeyMissing, got %v", err)
		}
	})

	t.Run("inlines schema into prompt", func(t *testing.T) {
		var gotReq anthropicRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-api-key") != "test-key" {
				t.Errorf("unexpected api key header: %s", r.Header.Get("x-api-key"))
			}
			if r.Header.Get("anthropic-version") != anthropicAPIVersion {
				t.Errorf("unexpected version header: %s", r.Header.Get("anthropic-version"))
			}
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"ok\":true}"}],"usage":{"input_tokens":5,"output_tokens":6}}`))
		}))
		defer server.Close()

		p, _ := NewAnthropicProvider(&Config{APIKey: "test-key", Endpoint: server.URL})
		resp, err := p.GenerateExample(context.Background(), &ExampleRequest{
			Prompt:         "pet",
			ResponseSchema: map[string]interface{}{"type": "object"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Text != `{"ok":true}` {
			t.Errorf("unexpected text %q", resp.Text)
		}
		if resp.TokensUsed != 11 {
			t.Errorf("expected 11 tokens, got %d", resp.TokensUsed)
		}
		if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "SCHEMA:") {
			t.Errorf("expected schema in prompt, got %+v", gotReq.Messages)
		}
	})

	t.Run("empty content is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}))
		defer server.Close()

		p, _ := NewAnthropicProvider(&Config{APIKey: "k", Endpoint: server.URL})
		_, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"})
		if !errors.Is(err, ErrEmptyOutput) {
			t.Errorf("expected ErrEmptyOutput, got %v", err)
		}
	})
}

func TestOllamaProvider(t *testing.T) {
	t.Run("passes schema as format", func(t *testing.T) {
		var gotReq map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/chat" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			_, _ = w.Write([]byte(`{"message":{"content":"{\"a\":1}"},"prompt_eval_count":2,"eval_count":3}`))
		}))
		defer server.Close()

		p, _ := NewOllamaProvider(&Config{Endpoint: server.URL})
		resp, err := p.GenerateExample(context.Background(), &ExampleRequest{
			Prompt:         "x",
			ResponseSchema: map[string]interface{}{"type": "object"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := gotReq["format"].(map[string]interface{}); !ok {
			t.Errorf("expected schema as format, got %v", gotReq["format"])
		}
		if gotReq["stream"] != false {
			t.Errorf("expected stream=false, got %v", gotReq["stream"])
		}
		if resp.TokensUsed != 5 {
			t.Errorf("expected 5 tokens, got %d", resp.TokensUsed)
		}
	})

	t.Run("reports server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		}))
		defer server.Close()

		p, _ := NewOllamaProvider(&Config{Endpoint: server.URL})
		_, err := p.GenerateExample(context.Background(), &ExampleRequest{Prompt: "x"})
		var perr *ProviderError
		if !errors.As(err, &perr) || perr.Message != "model not found" {
			t.Errorf("expected provider error, got %v", err)
		}
	})

	t.Run("check connection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/tags" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer server.Close()

		p, _ := NewOllamaProvider(&Config{Endpoint: server.URL})
		if err := p.CheckConnection(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPrompts(t *testing.T) {
	rc := RequestContext{Method: "GET", URI: "/pets/1", Body: ""}

	t.Run("json prompt carries request context", func(t *testing.T) {
		p := BuildJSONPrompt(rc)
		if !strings.HasPrefix(p, "Generate a realistic and meaningful JSON response") {
			t.Errorf("unexpected prompt start: %q", p[:40])
		}
		if !strings.HasSuffix(p, "REQUEST CONTEXT:\n  - Method: GET\n  - URL Path: /pets/1\n  - Body: ") {
			t.Errorf("unexpected request context in %q", p)
		}
	})

	t.Run("xml prompt carries hints and schema", func(t *testing.T) {
		p := BuildXMLPrompt("{\n  \"type\": \"object\"\n}", rc)
		if !strings.Contains(p, "'xml/wrapped'") {
			t.Error("expected xml hints in prompt")
		}
		if !strings.HasSuffix(p, "SCHEMA:\n{\n  \"type\": \"object\"\n}") {
			t.Errorf("expected schema at end of prompt: %q", p)
		}
	})

	t.Run("large bodies are truncated", func(t *testing.T) {
		big := RequestContext{Method: "POST", URI: "/pets", Body: strings.Repeat("x", 20*1024)}
		p := BuildJSONPrompt(big)
		if !strings.HasSuffix(p, "...(truncated)") {
			t.Error("expected truncated body")
		}
		if len(p) > 12*1024 {
			t.Errorf("prompt too large: %d bytes", len(p))
		}
	})
}

func TestStripCodeBlocks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n<a/>\n```", want: "<a/>"},
		{in: "  spaced  ", want: "spaced"},
	}
	for _, tt := range tests {
		if got := stripCodeBlocks(tt.in); got != tt.want {
			t.Errorf("stripCodeBlocks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeed(t *testing.T) {
	if got := Seed(2147483647); got != 0 {
		t.Errorf("expected wrap to 0, got %d", got)
	}
	if got := Seed(4294967295); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := Seed(12); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) != 6 {
		t.Errorf("expected 6 providers, got %d", len(providers))
	}
}
