// Package ai generates response examples with large language models.
//
// A Provider turns an ExampleRequest (a prompt, an optional structured
// output schema and a seed) into example text. The mock engine only calls a
// provider when fuzzing is forced, and treats every provider error as a
// reason to fall back to the deterministic schema sampler.
//
// # Supported Providers
//
//   - Gemini (Google AI Studio, API key)
//   - Vertex AI (Google Cloud, bearer token)
//   - OpenAI and OpenAI-compatible endpoints such as OpenRouter
//   - Anthropic
//   - Ollama (local models)
//
// # Configuration
//
// Configuration is read from the server config file or from environment
// variables:
//   - OASMOCK_AI_PROVIDER: provider name
//   - OASMOCK_AI_API_KEY: API key (Gemini, OpenAI, OpenRouter, Anthropic)
//   - OASMOCK_AI_MODEL: model name
//   - OASMOCK_AI_ENDPOINT: custom endpoint URL
//   - OASMOCK_AI_REGION, OASMOCK_AI_PROJECT, OASMOCK_AI_TOKEN: Vertex AI
//
// # Usage
//
//	cfg := ai.ConfigFromEnv()
//	provider, err := ai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.GenerateExample(ctx, &ai.ExampleRequest{
//	    Format: ai.FormatJSON,
//	    Prompt: ai.BuildJSONPrompt(ai.RequestContext{Method: "GET", URI: "/pets/1"}),
//	    Seed:   ai.Seed(seed),
//	})
package ai
