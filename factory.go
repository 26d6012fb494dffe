package uniai

import (
	"context"
	"fmt"

	"github.com/xostack/uniai/claude"
	"github.com/xostack/uniai/config"
	"github.com/xostack/uniai/gemini"
	"github.com/xostack/uniai/groq"
	"github.com/xostack/uniai/huggingface"
	"github.com/xostack/uniai/llm"
	"github.com/xostack/uniai/ollama"
	"github.com/xostack/uniai/openai"
)

// GetClient is a factory function that returns the adapter for provider,
// built from the provider's section of cfg.
//
// It checks that the provider is known and that its credential (API key, or
// base URL for Ollama) is present. It does not contact the backend.
//
// Example:
//
//	cfg := config.NewConfig("groq", 0, map[string]config.LLMConfig{
//		"groq": {APIKey: "your-api-key"},
//	})
//	client, err := uniai.GetClient(uniai.Groq, cfg, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Making it a variable to allow for easy mocking in tests.
var GetClient func(provider Provider, cfg config.Config, debugMode bool) (llm.Client, error) = func(provider Provider, cfg config.Config, debugMode bool) (llm.Client, error) {
	if provider == "" || provider == Auto {
		return nil, fmt.Errorf("a concrete provider is required, got '%s'", provider)
	}
	if !provider.Known() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	llmCfg, exists := cfg.GetLLMConfig(string(provider))
	if !exists {
		return nil, fmt.Errorf("configuration for provider '%s' not found", provider)
	}

	timeout := cfg.RequestTimeoutSeconds

	switch provider {
	case Gemini:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Gemini not found in configuration")
		}
		return gemini.NewClient(context.Background(), llmCfg.APIKey, llmCfg.Model, timeout, debugMode)
	case Groq:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Groq not found in configuration")
		}
		return groq.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Model, timeout, debugMode)
	case Ollama:
		if llmCfg.BaseURL == "" {
			return nil, fmt.Errorf("base URL for Ollama not found in configuration")
		}
		return ollama.NewClient(llmCfg.BaseURL, llmCfg.Model, timeout, debugMode)
	case HuggingFace:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Hugging Face not found in configuration")
		}
		return huggingface.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Model, timeout, debugMode)
	case OpenAI:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for OpenAI not found in configuration")
		}
		return openai.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Model, timeout, debugMode)
	case Claude:
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Claude not found in configuration")
		}
		return claude.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Model, timeout, debugMode)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
