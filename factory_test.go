package uniai

import (
	"errors"
	"testing"

	"github.com/xostack/uniai/config"
)

func TestGetClient_AllProviders(t *testing.T) {
	tests := []struct {
		provider Provider
		config   config.LLMConfig
	}{
		{provider: Gemini, config: config.LLMConfig{APIKey: "test-api-key", Model: "gemini-1.5-pro"}},
		{provider: Groq, config: config.LLMConfig{APIKey: "test-groq-key", Model: "mixtral-8x7b-32768"}},
		{provider: Ollama, config: config.LLMConfig{BaseURL: "http://localhost:11434", Model: "codellama"}},
		{provider: HuggingFace, config: config.LLMConfig{APIKey: "hf_test"}},
		{provider: OpenAI, config: config.LLMConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}},
		{provider: Claude, config: config.LLMConfig{APIKey: "sk-ant-test"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			cfg := config.NewConfig(string(tt.provider), 30, map[string]config.LLMConfig{
				string(tt.provider): tt.config,
			})

			client, err := GetClient(tt.provider, cfg, false)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			if client == nil {
				t.Fatal("Expected client to be non-nil")
			}

			if client.ProviderName() != string(tt.provider) {
				t.Errorf("Expected provider name '%s', got '%s'", tt.provider, client.ProviderName())
			}

			if err := client.Close(); err != nil {
				t.Errorf("Expected Close() to succeed for %s provider, got error: %v", tt.provider, err)
			}
		})
	}
}

func TestGetClient_AutoRejected(t *testing.T) {
	client, err := GetClient(Auto, config.Default(), false)
	if err == nil {
		t.Fatal("Expected error for auto provider")
	}

	if client != nil {
		t.Error("Expected client to be nil when error occurs")
	}
}

func TestGetClient_ProviderNotConfigured(t *testing.T) {
	cfg := config.NewConfig("gemini", 30, map[string]config.LLMConfig{
		"ollama": {BaseURL: "http://localhost:11434"},
	})

	client, err := GetClient(Gemini, cfg, false)
	if err == nil {
		t.Fatal("Expected error for unconfigured provider")
	}

	if client != nil {
		t.Error("Expected client to be nil when error occurs")
	}

	expectedErrMsg := "configuration for provider 'gemini' not found"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestGetClient_MissingAPIKey(t *testing.T) {
	tests := []struct {
		provider Provider
		want     string
	}{
		{Gemini, "API key for Gemini not found in configuration"},
		{Groq, "API key for Groq not found in configuration"},
		{HuggingFace, "API key for Hugging Face not found in configuration"},
		{OpenAI, "API key for OpenAI not found in configuration"},
		{Claude, "API key for Claude not found in configuration"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			cfg := config.NewConfig(string(tt.provider), 30, map[string]config.LLMConfig{
				string(tt.provider): {Model: "some-model"},
			})

			client, err := GetClient(tt.provider, cfg, false)
			if err == nil {
				t.Fatal("Expected error for missing API key")
			}

			if client != nil {
				t.Error("Expected client to be nil when error occurs")
			}

			if err.Error() != tt.want {
				t.Errorf("Expected error message '%s', got '%s'", tt.want, err.Error())
			}
		})
	}
}

func TestGetClient_MissingBaseURL(t *testing.T) {
	cfg := config.NewConfig("ollama", 30, map[string]config.LLMConfig{
		"ollama": {Model: "gemma:2b"},
	})

	_, err := GetClient(Ollama, cfg, false)
	if err == nil {
		t.Fatal("Expected error for missing base URL")
	}

	expectedErrMsg := "base URL for Ollama not found in configuration"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestGetClient_UnsupportedProvider(t *testing.T) {
	cfg := config.NewConfig("unsupported-provider", 30, map[string]config.LLMConfig{
		"unsupported-provider": {APIKey: "test-key"},
	})

	client, err := GetClient("unsupported-provider", cfg, false)
	if err == nil {
		t.Fatal("Expected error for unsupported provider")
	}

	if client != nil {
		t.Error("Expected client to be nil when error occurs")
	}

	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got '%v'", err)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	cfg := config.NewConfig("ollama", 0, map[string]config.LLMConfig{
		"ollama": {BaseURL: "http://localhost:11434", Model: "gemma:2b"},
	})

	client, err := GetClient(Ollama, cfg, false)
	if err != nil {
		t.Fatalf("Expected no error creating client, got: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Expected first Close() to succeed, got error: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Expected second Close() to succeed (idempotent), got error: %v", err)
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"", Auto, false},
		{"AUTO", Auto, false},
		{" Groq ", Groq, false},
		{"huggingface", HuggingFace, false},
		{"mistral", "mistral", true},
	}

	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProviderFreeAndDefaults(t *testing.T) {
	for _, p := range Priority {
		if p.DefaultModel() == "" {
			t.Errorf("Provider %s has no default model", p)
		}
	}

	for _, p := range []Provider{Gemini, Groq, Ollama, HuggingFace} {
		if !p.Free() {
			t.Errorf("Expected %s to be free", p)
		}
	}
	for _, p := range []Provider{OpenAI, Claude} {
		if p.Free() {
			t.Errorf("Expected %s to be paid", p)
		}
	}
}
