package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned by RequireCredential when a provider has no
// usable credential.
var ErrMissingCredential = errors.New("no valid API key found")

// envKeys lists, per provider, the environment variables holding its
// credential. The first non-empty one wins.
var envKeys = map[string][]string{
	"gemini":      {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":      {"OPENAI_API_KEY"},
	"claude":      {"ANTHROPIC_API_KEY"},
	"groq":        {"GROQ_API_KEY"},
	"huggingface": {"HUGGINGFACE_API_KEY"},
}

// ollamaHostEnv overrides the Ollama base URL.
const ollamaHostEnv = "OLLAMA_HOST"

// EnvKeys returns the environment variable names consulted for provider.
func EnvKeys(provider string) []string {
	if provider == "ollama" {
		return []string{ollamaHostEnv}
	}
	return append([]string(nil), envKeys[provider]...)
}

// ApplyEnv overlays credentials from the environment onto c. lookup is
// usually os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.LLMs == nil {
		c.LLMs = map[string]LLMConfig{}
	}

	for provider, keys := range envKeys {
		for _, key := range keys {
			value, ok := lookup(key)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			llmCfg := c.LLMs[provider]
			llmCfg.APIKey = strings.TrimSpace(value)
			c.LLMs[provider] = llmCfg
			break
		}
	}

	if host, ok := lookup(ollamaHostEnv); ok && strings.TrimSpace(host) != "" {
		llmCfg := c.LLMs["ollama"]
		llmCfg.BaseURL = normalizeHost(strings.TrimSpace(host))
		c.LLMs["ollama"] = llmCfg
	}
}

// normalizeHost accepts OLLAMA_HOST in the forms ollama itself accepts
// ("host:port" or a full URL) and returns a URL.
func normalizeHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to access env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// placeholders are values shipped in sample .env files.
var placeholders = []string{
	"your-api-key-here",
	"your-api-key",
	"changeme",
	"<api-key>",
}

// IsPlaceholder reports whether value is empty or a sample value that was
// never replaced with a real key.
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	if strings.HasPrefix(v, "your-") && (strings.HasSuffix(v, "-here") || strings.HasSuffix(v, "-key")) {
		return true
	}
	return strings.Trim(v, "x") == ""
}

// HasCredential reports whether provider is configured well enough to try.
// Ollama needs a base URL; every other provider needs a non-placeholder key.
func (c *Config) HasCredential(provider string) bool {
	llmCfg, ok := c.LLMs[provider]
	if !ok {
		return false
	}
	if provider == "ollama" {
		return strings.TrimSpace(llmCfg.BaseURL) != ""
	}
	return !IsPlaceholder(llmCfg.APIKey)
}

// RequireCredential returns an error naming the environment variables to set
// when provider has no usable credential.
func (c *Config) RequireCredential(provider string) error {
	if c.HasCredential(provider) {
		return nil
	}
	keys := EnvKeys(provider)
	if len(keys) == 0 {
		return fmt.Errorf("%w for %s", ErrMissingCredential, provider)
	}
	return fmt.Errorf("%w for %s: set %s in your environment or .env file", ErrMissingCredential, provider, strings.Join(keys, " or "))
}
