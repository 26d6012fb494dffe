// Package uniai provides one request/result contract over several hosted
// text-generation APIs and a local Ollama server.
//
// Supported providers, in auto-selection order:
//   - Google Gemini (cloud, free tier)
//   - Groq (cloud, free tier)
//   - Ollama (self-hosted)
//   - Hugging Face Inference API (cloud, free tier)
//   - OpenAI (cloud, metered)
//   - Anthropic Claude (cloud, metered)
//
// Discovery runs once: it checks credentials, probes the local Ollama server
// and builds one adapter per usable provider. The dispatcher never returns a
// Go error; every failure is carried in Result.Err.
//
// Example usage:
//
//	cfg, err := config.Load(false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	ai := uniai.FromConfig(context.Background(), cfg, false)
//	defer ai.Close()
//
//	res := ai.Generate(context.Background(), uniai.NewRequest("Hello, world!"))
//	if !res.Success() {
//		log.Fatal(res.Err)
//	}
//	fmt.Println(res.Provider, res.Model, res.Text)
//
// For more control, you can also create adapters directly:
//
//	client, err := groq.NewClient("api-key", "", "", 0, false)
//
// Every adapter implements Client, so the rest of an application does not
// care which backend it talks to.
package uniai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xostack/uniai/llm"
)

// Client is the interface every provider adapter implements.
type Client = llm.Client

// Provider identifies a generation backend.
type Provider string

const (
	// Auto selects the first available provider in Priority order.
	Auto        Provider = "auto"
	Gemini      Provider = "gemini"
	Groq        Provider = "groq"
	Ollama      Provider = "ollama"
	HuggingFace Provider = "huggingface"
	OpenAI      Provider = "openai"
	Claude      Provider = "claude"
)

// Priority is the fixed auto-selection order: no-cost and local backends
// before metered ones.
var Priority = []Provider{Gemini, Groq, Ollama, HuggingFace, OpenAI, Claude}

var (
	// ErrNoProvider is reported when auto-selection finds nothing usable.
	ErrNoProvider = errors.New("no AI provider available, configure an API key")

	// ErrUnknownProvider is reported for provider names outside Priority.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable is reported for a known provider that discovery did
	// not register.
	ErrUnavailable = errors.New("not available, check API key or installation")
)

var defaultModels = map[Provider]string{
	Gemini:      "gemini-1.5-flash-latest",
	Groq:        "llama3-70b-8192",
	Ollama:      "llama3",
	HuggingFace: "gpt2",
	OpenAI:      "gpt-3.5-turbo",
	Claude:      "claude-3-haiku-20240307",
}

// ParseProvider maps user input to a Provider. Matching is case-insensitive
// and an empty string means Auto.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == "" || p == Auto {
		return Auto, nil
	}
	if !p.Known() {
		return p, fmt.Errorf("%w: %s", ErrUnknownProvider, s)
	}
	return p, nil
}

// Known reports whether p is one of the supported backends.
func (p Provider) Known() bool {
	_, ok := defaultModels[p]
	return ok
}

// Free reports whether the provider has a no-cost tier or runs locally.
func (p Provider) Free() bool {
	switch p {
	case Gemini, Groq, Ollama, HuggingFace:
		return true
	}
	return false
}

// DefaultModel returns the model used when neither the request nor the
// configuration names one.
func (p Provider) DefaultModel() string {
	return defaultModels[p]
}

func (p Provider) String() string {
	return string(p)
}
