// Package ollama provides an LLM client for a locally hosted Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/xostack/uniai/llm"
)

const (
	defaultOllamaModel = "llama3"
	providerName       = "ollama"
	tagsAPIPath        = "/api/tags"
)

// errStopped ends a streaming callback early when the consumer stops reading.
var errStopped = errors.New("stream consumer stopped")

// Client implements the llm.Client interface for Ollama.
type Client struct {
	api       *api.Client
	baseURL   string // e.g., "http://localhost:11434"
	modelName string
	debugMode bool
}

// NewClient creates a new Ollama client.
// baseURL is the address of the Ollama server (e.g., "http://localhost:11434").
// modelOverride is an optional model name to use instead of the default.
// requestTimeoutSeconds <= 0 leaves generation calls unbounded.
func NewClient(baseURL string, modelOverride string, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	parsedURL, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	modelToUse := llm.ModelOr(modelOverride, defaultOllamaModel)
	if debugMode {
		log.Printf("Using Ollama model: %s", modelToUse)
	}

	httpClient := &http.Client{}
	if requestTimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(requestTimeoutSeconds) * time.Second
	}

	return &Client{
		api:       api.NewClient(parsedURL, httpClient),
		baseURL:   parsedURL.String(),
		modelName: modelToUse,
		debugMode: debugMode,
	}, nil
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("Ollama base URL is required")
	}
	parsedURL, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", baseURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("Ollama base URL scheme must be http or https, got '%s'", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("Ollama base URL '%s' has no host", baseURL)
	}
	parsedURL.Path = strings.TrimSuffix(parsedURL.Path, "/")
	return parsedURL, nil
}

// Probe checks that an Ollama server answers GET /api/tags with 200 OK
// within timeout.
func Probe(ctx context.Context, baseURL string, timeout time.Duration) error {
	parsedURL, err := parseBaseURL(baseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String()+tagsAPIPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama server at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server at %s responded with status %s", baseURL, resp.Status)
	}
	return nil
}

func (c *Client) options(opts llm.Options) map[string]any {
	options := map[string]any{"temperature": opts.Temperature}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	return options
}

func usageOf(m api.Metrics) llm.Usage {
	return llm.Usage{
		PromptTokens:     m.PromptEvalCount,
		CompletionTokens: m.EvalCount,
		TotalTokens:      m.PromptEvalCount + m.EvalCount,
	}
}

// Generate sends the prompt to /api/generate and returns the completion.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	if c.api == nil {
		return llm.Completion{}, fmt.Errorf("Ollama client not initialized")
	}

	stream := false
	req := &api.GenerateRequest{
		Model:   llm.ModelOr(opts.Model, c.modelName),
		Prompt:  prompt,
		Stream:  &stream,
		Options: c.options(opts),
	}

	var text strings.Builder
	completion := llm.Completion{Model: req.Model}
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Done {
			completion.Usage = usageOf(resp.Metrics)
			if resp.Model != "" {
				completion.Model = resp.Model
			}
		}
		return nil
	})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("Ollama generate request to %s failed: %w", c.baseURL, err)
	}

	completion.Text = strings.TrimSpace(text.String())
	return completion, nil
}

// Chat sends the whole transcript to /api/chat.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.api == nil {
		return llm.Completion{}, fmt.Errorf("Ollama client not initialized")
	}

	stream := false
	req := &api.ChatRequest{
		Model:    llm.ModelOr(opts.Model, c.modelName),
		Messages: toOllamaMessages(messages),
		Stream:   &stream,
		Options:  c.options(opts),
	}

	var text strings.Builder
	completion := llm.Completion{Model: req.Model}
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			completion.Usage = usageOf(resp.Metrics)
		}
		return nil
	})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("Ollama chat request to %s failed: %w", c.baseURL, err)
	}

	completion.Text = strings.TrimSpace(text.String())
	return completion, nil
}

// Stream yields response fragments from /api/generate as they arrive.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.api == nil {
			yield("", fmt.Errorf("Ollama client not initialized"))
			return
		}

		stream := true
		req := &api.GenerateRequest{
			Model:   llm.ModelOr(opts.Model, c.modelName),
			Prompt:  prompt,
			Stream:  &stream,
			Options: c.options(opts),
		}

		err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
			if resp.Response == "" {
				return nil
			}
			if !yield(resp.Response, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield("", fmt.Errorf("Ollama stream from %s failed: %w", c.baseURL, err))
		}
	}
}

// Models lists the models installed on the server.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Ollama models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func toOllamaMessages(messages []llm.Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close is a no-op; the default HTTP transport needs no cleanup.
func (c *Client) Close() error {
	return nil
}
