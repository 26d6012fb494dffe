// Package groq provides an LLM client for Groq's cloud API.
//
// Groq exposes an OpenAI-compatible chat completions endpoint, so the client
// is built on go-openai with the base URL pointed at Groq.
package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xostack/uniai/llm"
)

const (
	defaultGroqModel = "llama3-70b-8192"
	providerName     = "groq"
	// DefaultBaseURL is Groq's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

// Client implements the llm.Client interface for Groq.
type Client struct {
	api       *openai.Client
	baseURL   string
	modelName string
	debugMode bool
}

// NewClient creates a new Groq client.
// baseURL may be empty to use DefaultBaseURL.
// debugMode controls verbose logging.
func NewClient(apiKey, baseURL, modelOverride string, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	modelToUse := llm.ModelOr(modelOverride, defaultGroqModel)
	if debugMode {
		log.Printf("Using Groq model: %s", modelToUse)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	httpClient := &http.Client{}
	if requestTimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(requestTimeoutSeconds) * time.Second
	}
	cfg.HTTPClient = httpClient

	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		baseURL:   cfg.BaseURL,
		modelName: modelToUse,
		debugMode: debugMode,
	}, nil
}

func (c *Client) request(messages []llm.Message, opts llm.Options) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       llm.ModelOr(opts.Model, c.modelName),
		Messages:    toGroqMessages(messages),
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	return c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
}

// Chat sends the whole transcript to the chat completions endpoint.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.api == nil {
		return llm.Completion{}, fmt.Errorf("groq client not initialized")
	}

	req := c.request(messages, opts)
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("groq API request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		if c.debugMode {
			log.Printf("Groq response details: ID=%s, Model=%s, Usage=%+v", resp.ID, resp.Model, resp.Usage)
		}
		return llm.Completion{}, fmt.Errorf("groq response contained no choices or empty message content")
	}

	return llm.Completion{
		Model: llm.ModelOr(resp.Model, req.Model),
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Stream yields content deltas as Groq produces them.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.api == nil {
			yield("", fmt.Errorf("groq client not initialized"))
			return
		}

		req := c.request([]llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
		req.Stream = true
		stream, err := c.api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("groq stream request failed: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("groq stream failed: %w", err))
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func toGroqMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close is a no-op; go-openai holds no resources between calls.
func (c *Client) Close() error {
	return nil
}
