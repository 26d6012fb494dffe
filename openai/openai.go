// Package openai provides an LLM client for OpenAI's chat completions API.
package openai

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/xostack/uniai/llm"
)

const (
	defaultOpenAIModel = "gpt-3.5-turbo"
	providerName       = "openai"
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Client implements the llm.Client interface for OpenAI.
type Client struct {
	sdk       *openaisdk.Client
	baseURL   string
	modelName string
	debugMode bool
}

// NewClient creates a new OpenAI client.
// baseURL may be empty to use DefaultBaseURL. The SDK's own retries are
// disabled so each call makes exactly one request.
func NewClient(apiKey, baseURL, modelOverride string, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	modelToUse := llm.ModelOr(modelOverride, defaultOpenAIModel)
	if debugMode {
		log.Printf("Using OpenAI model: %s", modelToUse)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if requestTimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(requestTimeoutSeconds)*time.Second))
	}
	client := openaisdk.NewClient(opts...)

	return &Client{
		sdk:       &client,
		baseURL:   baseURL,
		modelName: modelToUse,
		debugMode: debugMode,
	}, nil
}

func (c *Client) params(messages []llm.Message, opts llm.Options) openaisdk.ChatCompletionNewParams {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(llm.ModelOr(opts.Model, c.modelName)),
		Messages:    toOpenAIMessages(messages),
		Temperature: openaisdk.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(opts.MaxTokens))
	}
	return params
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	return c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
}

// Chat sends the whole transcript and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.sdk == nil {
		return llm.Completion{}, fmt.Errorf("OpenAI client not initialized")
	}

	params := c.params(messages, opts)
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("OpenAI API request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		if c.debugMode {
			log.Printf("OpenAI response details: ID=%s, Model=%s", resp.ID, resp.Model)
		}
		return llm.Completion{}, fmt.Errorf("OpenAI response contained no choices or empty message content")
	}

	return llm.Completion{
		Model: llm.ModelOr(resp.Model, string(params.Model)),
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Stream yields content deltas from a streaming chat completion.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.sdk == nil {
			yield("", fmt.Errorf("OpenAI client not initialized"))
			return
		}

		stream := c.sdk.Chat.Completions.NewStreaming(ctx, c.params([]llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("OpenAI streaming error: %w", err))
		}
	}
}

func toOpenAIMessages(messages []llm.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out[i] = openaisdk.SystemMessage(m.Content)
		case llm.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(m.Content)
		default:
			out[i] = openaisdk.UserMessage(m.Content)
		}
	}
	return out
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
