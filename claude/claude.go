// Package claude provides an LLM client for Anthropic's Messages API.
package claude

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xostack/uniai/llm"
)

const (
	defaultClaudeModel = "claude-3-haiku-20240307"
	providerName       = "claude"
	// DefaultBaseURL is the public Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com"
	// defaultMaxTokens is sent when the caller leaves MaxTokens unset; the
	// Messages API requires a value.
	defaultMaxTokens = 1000
)

// Client implements the llm.Client interface for Claude.
type Client struct {
	sdk       *anthropic.Client
	baseURL   string
	modelName string
	debugMode bool
}

// NewClient creates a new Claude client.
// baseURL may be empty to use DefaultBaseURL.
func NewClient(apiKey, baseURL, modelOverride string, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	modelToUse := llm.ModelOr(modelOverride, defaultClaudeModel)
	if debugMode {
		log.Printf("Using Claude model: %s", modelToUse)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if requestTimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(requestTimeoutSeconds)*time.Second))
	}
	client := anthropic.NewClient(opts...)

	return &Client{
		sdk:       &client,
		baseURL:   baseURL,
		modelName: modelToUse,
		debugMode: debugMode,
	}, nil
}

func (c *Client) params(messages []llm.Message, opts llm.Options) anthropic.MessageNewParams {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msgs, system := toClaudeMessages(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(llm.ModelOr(opts.Model, c.modelName)),
		Messages:    msgs,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(opts.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	return c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
}

// Chat sends the transcript. System messages travel in the request's system
// field rather than the message list.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.sdk == nil {
		return llm.Completion{}, fmt.Errorf("Claude client not initialized")
	}

	params := c.params(messages, opts)
	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("Anthropic API request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		if c.debugMode {
			log.Printf("Claude response details: ID=%s, StopReason=%s", msg.ID, msg.StopReason)
		}
		return llm.Completion{}, fmt.Errorf("Claude response contained no text content")
	}

	return llm.Completion{
		Model: llm.ModelOr(string(msg.Model), string(params.Model)),
		Text:  strings.TrimSpace(text.String()),
		Usage: llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// Stream yields text deltas from a streaming message.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.sdk == nil {
			yield("", fmt.Errorf("Claude client not initialized"))
			return
		}

		stream := c.sdk.Messages.NewStreaming(ctx, c.params([]llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			blockDelta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := blockDelta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			if !yield(textDelta.Text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("Anthropic streaming error: %w", err))
		}
	}
}

func toClaudeMessages(messages []llm.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out, system
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
