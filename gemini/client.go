// Package gemini provides an LLM client for Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/xostack/uniai/llm"
)

const (
	defaultGeminiModel = "gemini-1.5-flash-latest"
	providerName       = "gemini"
	modelRole          = "model"
)

// Client implements the llm.Client interface for Gemini.
//
// The model is fixed when the client is created; the per-request model
// override in llm.Options is ignored.
type Client struct {
	genaiClient    *genai.Client
	modelName      string
	requestTimeout time.Duration
	debugMode      bool
}

// NewClient creates a new Gemini client.
// It requires a context for initialization (can be context.Background()),
// the API key, an optional model name (defaults to gemini-1.5-flash-latest),
// a per-call timeout (<= 0 for none), and a debugMode flag.
// Extra client options, such as option.WithEndpoint, are passed to genai.
func NewClient(ctx context.Context, apiKey string, modelOverride string, requestTimeoutSeconds int, debugMode bool, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	genaiClient, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		log.Printf("Error initializing Google GenAI client: %v. Make sure your API key is valid and has permissions.", err)
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelToUse := llm.ModelOr(modelOverride, defaultGeminiModel)
	if debugMode {
		log.Printf("Using Gemini model: %s", modelToUse)
	}

	var timeout time.Duration
	if requestTimeoutSeconds > 0 {
		timeout = time.Duration(requestTimeoutSeconds) * time.Second
	}

	return &Client{
		genaiClient:    genaiClient,
		modelName:      modelToUse,
		requestTimeout: timeout,
		debugMode:      debugMode,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout > 0 {
		return context.WithTimeout(ctx, c.requestTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) model(opts llm.Options) *genai.GenerativeModel {
	model := c.genaiClient.GenerativeModel(c.modelName)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	return model
}

// Generate sends the prompt to the Gemini model and returns the text response.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	if c.genaiClient == nil {
		return llm.Completion{}, fmt.Errorf("Gemini client not initialized")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.model(opts).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to generate content from Gemini: %w", err)
	}
	return c.completion(resp)
}

// Chat replays the transcript as chat history and sends the last message.
// System messages become the model's system instruction.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.genaiClient == nil {
		return llm.Completion{}, fmt.Errorf("Gemini client not initialized")
	}

	system, history, last, err := splitTranscript(messages)
	if err != nil {
		return llm.Completion{}, err
	}

	model := c.model(opts)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	session := model.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("failed to send chat message to Gemini: %w", err)
	}
	return c.completion(resp)
}

// Stream yields text as Gemini produces it.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.genaiClient == nil {
			yield("", fmt.Errorf("Gemini client not initialized"))
			return
		}

		ctx, cancel := c.withTimeout(ctx)
		defer cancel()

		it := c.model(opts).GenerateContentStream(ctx, genai.Text(prompt))
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("Gemini stream failed: %w", err))
				return
			}
			text, _ := responseText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (c *Client) completion(resp *genai.GenerateContentResponse) (llm.Completion, error) {
	text, err := responseText(resp)
	if err != nil {
		return llm.Completion{}, err
	}
	if text == "" {
		return llm.Completion{}, fmt.Errorf("Gemini response contained no usable text content")
	}

	completion := llm.Completion{Model: c.modelName, Text: strings.TrimSpace(text)}
	if resp.UsageMetadata != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}

// responseText concatenates the text parts of the first candidate. Blocked
// or empty responses are reported as errors.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("Gemini response was empty or malformed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("Gemini content generation blocked due to safety settings")
		}
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("Gemini prompt blocked: %s", resp.PromptFeedback.BlockReason.String())
		}
		return "", fmt.Errorf("Gemini response was empty or malformed")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// splitTranscript turns a transcript into Gemini's shape: joined system text,
// prior turns as history, and the final message to send.
func splitTranscript(messages []llm.Message) (string, []*genai.Content, string, error) {
	var system []string
	var turns []llm.Message
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return "", nil, "", fmt.Errorf("Gemini chat requires at least one user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := string(llm.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = modelRole
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(system, "\n"), history, turns[len(turns)-1].Content, nil
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Close cleans up the genaiClient.
func (c *Client) Close() error {
	if c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}
