// Package llm defines the contract shared by every provider adapter.
//
// Adapters live in their own packages (gemini, openai, claude, groq,
// huggingface, ollama) and only depend on this package, so the root uniai
// package can construct any of them without an import cycle.
package llm

import (
	"context"
	"iter"
	"strings"
)

// Role tags a message in a conversation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Options carries the per-call generation parameters.
//
// Adapters apply the fields their backend supports and ignore the rest.
// An empty Model means "use the model the client was built with".
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Usage holds token counts reported by a backend. All fields stay zero
// when the backend does not report usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add returns the field-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Completion is what an adapter returns for one successful call.
type Completion struct {
	Model string
	Text  string
	Usage Usage
}

// Client is the interface that all provider adapters implement.
//
// Adapters perform exactly one network call per method invocation and
// return the backend error unchanged (wrapped with context). They do not
// retry and they do not convert errors into results; that is the
// dispatcher's job.
type Client interface {
	// Generate sends a single prompt and returns the generated text.
	Generate(ctx context.Context, prompt string, opts Options) (Completion, error)

	// Chat submits the whole transcript and returns the assistant reply.
	// The last message is expected to be the user's turn.
	Chat(ctx context.Context, messages []Message, opts Options) (Completion, error)

	// ProviderName returns the lowercase provider identifier, e.g. "groq".
	ProviderName() string

	// Close releases resources held by the underlying SDK client.
	Close() error
}

// Streamer is implemented by adapters whose backend can deliver a response
// incrementally. The sequence is finite and forward-only: it ends when the
// backend signals completion, or after the first error.
type Streamer interface {
	Stream(ctx context.Context, prompt string, opts Options) iter.Seq2[string, error]
}

// ModelOr returns model if set, otherwise fallback.
func ModelOr(model, fallback string) string {
	if strings.TrimSpace(model) == "" {
		return fallback
	}
	return model
}

// Flatten renders a transcript as plain text for backends that only take a
// single prompt. The result ends with an open assistant turn.
func Flatten(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			b.WriteString("System: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// Once adapts a single result into a one-element stream.
func Once(text string, err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield(text, err)
	}
}
