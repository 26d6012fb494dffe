package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/xostack/uniai"
	"github.com/xostack/uniai/config"
	"github.com/xostack/uniai/llm"
)

// State is the lifecycle of a Session.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}

var (
	// ErrSessionClosed is returned by Send after the session terminated.
	ErrSessionClosed = errors.New("chat session is closed")

	// ErrNotReady is returned by Send on a zero Session.
	ErrNotReady = errors.New("chat session is not initialized")

	// ErrInterrupted reports that the user aborted input (Ctrl+C).
	ErrInterrupted = errors.New("interrupted")
)

// DefaultSystemPrompt seeds new sessions.
const DefaultSystemPrompt = "You are a helpful assistant."

// Settings configures a Session.
type Settings struct {
	SystemPrompt string
	// Options are passed to every Chat call.
	Options llm.Options
	// MaxHistory caps the transcript (seed excluded); 0 keeps everything.
	MaxHistory int
	DebugMode  bool
}

// Summary is the accounting printed when a session ends.
type Summary struct {
	Messages int
	Turns    int
	Usage    llm.Usage
}

// Session drives one conversation against a single client.
type Session struct {
	client     llm.Client
	transcript *Transcript
	opts       llm.Options
	usage      llm.Usage
	turns      int
	state      State
	debugMode  bool
}

// NewSession seeds the transcript and returns a Ready session.
func NewSession(client llm.Client, settings Settings) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("chat session requires a client")
	}
	return &Session{
		client:     client,
		transcript: NewTranscript(settings.SystemPrompt, settings.MaxHistory),
		opts:       settings.Options,
		state:      StateReady,
		debugMode:  settings.DebugMode,
	}, nil
}

// Open validates the provider's credential, builds its client and starts a
// session. Generation defaults and the history cap come from cfg.
func Open(provider uniai.Provider, cfg config.Config, systemPrompt string, debugMode bool) (*Session, error) {
	if provider == "" || provider == uniai.Auto {
		return nil, fmt.Errorf("chat needs a concrete provider, got '%s'", provider)
	}
	if err := cfg.RequireCredential(string(provider)); err != nil {
		return nil, err
	}

	client, err := uniai.GetClient(provider, cfg, debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	llmCfg, _ := cfg.GetLLMConfig(string(provider))
	return NewSession(client, Settings{
		SystemPrompt: systemPrompt,
		Options: llm.Options{
			Model:       llmCfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		MaxHistory: cfg.MaxHistory,
		DebugMode:  debugMode,
	})
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	return s.state
}

// Provider returns the backend name.
func (s *Session) Provider() string {
	if s.client == nil {
		return ""
	}
	return s.client.ProviderName()
}

// Send runs one turn. The user message is appended before the call and stays
// on failure; the reply is appended and usage counted only on success.
func (s *Session) Send(ctx context.Context, text string) (completion llm.Completion, err error) {
	switch s.state {
	case StateTerminated:
		return llm.Completion{}, ErrSessionClosed
	case StateUninitialized:
		return llm.Completion{}, ErrNotReady
	}

	s.transcript.Append(llm.RoleUser, text)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Provider %s panicked: %v", s.client.ProviderName(), r)
			completion, err = llm.Completion{}, fmt.Errorf("%s client panicked: %v", s.client.ProviderName(), r)
		}
	}()

	if s.debugMode {
		log.Printf("Sending %d messages to %s", s.transcript.Len(), s.client.ProviderName())
	}

	completion, err = s.client.Chat(ctx, s.transcript.Messages(), s.opts)
	if err != nil {
		return llm.Completion{}, err
	}

	s.transcript.Append(llm.RoleAssistant, completion.Text)
	s.usage = s.usage.Add(completion.Usage)
	s.turns++
	s.transcript.Trim()
	return completion, nil
}

// Clear resets the transcript to the seed message and zeroes usage.
func (s *Session) Clear() {
	if s.transcript == nil {
		return
	}
	s.transcript.Clear()
	s.usage = llm.Usage{}
}

// History returns a copy of the transcript.
func (s *Session) History() []llm.Message {
	if s.transcript == nil {
		return nil
	}
	return s.transcript.Messages()
}

// MessageCount is the transcript length including the seed.
func (s *Session) MessageCount() int {
	if s.transcript == nil {
		return 0
	}
	return s.transcript.Len()
}

// ConversationCount is the number of user and assistant messages, the seed
// excluded.
func (s *Session) ConversationCount() int {
	if s.transcript == nil {
		return 0
	}
	return s.transcript.ConversationLen()
}

// Usage is the running token total since start or the last Clear.
func (s *Session) Usage() llm.Usage {
	return s.usage
}

// Turns counts successful exchanges.
func (s *Session) Turns() int {
	return s.turns
}

// Summary snapshots the counters.
func (s *Session) Summary() Summary {
	return Summary{Messages: s.MessageCount(), Turns: s.turns, Usage: s.usage}
}

// Close terminates the session and releases the client. It is safe to call
// more than once.
func (s *Session) Close() (Summary, error) {
	summary := s.Summary()
	if s.state == StateTerminated {
		return summary, nil
	}
	s.state = StateTerminated
	if s.client != nil {
		return summary, s.client.Close()
	}
	return summary, nil
}
