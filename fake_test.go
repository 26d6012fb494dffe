package uniai

import (
	"context"
	"iter"

	"github.com/xostack/uniai/llm"
)

// fakeClient records calls and replays a canned answer.
type fakeClient struct {
	name     string
	text     string
	model    string
	usage    llm.Usage
	err      error
	panicMsg string

	calls      int
	lastPrompt string
	lastOpts   llm.Options
	closed     bool
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return llm.Completion{Model: f.model, Text: f.text, Usage: f.usage}, nil
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	return f.Generate(ctx, messages[len(messages)-1].Content, opts)
}

func (f *fakeClient) ProviderName() string { return f.name }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

// fakeStreamer adds incremental delivery on top of fakeClient.
type fakeStreamer struct {
	fakeClient
	chunks    []string
	streamErr error
}

func (f *fakeStreamer) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.calls++
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.panicMsg != "" {
			panic(f.panicMsg)
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}
