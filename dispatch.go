package uniai

import (
	"context"
	"fmt"
	"iter"
	"log"

	"github.com/xostack/uniai/config"
	"github.com/xostack/uniai/llm"
)

// Request is one normalized generation request.
type Request struct {
	Prompt string
	// Provider may be Auto or empty to use the configured default.
	Provider Provider
	// Model overrides the provider's model where the adapter supports it.
	Model string
	// Temperature is passed through unchanged; 0.0-1.0 by convention.
	Temperature float64
	// MaxTokens <= 0 falls back to the configured default.
	MaxTokens int
}

// NewRequest returns an auto-routed request with the usual defaults.
func NewRequest(prompt string) Request {
	return Request{
		Prompt:      prompt,
		Provider:    Auto,
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
	}
}

// Result is the normalized outcome of one request. Err is nil on success;
// on failure Text is empty.
type Result struct {
	Provider Provider
	Model    string
	Text     string
	Usage    llm.Usage
	Err      error
}

// Success reports whether the request produced text.
func (r Result) Success() bool {
	return r.Err == nil
}

// Unified dispatches requests to the adapters in a Registry.
type Unified struct {
	registry  *Registry
	cfg       config.Config
	debugMode bool
}

// NewUnified wraps a registry. cfg supplies the default provider and the
// generation defaults.
func NewUnified(registry *Registry, cfg config.Config, debugMode bool) *Unified {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Unified{registry: registry, cfg: cfg, debugMode: debugMode}
}

// FromConfig runs discovery and returns a ready dispatcher.
func FromConfig(ctx context.Context, cfg config.Config, debugMode bool) *Unified {
	return NewUnified(Discover(ctx, cfg, debugMode), cfg, debugMode)
}

// Registry returns the discovery outcome the dispatcher routes over.
func (u *Unified) Registry() *Registry {
	return u.registry
}

// Available lists the usable providers in priority order.
func (u *Unified) Available() []Provider {
	return u.registry.Available()
}

// Close closes every adapter.
func (u *Unified) Close() error {
	return u.registry.Close()
}

// Resolve picks the provider for a request. An empty provider falls back to
// the configured default. Unknown names are rejected before availability is
// considered.
func (u *Unified) Resolve(p Provider) (Provider, llm.Client, error) {
	if p == "" {
		p = Provider(u.cfg.DefaultProvider)
	}
	parsed, err := ParseProvider(string(p))
	if err != nil {
		return parsed, nil, err
	}

	if parsed == Auto {
		available := u.registry.Available()
		if len(available) == 0 {
			return Auto, nil, ErrNoProvider
		}
		parsed = available[0]
	}

	entry, ok := u.registry.Lookup(parsed)
	if !ok || !entry.Available {
		return parsed, nil, fmt.Errorf("%s %w", parsed, ErrUnavailable)
	}
	return parsed, entry.Client, nil
}

func (u *Unified) options(req Request) llm.Options {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = u.cfg.MaxTokens
	}
	return llm.Options{Model: req.Model, Temperature: req.Temperature, MaxTokens: maxTokens}
}

// Generate runs req against exactly one adapter. It never returns a Go
// error: resolution failures, adapter errors and adapter panics all end up
// in Result.Err, and no network call is made when resolution fails.
func (u *Unified) Generate(ctx context.Context, req Request) (res Result) {
	provider, client, err := u.Resolve(req.Provider)
	if err != nil {
		if provider == Auto {
			provider = ""
		}
		return Result{Provider: provider, Err: err}
	}

	model := u.modelFor(provider, req.Model)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Provider %s panicked: %v", provider, r)
			res = Result{Provider: provider, Model: model, Err: fmt.Errorf("%s adapter panicked: %v", provider, r)}
		}
	}()

	if u.debugMode {
		log.Printf("Dispatching request to %s (model %s)", provider, model)
	}

	completion, err := client.Generate(ctx, req.Prompt, u.options(req))
	if err != nil {
		return Result{Provider: provider, Model: model, Err: err}
	}

	return Result{
		Provider: provider,
		Model:    llm.ModelOr(completion.Model, model),
		Text:     completion.Text,
		Usage:    completion.Usage,
	}
}

// Stream resolves the provider like Generate and yields text fragments as
// they arrive. Adapters without streaming yield their whole reply once.
func (u *Unified) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		provider, client, err := u.Resolve(req.Provider)
		if err != nil {
			yield("", err)
			return
		}

		// Panics raised by the consumer's loop body pass through untouched;
		// only adapter panics become errors.
		inConsumer, stopped := false, false
		emit := func(chunk string, err error) bool {
			inConsumer = true
			more := yield(chunk, err)
			inConsumer = false
			stopped = !more
			return more
		}
		defer func() {
			if r := recover(); r != nil {
				if inConsumer {
					panic(r)
				}
				log.Printf("Provider %s panicked while streaming: %v", provider, r)
				if !stopped {
					yield("", fmt.Errorf("%s adapter panicked: %v", provider, r))
				}
			}
		}()

		var seq iter.Seq2[string, error]
		if streamer, ok := client.(llm.Streamer); ok {
			seq = streamer.Stream(ctx, req.Prompt, u.options(req))
		} else {
			completion, err := client.Generate(ctx, req.Prompt, u.options(req))
			seq = llm.Once(completion.Text, err)
		}

		for chunk, err := range seq {
			if !emit(chunk, err) || err != nil {
				return
			}
		}
	}
}

// modelFor reports the model a request will run on before the adapter
// answers: the override where honored, else the configured or default model.
func (u *Unified) modelFor(p Provider, override string) string {
	if override != "" && p != Gemini {
		return override
	}
	if llmCfg, ok := u.cfg.GetLLMConfig(string(p)); ok && llmCfg.Model != "" {
		return llmCfg.Model
	}
	return p.DefaultModel()
}
