package uniai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/xostack/uniai/config"
	"github.com/xostack/uniai/llm"
	"github.com/xostack/uniai/ollama"
)

// Entry records the discovery outcome for one provider.
type Entry struct {
	Provider  Provider
	Client    llm.Client
	Available bool
	// Reason explains why an unavailable provider was skipped.
	Reason string
}

// Registry is the set of providers discovered at startup. It is not mutated
// after construction.
type Registry struct {
	entries []Entry
}

// Registered builds an available entry around an existing client.
func Registered(p Provider, client llm.Client) Entry {
	return Entry{Provider: p, Client: client, Available: client != nil}
}

// Unavailable builds an entry for a provider that could not be set up.
func Unavailable(p Provider, reason string) Entry {
	return Entry{Provider: p, Reason: reason}
}

// NewRegistry orders entries by Priority. Unknown providers are kept after
// the known ones; a later entry for the same provider replaces an earlier one.
func NewRegistry(entries ...Entry) *Registry {
	byProvider := make(map[Provider]Entry, len(entries))
	var order []Provider
	for _, e := range entries {
		if _, seen := byProvider[e.Provider]; !seen {
			order = append(order, e.Provider)
		}
		byProvider[e.Provider] = e
	}

	rank := func(p Provider) int {
		if i := slices.Index(Priority, p); i >= 0 {
			return i
		}
		return len(Priority)
	}
	slices.SortStableFunc(order, func(a, b Provider) int { return rank(a) - rank(b) })

	r := &Registry{entries: make([]Entry, 0, len(order))}
	for _, p := range order {
		r.entries = append(r.entries, byProvider[p])
	}
	return r
}

// Entries returns every discovery outcome in priority order.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Available returns the usable providers in priority order.
func (r *Registry) Available() []Provider {
	var out []Provider
	for _, e := range r.entries {
		if e.Available {
			out = append(out, e.Provider)
		}
	}
	return out
}

// Lookup returns the entry for p.
func (r *Registry) Lookup(p Provider) (Entry, bool) {
	for _, e := range r.entries {
		if e.Provider == p {
			return e, true
		}
	}
	return Entry{}, false
}

// Close closes every registered client.
func (r *Registry) Close() error {
	var errs []error
	for _, e := range r.entries {
		if e.Client == nil {
			continue
		}
		if err := e.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", e.Provider, err))
		}
	}
	return errors.Join(errs...)
}

// Discover checks every provider in Priority order and builds a client for
// each one that has a credential. Ollama must also answer its probe. A
// provider whose setup fails or panics is recorded as unavailable; the rest
// are unaffected.
func Discover(ctx context.Context, cfg config.Config, debugMode bool) *Registry {
	probeTimeout := time.Duration(cfg.ProbeTimeoutSeconds) * time.Second
	if probeTimeout <= 0 {
		probeTimeout = config.DefaultProbeTimeoutSeconds * time.Second
	}

	entries := make([]Entry, 0, len(Priority))
	for _, p := range Priority {
		entry := discoverOne(ctx, p, cfg, probeTimeout, debugMode)
		if !entry.Available && debugMode {
			log.Printf("Provider %s unavailable: %s", p, entry.Reason)
		}
		entries = append(entries, entry)
	}
	return NewRegistry(entries...)
}

func discoverOne(ctx context.Context, p Provider, cfg config.Config, probeTimeout time.Duration, debugMode bool) (entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Setting up provider %s panicked: %v", p, r)
			entry = Unavailable(p, fmt.Sprintf("setup panicked: %v", r))
		}
	}()

	if err := cfg.RequireCredential(string(p)); err != nil {
		return Unavailable(p, err.Error())
	}

	if p == Ollama {
		llmCfg, _ := cfg.GetLLMConfig(string(Ollama))
		if err := ollama.Probe(ctx, llmCfg.BaseURL, probeTimeout); err != nil {
			return Unavailable(p, err.Error())
		}
	}

	client, err := GetClient(p, cfg, debugMode)
	if err != nil {
		log.Printf("Failed to set up provider %s: %v", p, err)
		return Unavailable(p, err.Error())
	}
	return Registered(p, client)
}
