package providers

import "time"

// RetryConfig governs how a Provider retries transient HTTP failures
// (5xx, 429, connection errors) against its upstream API.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the standard backoff used by all providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
	}
}

// Backoff returns the delay before retry attempt n (0-indexed), capped at MaxDelay.
func (rc RetryConfig) Backoff(n int) time.Duration {
	d := rc.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d > rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	return d
}

// Registry resolves a named provider (e.g. "anthropic", "openai", "dashscope")
// to a configured Provider instance, used by the session orchestrator and the
// profiler's LLM router to pick the active LLM Provider collaborator.
type Registry struct {
	providers map[string]Provider
	def       string
}

// NewRegistry builds a Registry from a name->Provider map plus a default name.
func NewRegistry(def string, providers map[string]Provider) *Registry {
	return &Registry{providers: providers, def: def}
}

// Get returns the named provider, or the registry default if name is empty.
func (r *Registry) Get(name string) (Provider, bool) {
	if name == "" {
		name = r.def
	}
	p, ok := r.providers[name]
	return p, ok
}

// Default returns the registry's default provider, or nil if none is configured.
func (r *Registry) Default() Provider {
	p, _ := r.Get("")
	return p
}
