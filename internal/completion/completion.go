// Package completion adapts external text-completion backends (Anthropic,
// OpenAI-compatible APIs) to the single call the model-backed extraction
// strategy needs, and layers rate limiting, retries and caching over them.
package completion

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/resilience"
	"github.com/sells-group/claims-cli/pkg/anthropic"
)

// Request is one prompt sent to a backend.
type Request struct {
	// Operation names the call for logs and usage attribution, e.g.
	// "classify" or "extract:bill".
	Operation string
	System    string
	Prompt    string
}

// Completer returns the backend's free-form text reply to a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the configured backend wrapped in the guard and cache layers.
// A missing key for the selected provider is a configuration error.
func New(cfg *config.Config) (Completer, error) {
	var (
		base Completer
		name = cfg.Backend.Provider
	)
	switch name {
	case config.ProviderAnthropic:
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("completion: anthropic.key is required for the anthropic backend")
		}
		client := anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.BaseURL)
		base = NewAnthropic(client, cfg.Anthropic.Model, int64(cfg.Backend.MaxTokens))
	case config.ProviderOpenAI:
		if cfg.OpenAI.Key == "" {
			return nil, eris.New("completion: openai.key is required for the openai backend")
		}
		base = NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.Backend.MaxTokens)
	default:
		return nil, eris.Errorf("completion: unknown backend provider %q", name)
	}

	policy := resilience.DefaultPolicy()
	policy.Retries = cfg.Backend.Retries
	policy.AttemptTimeout = time.Duration(cfg.Backend.TimeoutSecs) * time.Second

	var limiter *rate.Limiter
	if cfg.Backend.RequestsPerSecond > 0 {
		burst := int(cfg.Backend.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Backend.RequestsPerSecond), burst)
	}

	breaker := resilience.NewBreaker(cfg.Backend.BreakerThreshold,
		time.Duration(cfg.Backend.BreakerCooldownSecs)*time.Second)

	var c Completer = NewGuarded(base, name, policy, limiter, breaker)
	if cfg.Backend.CacheTTLMins > 0 {
		c = NewCached(c, time.Duration(cfg.Backend.CacheTTLMins)*time.Minute)
	}
	return c, nil
}
