package completion

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/sells-group/claims-cli/internal/resilience"
)

// Guarded applies the backend call policy to the wrapped completer. Each
// attempt waits on the limiter and passes through the breaker; the policy
// decides timeouts and retries.
type Guarded struct {
	next    Completer
	name    string
	policy  resilience.Policy
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewGuarded wraps next. limiter and breaker may be nil.
func NewGuarded(next Completer, name string, policy resilience.Policy, limiter *rate.Limiter, breaker *resilience.Breaker) *Guarded {
	return &Guarded{
		next:    next,
		name:    name,
		policy:  policy,
		limiter: limiter,
		breaker: breaker,
	}
}

func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	p := g.policy
	if p.OnRetry == nil {
		p.OnRetry = resilience.RetryLogger(g.name, req.Operation)
	}

	return resilience.Do(ctx, p, func(ctx context.Context) (string, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		return resilience.Guard(ctx, g.breaker, func(ctx context.Context) (string, error) {
			return g.next.Complete(ctx, req)
		})
	})
}
