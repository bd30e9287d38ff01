package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrBackendUnavailable is returned while the breaker is open.
var ErrBackendUnavailable = eris.New("resilience: backend unavailable, breaker open")

// Breaker fails calls fast after a run of consecutive transient failures, so
// a dead backend does not cost every document in a claim a full retry budget.
// After the cooldown a single probe call is let through; its outcome closes or
// reopens the breaker.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker returns a breaker that opens after threshold consecutive
// transient failures. A threshold of zero or less disables it.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Guard runs fn unless b is open. A nil breaker always runs fn.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	probe, err := b.allow()
	if err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err, probe)
	return val, err
}

// Open reports whether the breaker is rejecting calls right now.
func (b *Breaker) Open() bool {
	if b == nil || b.threshold <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return false
	}
	return b.probing || b.now().Sub(b.openedAt) < b.cooldown
}

func (b *Breaker) allow() (probe bool, err error) {
	if b == nil || b.threshold <= 0 {
		return false, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return false, nil
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return false, ErrBackendUnavailable
	}
	b.probing = true
	return true, nil
}

// record feeds an outcome into the breaker. Only transient failures count; a
// rejected request says nothing about backend health.
func (b *Breaker) record(err error, probe bool) {
	if b == nil || b.threshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
	}
	if err == nil || !IsTransient(err) {
		b.failures = 0
		return
	}
	b.failures++
	if probe || b.failures >= b.threshold {
		b.failures = b.threshold
		b.openedAt = b.now()
	}
}
