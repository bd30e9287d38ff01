package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/resilience"
	"github.com/sells-group/claims-cli/pkg/anthropic"
)

type scripted struct {
	calls   atomic.Int32
	replies []func() (string, error)
}

func (s *scripted) Complete(_ context.Context, _ Request) (string, error) {
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.replies) {
		n = len(s.replies) - 1
	}
	return s.replies[n]()
}

func ok(v string) func() (string, error) {
	return func() (string, error) { return v, nil }
}

func fail(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

func fastPolicy(retries int) resilience.Policy {
	return resilience.Policy{Retries: retries, Backoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestGuarded_RetriesTransientOnce(t *testing.T) {
	next := &scripted{replies: []func() (string, error){
		fail(resilience.NewTransientError(errors.New("overloaded"), 529)),
		ok(`{"type":"bill"}`),
	}}
	g := NewGuarded(next, "test", fastPolicy(1), nil, nil)

	out, err := g.Complete(context.Background(), Request{Operation: "classify", Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"bill"}`, out)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestGuarded_PermanentErrorNotRetried(t *testing.T) {
	next := &scripted{replies: []func() (string, error){fail(errors.New("bad request"))}}
	g := NewGuarded(next, "test", fastPolicy(3), nil, nil)

	_, err := g.Complete(context.Background(), Request{Operation: "classify"})
	require.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestGuarded_RetryBudgetExhausted(t *testing.T) {
	next := &scripted{replies: []func() (string, error){
		fail(resilience.NewTransientError(errors.New("unavailable"), 503)),
	}}
	g := NewGuarded(next, "test", fastPolicy(1), nil, nil)

	_, err := g.Complete(context.Background(), Request{Operation: "extract:bill"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestGuarded_BreakerFailsFast(t *testing.T) {
	next := &scripted{replies: []func() (string, error){
		fail(resilience.NewTransientError(errors.New("unavailable"), 503)),
	}}
	breaker := resilience.NewBreaker(2, time.Hour)
	g := NewGuarded(next, "test", fastPolicy(0), nil, breaker)

	for range 2 {
		_, err := g.Complete(context.Background(), Request{Operation: "classify"})
		require.Error(t, err)
	}
	assert.True(t, breaker.Open())

	_, err := g.Complete(context.Background(), Request{Operation: "classify"})
	assert.ErrorIs(t, err, resilience.ErrBackendUnavailable)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestGuarded_CanceledContext(t *testing.T) {
	next := &scripted{replies: []func() (string, error){
		fail(resilience.NewTransientError(errors.New("unavailable"), 503)),
	}}
	g := NewGuarded(next, "test", fastPolicy(5), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Complete(ctx, Request{Operation: "classify"})
	require.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCached_HitsSkipBackend(t *testing.T) {
	next := &scripted{replies: []func() (string, error){ok("first"), ok("second")}}
	c := NewCached(next, time.Minute)

	req := Request{Operation: "classify", System: "sys", Prompt: "text"}
	out1, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	out2, err := c.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "first", out1)
	assert.Equal(t, "first", out2)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, c.Len())

	// A different operation is a different key.
	out3, err := c.Complete(context.Background(), Request{Operation: "extract:bill", System: "sys", Prompt: "text"})
	require.NoError(t, err)
	assert.Equal(t, "second", out3)
	assert.Equal(t, 2, c.Len())
}

func TestCached_ErrorsNotCached(t *testing.T) {
	next := &scripted{replies: []func() (string, error){fail(errors.New("boom")), ok("later")}}
	c := NewCached(next, time.Minute)

	_, err := c.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	out, err := c.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "later", out)
}

func TestNew_RequiresProviderKey(t *testing.T) {
	cfg := &config.Config{Backend: config.BackendConfig{Provider: config.ProviderAnthropic}}
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Backend.Provider = config.ProviderOpenAI
	_, err = New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key")

	cfg.Backend.Provider = "cohere"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend provider")
}

func TestNew_WrapsBackendInCache(t *testing.T) {
	cfg := &config.Config{
		Backend:   config.BackendConfig{Provider: config.ProviderAnthropic, CacheTTLMins: 5, Retries: 1, TimeoutSecs: 5},
		Anthropic: config.AnthropicConfig{Key: "sk-ant", Model: "claude-haiku-4-5-20251001"},
	}
	c, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, c)

	cfg.Backend.CacheTTLMins = 0
	c, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Guarded{}, c)
}

type fakeAnthropic struct {
	req  anthropic.MessageRequest
	resp *anthropic.MessageResponse
	err  error
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestAnthropic_Complete(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{Text: `{"type":"id_card"}`}}
	a := NewAnthropic(fake, "claude-haiku-4-5-20251001", 0)

	out, err := a.Complete(context.Background(), Request{Operation: "classify", System: "sys", Prompt: "card"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"id_card"}`, out)

	assert.Equal(t, int64(1024), fake.req.MaxTokens)
	assert.Zero(t, fake.req.Temperature)
	assert.Equal(t, "sys", fake.req.System)
	assert.True(t, fake.req.CacheSystem)
	assert.Equal(t, "card", fake.req.Prompt)
}

func TestAnthropic_PermanentError(t *testing.T) {
	fake := &fakeAnthropic{err: errors.New("invalid request")}
	a := NewAnthropic(fake, "m", 256)

	_, err := a.Complete(context.Background(), Request{Operation: "classify"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "anthropic classify")
}

func TestOpenAI_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"type\":\"bill\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL, "gpt-4o-mini", 256)
	out, err := o.Complete(context.Background(), Request{Operation: "classify", System: "sys", Prompt: "bill text"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"bill"}`, out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs, _ := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAI_RateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL, "", 0)
	_, err := o.Complete(context.Background(), Request{Operation: "classify", Prompt: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL, "gpt-4o-mini", 0)
	_, err := o.Complete(context.Background(), Request{Operation: "classify", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
