package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 529), true},
		{"wrapped with fmt", fmt.Errorf("extract: %w", NewTransientError(errors.New("rate limited"), 429)), true},
		{"wrapped with eris", eris.Wrap(NewTransientError(errors.New("unavailable"), 503), "classify"), true},
		{"bad request", errors.New("invalid request: max_tokens too large"), false},
		{"connection reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"connection refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"network timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"dns not found", &net.DNSError{IsNotFound: true, Err: "no such host"}, false},
		{"broken pipe message", errors.New("write: broken pipe"), true},
		{"tls message", errors.New("net/http: TLS handshake timeout"), true},
		{"unexpected eof message", errors.New("read: unexpected EOF"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 413, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("upstream overloaded")
	te := NewTransientError(inner, 529)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "upstream overloaded", te.Error())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 429, StatusCode(eris.Wrap(NewTransientError(errors.New("slow down"), 429), "extract")))
	assert.Equal(t, 0, StatusCode(NewTransientError(errors.New("attempt timed out"), 0)))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, 0, StatusCode(nil))
}
