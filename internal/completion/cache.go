package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Cached memoises successful replies for identical requests.
type Cached struct {
	next  Completer
	cache *gocache.Cache
}

// NewCached wraps next with an in-memory cache whose entries expire after ttl.
func NewCached(next Completer, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Complete(ctx context.Context, req Request) (string, error) {
	key := cacheKey(req)
	if v, ok := c.cache.Get(key); ok {
		zap.L().Debug("completion: cache hit", zap.String("operation", req.Operation))
		return v.(string), nil
	}

	out, err := c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, out)
	return out, nil
}

// Len is the number of live cache entries.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Operation))
	h.Write([]byte{0})
	h.Write([]byte(req.System))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}
