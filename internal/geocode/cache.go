package geocode

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/ukydev/safe-route/internal/models"
)

// Cached memoizes successful lookups of another Geocoder for ttl.
type Cached struct {
	inner Geocoder
	store *cache.Cache
}

// NewCached wraps inner. A non-positive ttl disables caching.
func NewCached(inner Geocoder, ttl time.Duration) Geocoder {
	if ttl <= 0 {
		return inner
	}
	return &Cached{inner: inner, store: cache.New(ttl, 2*ttl)}
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

func (c *Cached) Geocode(ctx context.Context, query string) ([]models.Candidate, error) {
	key := cacheKey(query)
	if v, ok := c.store.Get(key); ok {
		return v.([]models.Candidate), nil
	}
	candidates, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store.SetDefault(key, candidates)
	return candidates, nil
}
