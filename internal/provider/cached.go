package provider

import (
	"context"
	"errors"
	"time"

	"blog-analyzer-backend/internal/cache"
	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/metrics"
	"blog-analyzer-backend/internal/shared/telemetry"
)

type cachedProvider struct {
	base  Provider
	store cache.Store
	ttl   time.Duration
}

// Cached serves repeat URLs from store and records fresh reports for ttl.
// Only results that pass validation are stored. Cache failures fall through
// to base.
func Cached(base Provider, store cache.Store, ttl time.Duration) Provider {
	if base == nil || store == nil || ttl <= 0 {
		return base
	}
	return cachedProvider{base: base, store: store, ttl: ttl}
}

func (c cachedProvider) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	key := cache.Key(blogURL)
	res, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		metrics.IncCacheHit()
		return res, nil
	case !errors.Is(err, cache.ErrMiss):
		telemetry.Warn("cache.get_failed", map[string]any{
			"blog_url": blogURL,
			"error":    err.Error(),
		})
	}
	metrics.IncCacheMiss()

	res, err = c.base.Analyze(ctx, blogURL)
	if err != nil {
		return report.Result{}, err
	}
	if verr := res.Validate(); verr != nil {
		return res, nil
	}
	if perr := c.store.Put(context.WithoutCancel(ctx), key, blogURL, res, c.ttl); perr != nil {
		telemetry.Warn("cache.put_failed", map[string]any{
			"blog_url": blogURL,
			"error":    perr.Error(),
		})
	}
	return res, nil
}
