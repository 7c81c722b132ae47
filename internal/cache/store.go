package cache

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/util"
)

// ErrMiss is returned by Get when no live entry exists.
var ErrMiss = errors.New("cache miss")

// Store keeps validated reports keyed by blog URL.
type Store interface {
	Get(ctx context.Context, key string) (report.Result, error)
	Put(ctx context.Context, key, blogURL string, res report.Result, ttl time.Duration) error
	Purge(ctx context.Context) (int64, error)
}

// Key derives the cache key for a blog URL. Scheme and host are
// case-insensitive and a trailing slash or fragment does not matter.
func Key(blogURL string) string {
	normalized := strings.TrimSpace(blogURL)
	if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		u.Fragment = ""
		u.Path = strings.TrimRight(u.Path, "/")
		normalized = u.String()
	}
	return util.HashKey(normalized)
}
