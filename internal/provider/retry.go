package provider

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/telemetry"
)

const defaultRetryDelay = 300 * time.Millisecond

type retryingProvider struct {
	base  Provider
	delay time.Duration
}

// WithRetry retries base once after delay when the first call fails with a
// transient error. A non-positive delay uses 300ms.
func WithRetry(base Provider, delay time.Duration) Provider {
	if base == nil {
		return nil
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retryingProvider{base: base, delay: delay}
}

func (r retryingProvider) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	res, err := r.base.Analyze(ctx, blogURL)
	if err == nil || !ShouldRetry(err) {
		return res, err
	}

	telemetry.Warn("provider.retry", map[string]any{
		"attempt":  1,
		"blog_url": blogURL,
		"error":    err.Error(),
	})
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return report.Result{}, ctx.Err()
	}

	return r.base.Analyze(ctx, blogURL)
}

// ShouldRetry reports whether err looks transient: timeouts, 5xx responses
// and dropped connections.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}
