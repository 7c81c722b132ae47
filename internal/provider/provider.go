package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-analyzer-backend/internal/report"
)

// Provider produces a report for a blog URL. Implementations may block; the
// caller is responsible for running them off its own goroutine.
type Provider interface {
	Analyze(ctx context.Context, blogURL string) (report.Result, error)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, blogURL string) (report.Result, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	return f(ctx, blogURL)
}

// ErrTimeout is returned by WithTimeout when the deadline expires first.
var ErrTimeout = errors.New("analysis timed out")

// ErrNotConfigured is returned by Placeholder.
var ErrNotConfigured = errors.New("analysis provider not configured")

// Placeholder fails every call; it stands in when no provider is configured.
type Placeholder struct{}

// Analyze returns ErrNotConfigured.
func (Placeholder) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	_ = ctx
	_ = blogURL
	return report.Result{}, ErrNotConfigured
}

type timeoutProvider struct {
	base    Provider
	timeout time.Duration
}

// WithTimeout bounds every call to base. A non-positive timeout returns base
// unchanged.
func WithTimeout(base Provider, timeout time.Duration) Provider {
	if base == nil || timeout <= 0 {
		return base
	}
	return timeoutProvider{base: base, timeout: timeout}
}

func (t timeoutProvider) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		res report.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := t.base.Analyze(ctx, blogURL)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return report.Result{}, fmt.Errorf("%w after %s: %v", ErrTimeout, t.timeout, out.err)
		}
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return report.Result{}, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return report.Result{}, ctx.Err()
	}
}
