package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/metrics"
	"blog-analyzer-backend/internal/shared/telemetry"
)

const subscriberBuffer = 16

// Lifecycle tracks at most one current analysis per session. Every Submit
// supersedes the previous one; only the latest submission may ever change the
// observable state. Superseded provider calls still run to completion and
// their outcome is dropped.
type Lifecycle struct {
	provider  provider.Provider
	sessionID string
	now       func() time.Time

	mu          sync.Mutex
	state       State
	generation  uint64
	subscribers map[int]chan State
	nextSubID   int
	closed      bool

	outstanding sync.WaitGroup
}

// NewLifecycle constructs an idle Lifecycle backed by p.
func NewLifecycle(p provider.Provider, sessionID string) *Lifecycle {
	if p == nil {
		p = provider.Placeholder{}
	}
	l := &Lifecycle{
		provider:    p,
		sessionID:   sessionID,
		now:         func() time.Time { return time.Now().UTC() },
		subscribers: make(map[int]chan State),
	}
	l.state = idleState(l.now())
	return l
}

// State returns the latest observable state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Submit moves the lifecycle to in_flight for req and starts the provider
// call in the background. It never blocks on the provider.
func (l *Lifecycle) Submit(ctx context.Context, req Request) State {
	l.mu.Lock()
	prev := l.state
	l.generation++
	gen := l.generation
	next := inFlightState(uuid.NewString(), req, l.now())
	l.state = next
	l.publishLocked(next)
	l.outstanding.Add(1)
	l.mu.Unlock()

	metrics.IncAnalysisSubmitted()
	l.logTransition(ctx, prev, next, nil)

	go l.run(detachedContext(ctx), gen, next)
	return next
}

// Reset returns the lifecycle to idle. An in-flight call is treated as
// superseded.
func (l *Lifecycle) Reset() State {
	l.mu.Lock()
	prev := l.state
	l.generation++
	next := idleState(l.now())
	l.state = next
	l.publishLocked(next)
	l.mu.Unlock()

	l.logTransition(context.Background(), prev, next, nil)
	return next
}

// Subscribe returns a channel that first receives the current state and then
// every later transition. When a subscriber falls behind, older pending
// states are dropped in favor of newer ones. Call the returned func to stop.
func (l *Lifecycle) Subscribe() (<-chan State, func()) {
	ch := make(chan State, subscriberBuffer)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		ch <- l.state
		close(ch)
		return ch, func() {}
	}
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = ch
	ch <- l.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if sub, ok := l.subscribers[id]; ok {
				delete(l.subscribers, id)
				close(sub)
			}
		})
	}
}

// Await blocks until the state is no longer in_flight or ctx is done.
func (l *Lifecycle) Await(ctx context.Context) (State, error) {
	ch, stop := l.Subscribe()
	defer stop()
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return l.State(), nil
			}
			if st.Status() != StatusInFlight {
				return st, nil
			}
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}
	}
}

// Close resets the lifecycle and closes every subscriber channel.
func (l *Lifecycle) Close() {
	l.Reset()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for id, ch := range l.subscribers {
		delete(l.subscribers, id)
		close(ch)
	}
}

// Wait blocks until every provider call started by Submit has returned,
// including superseded ones.
func (l *Lifecycle) Wait() {
	l.outstanding.Wait()
}

func (l *Lifecycle) run(ctx context.Context, gen uint64, started State) {
	defer l.outstanding.Done()
	req, _ := started.Request()
	res, err := l.analyze(ctx, req)

	completedAt := l.now()
	var next State
	if err != nil {
		next = failedState(started, classifyFailure(err), sanitizeError(err), completedAt)
	} else {
		next = succeededState(started, res, completedAt)
	}

	prev, commitErr := l.commit(gen, next)
	duration := durationMs(started.UpdatedAt(), completedAt)
	if errors.Is(commitErr, errSuperseded) {
		metrics.IncAnalysisSuperseded()
		telemetry.Info("analysis.superseded", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"session_id":  l.sessionID,
			"analysis_id": started.ID(),
			"outcome":     string(next.Status()),
			"duration_ms": duration,
		})
		return
	}

	metrics.ObserveAnalysisDurationMs(duration)
	if next.Status() == StatusSucceeded {
		metrics.IncAnalysisSucceeded()
	} else {
		metrics.IncAnalysisFailed()
	}
	l.logTransition(ctx, prev, next, &duration)
}

// analyze calls the provider exactly once and validates what it returns.
func (l *Lifecycle) analyze(ctx context.Context, req Request) (res report.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = report.Result{}
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	res, err = l.provider.Analyze(ctx, req.URL)
	if err != nil {
		return report.Result{}, err
	}
	if err := res.Validate(); err != nil {
		return report.Result{}, fmt.Errorf("provider payload invalid: %w", err)
	}
	return res.Clone(), nil
}

// commit applies next only if gen is still the current generation.
func (l *Lifecycle) commit(gen uint64, next State) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return l.state, errSuperseded
	}
	prev := l.state
	l.state = next
	l.publishLocked(next)
	return prev, nil
}

func (l *Lifecycle) publishLocked(st State) {
	for _, ch := range l.subscribers {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (l *Lifecycle) logTransition(ctx context.Context, prev, next State, durationMs *float64) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        l.sessionID,
		"analysis_id":       next.ID(),
		"status":            string(next.Status()),
		"status_transition": string(prev.Status()) + "->" + string(next.Status()),
	}
	if req, ok := next.Request(); ok {
		fields["blog_url"] = req.URL
	}
	if kind, msg, ok := next.Failure(); ok {
		fields["error_kind"] = string(kind)
		fields["error"] = msg
	}
	if durationMs != nil {
		fields["duration_ms"] = *durationMs
	}
	if next.Status() == StatusFailed {
		telemetry.Warn("analysis.status", fields)
		return
	}
	telemetry.Info("analysis.status", fields)
}

func classifyFailure(err error) ErrorKind {
	if errors.Is(err, provider.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	return ErrorKindProvider
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	if startedAt.IsZero() || completedAt.IsZero() {
		return 0
	}
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
