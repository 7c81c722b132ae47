package analyses

import (
	"context"
	"sync"
	"time"

	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/shared/telemetry"
)

const defaultSessionIdleTTL = 30 * time.Minute

type sessionEntry struct {
	lifecycle *Lifecycle
	lastSeen  time.Time
}

// Registry owns one Lifecycle per page-view session. Nothing is persisted;
// an evicted session loses its state.
type Registry struct {
	provider provider.Provider
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewRegistry constructs a Registry. A non-positive idleTTL uses the default.
func NewRegistry(p provider.Provider, idleTTL time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	if idleTTL <= 0 {
		idleTTL = defaultSessionIdleTTL
	}
	return &Registry{
		provider: p,
		idleTTL:  idleTTL,
		now:      now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Get returns the session's Lifecycle, creating it on first use.
func (r *Registry) Get(sessionID string) *Lifecycle {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{lifecycle: NewLifecycle(r.provider, sessionID)}
		r.sessions[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.lifecycle
}

// Lookup returns the session's Lifecycle without creating one.
func (r *Registry) Lookup(sessionID string) (*Lifecycle, bool) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = now
	return entry.lifecycle, true
}

// Touch marks the session as active.
func (r *Registry) Touch(sessionID string) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		entry.lastSeen = now
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes and drops sessions idle for longer than the TTL. It returns
// the number of sessions removed.
func (r *Registry) Evict() int {
	now := r.now()
	var expired []*Lifecycle
	r.mu.Lock()
	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			expired = append(expired, entry.lifecycle)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, l := range expired {
		l.Close()
	}
	if len(expired) > 0 {
		telemetry.Info("sessions.evicted", map[string]any{
			"count":     len(expired),
			"remaining": r.Len(),
		})
	}
	return len(expired)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Evict()
		case <-ctx.Done():
			return
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Lifecycle, 0, len(r.sessions))
	for id, entry := range r.sessions {
		all = append(all, entry.lifecycle)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, l := range all {
		l.Close()
	}
}
