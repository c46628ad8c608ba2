// Package storefront keeps one Session per client and serialises access
// to it.
package storefront

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by With after Close.
var ErrClosed = errors.New("registry closed")

// DefaultCleanupInterval is how often idle sessions are looked for.
const DefaultCleanupInterval = 30 * time.Second

type entry struct {
	mu       sync.Mutex
	sess     *Session
	inUse    int
	lastUsed time.Time
}

// Registry builds sessions lazily, runs at most one call per session at a
// time and evicts sessions left idle for longer than the idle TTL. Evicted
// sessions are rebuilt from storage on next use.
type Registry struct {
	deps            Deps
	idleTTL         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

type Option func(*Registry)

// WithIdleTTL sets how long an unused session stays in memory. Zero keeps
// sessions until Close.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.idleTTL = ttl }
}

func WithCleanupInterval(d time.Duration) Option {
	return func(r *Registry) { r.cleanupInterval = d }
}

func WithClock(fn func() time.Time) Option {
	return func(r *Registry) { r.now = fn }
}

func NewRegistry(deps Deps, opts ...Option) *Registry {
	r := &Registry{
		deps:            deps,
		idleTTL:         30 * time.Minute,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		sessions:        make(map[string]*entry),
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.idleTTL > 0 && r.cleanupInterval > 0 {
		r.wg.Add(1)
		go r.cleanupLoop()
	}
	return r
}

// With runs fn against the session id, building it from storage first when
// it is not in memory. Calls for the same id never overlap.
func (r *Registry) With(ctx context.Context, id string, fn func(*Session) error) error {
	e, err := r.acquire(id)
	if err != nil {
		return err
	}
	defer r.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		sess, err := newSession(ctx, id, r.deps)
		if err != nil {
			return err
		}
		e.sess = sess
	}
	return fn(e.sess)
}

// Len returns the number of sessions in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the cleanup loop and drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.stopCleanup)
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if e.inUse == 0 && e.sess != nil {
			e.sess.close()
		}
		delete(r.sessions, id)
	}
}

func (r *Registry) acquire(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	e, ok := r.sessions[id]
	if !ok {
		e = &entry{}
		r.sessions[id] = e
	}
	e.inUse++
	return e, nil
}

func (r *Registry) release(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.inUse--
	e.lastUsed = r.now()
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// evictIdle drops sessions nobody has used for longer than the idle TTL.
func (r *Registry) evictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, e := range r.sessions {
		if e.inUse > 0 || e.lastUsed.After(cutoff) {
			continue
		}
		if e.sess != nil {
			e.sess.close()
		}
		delete(r.sessions, id)
		evicted++
	}
	if evicted > 0 {
		r.deps.Log.WithField("evicted", evicted).Debug("idle sessions evicted")
	}
	return evicted
}
