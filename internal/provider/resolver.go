package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is the durable record store. Both methods must be atomic per key.
// Get returns (nil, nil) when no record exists. Put is the automatic-refresh
// write path: it must reject writes to overridden records with
// ErrConflictingOverride. Administrative override mutations live on
// OverrideStore, outside the resolver's own logic.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, rec Record) error
}

// OverrideStore extends Store with the administrative override operations.
// The resolver never calls these; the admin API does.
type OverrideStore interface {
	Store
	SetOverride(ctx context.Context, key string, payload json.RawMessage, reason string) (*Record, error)
	ClearOverride(ctx context.Context, key string) (*Record, error)
}

// Source fetches a resource from the upstream provider. It fails with
// ErrNotFound (possibly wrapped) when upstream has no data for the key and
// ErrUnavailable for transient failures, including its own call timeout.
type Source interface {
	Fetch(ctx context.Context, key string) (json.RawMessage, error)
}

// TTLFunc maps a resource key to its freshness window.
type TTLFunc func(key string) time.Duration

// Result is a resolution outcome. Stale is true only when the payload comes
// from a record past its TTL that could not be refreshed.
type Result struct {
	Payload json.RawMessage
	Stale   bool
	Record  *Record
}

// Resolver implements the cache-aside policy: local record first, upstream
// on miss or staleness, stale-but-available when upstream is degraded.
type Resolver struct {
	store   Store
	source  Source
	ttl     TTLFunc
	now     func() time.Time
	metrics *Metrics
	group   singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the resolver's time source for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithTTLFunc overrides the per-key TTL policy.
func WithTTLFunc(ttl TTLFunc) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithMetrics attaches a shared metrics instance.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a resolver over the given store and source. Defaults:
// wall clock, resource-class TTLs, private metrics.
func NewResolver(store Store, source Source, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		source:  source,
		ttl:     TTLForKey,
		now:     time.Now,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Metrics returns the resolver's metrics.
func (r *Resolver) Metrics() *Metrics { return r.metrics }

// Resolve returns the payload for key, refreshing from upstream when the
// local record is missing, stale, or forceRefresh is set.
//
// Manual overrides always win and never consult upstream. A failed refresh
// degrades to the existing record with Stale set; it becomes an error only
// when no record exists at all, in which case the error is ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, key string, forceRefresh bool) (Result, error) {
	rec, err := r.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("store lookup for %s: %w", key, err)
	}

	if rec != nil && rec.ManualOverride {
		// Manual data always wins, regardless of TTL or forceRefresh.
		r.metrics.hit()
		return Result{Payload: rec.Payload, Record: rec}, nil
	}

	switch classify(rec, r.now(), r.ttl(key)) {
	case stateFresh:
		if !forceRefresh {
			r.metrics.hit()
			return Result{Payload: rec.Payload, Record: rec}, nil
		}
	case stateMissing:
		r.metrics.miss()
	case stateStale:
		r.metrics.miss()
	}

	fresh, err := r.refresh(ctx, key)
	if err == nil {
		return Result{Payload: fresh.Payload, Record: fresh}, nil
	}

	// Never fail a caller solely because the refresh failed, as long as a
	// prior record exists.
	if rec != nil {
		r.metrics.staleServe()
		return Result{Payload: rec.Payload, Stale: true, Record: rec}, nil
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return Result{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return Result{}, err
}

// refresh fetches from upstream and writes through to the store before
// returning. Concurrent refreshes of the same key are coalesced into a
// single upstream call; waiting callers share its outcome.
func (r *Resolver) refresh(ctx context.Context, key string) (*Record, error) {
	v, err, _ := r.group.Do(key, func() (any, error) {
		r.metrics.upstreamed()
		payload, err := r.source.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}

		rec := Record{
			Key:           key,
			Payload:       payload,
			LastFetchedAt: r.now(),
			Source:        SourceAPI,
		}
		if err := r.store.Put(ctx, rec); err != nil {
			if errors.Is(err, ErrConflictingOverride) {
				// An override landed while we were fetching. The
				// override wins; surface the manual record.
				cur, gerr := r.store.Get(ctx, key)
				if gerr == nil && cur != nil {
					return cur, nil
				}
			}
			return nil, fmt.Errorf("store write for %s: %w", key, err)
		}
		return &rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}
