// Package provider implements the freshness-aware cache-aside resolver that
// mediates between callers, the local record store, and the upstream NBA
// stats source. Local data wins while fresh or manually overridden; stale
// data is refreshed from upstream and served as a fallback when upstream is
// down.
package provider

import (
	"encoding/json"
	"time"
)

// Data provenance values stored alongside each record.
const (
	SourceAPI    = "api"
	SourceManual = "manual"
)

// Record is a cached resource keyed by a resource key.
type Record struct {
	Key            string          `json:"key"`
	Payload        json.RawMessage `json:"payload"`
	LastFetchedAt  time.Time       `json:"last_fetched_at"`
	ManualOverride bool            `json:"is_manual_override"`
	OverrideReason string          `json:"override_reason,omitempty"`
	Source         string          `json:"source"`
}

// Fresh reports whether the record is within its TTL at the given instant.
// Freshness is a pure function of time; nothing mutates it.
func (r *Record) Fresh(now time.Time, ttl time.Duration) bool {
	if r == nil || r.LastFetchedAt.IsZero() {
		return false
	}
	return now.Sub(r.LastFetchedAt) < ttl
}

// state is the resolver's view of a record before a resolution decision.
type state int

const (
	stateMissing state = iota
	stateFresh
	stateStale
)

// classify maps a looked-up record to the three-way decision state.
func classify(rec *Record, now time.Time, ttl time.Duration) state {
	switch {
	case rec == nil:
		return stateMissing
	case rec.Fresh(now, ttl):
		return stateFresh
	default:
		return stateStale
	}
}
