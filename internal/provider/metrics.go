package provider

import (
	"sync/atomic"
	"time"
)

// Metrics tracks resolver activity. All counters are safe for concurrent use.
type Metrics struct {
	hits        atomic.Int64
	misses      atomic.Int64
	upstream    atomic.Int64
	staleServes atomic.Int64
	resetAt     atomic.Int64 // unix seconds
}

// NewMetrics returns zeroed metrics with the reset time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.resetAt.Store(time.Now().Unix())
	return m
}

func (m *Metrics) hit()        { m.hits.Add(1) }
func (m *Metrics) miss()       { m.misses.Add(1) }
func (m *Metrics) upstreamed() { m.upstream.Add(1) }
func (m *Metrics) staleServe() { m.staleServes.Add(1) }

// Snapshot is a point-in-time view of resolver metrics.
type Snapshot struct {
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	UpstreamCalls int64     `json:"upstream_calls"`
	StaleServes   int64     `json:"stale_serves"`
	TotalRequests int64     `json:"total_requests"`
	HitRatePct    float64   `json:"hit_rate_pct"`
	LastReset     time.Time `json:"last_reset"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		UpstreamCalls: m.upstream.Load(),
		StaleServes:   m.staleServes.Load(),
		LastReset:     time.Unix(m.resetAt.Load(), 0).UTC(),
	}
	s.TotalRequests = s.Hits + s.Misses
	if s.TotalRequests > 0 {
		s.HitRatePct = float64(s.Hits) / float64(s.TotalRequests) * 100
	}
	return s
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.upstream.Store(0)
	m.staleServes.Store(0)
	m.resetAt.Store(time.Now().Unix())
}
