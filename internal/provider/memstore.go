package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memstore is an in-process Store. It backs unit tests and serves as the
// cache when no database is configured, mirroring the reference deployment's
// in-memory fallback. Each method holds the lock for its whole body so reads
// and conditional writes are atomic per key.
type Memstore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemstore returns an empty in-memory store.
func NewMemstore() *Memstore {
	return &Memstore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Get returns a copy of the record for key, or (nil, nil) if none exists.
func (m *Memstore) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put stores a refreshed record. Overridden records reject the write.
func (m *Memstore) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.records[rec.Key]; ok && cur.ManualOverride {
		return fmt.Errorf("put %s: %w", rec.Key, ErrConflictingOverride)
	}
	m.records[rec.Key] = rec
	return nil
}

// SetOverride replaces the record's payload with manual data and marks it
// overridden. Creates the record if it does not exist.
func (m *Memstore) SetOverride(_ context.Context, key string, payload json.RawMessage, reason string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[key]
	rec.Key = key
	rec.Payload = payload
	rec.ManualOverride = true
	rec.OverrideReason = reason
	rec.Source = SourceManual
	if rec.LastFetchedAt.IsZero() {
		rec.LastFetchedAt = m.now()
	}
	m.records[key] = rec
	return &rec, nil
}

// ClearOverride unmarks the record so the next sync refreshes it. The fetch
// time is zeroed so the manual payload is never served as fresh.
func (m *Memstore) ClearOverride(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("clear override %s: %w", key, ErrNotFound)
	}
	rec.ManualOverride = false
	rec.OverrideReason = ""
	rec.LastFetchedAt = time.Time{}
	m.records[key] = rec
	return &rec, nil
}

// Len reports the number of stored records.
func (m *Memstore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
