package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

// CacheStore is the durable record store backing the resolver. Per-key
// atomicity comes from single-statement upserts; the refresh write path is
// guarded so it can never clobber a manual override.
type CacheStore struct {
	pool *pgxpool.Pool
}

// Cache returns the resolver-facing record store.
func (db *DB) Cache() *CacheStore {
	return &CacheStore{pool: db.pool}
}

// Get returns the record for key, or (nil, nil) when none exists.
func (s *CacheStore) Get(ctx context.Context, key string) (*provider.Record, error) {
	var (
		rec    provider.Record
		reason *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT key, payload, last_fetched_at, is_manual_override, override_reason, source
		 FROM resource_cache WHERE key = $1`,
		key,
	).Scan(&rec.Key, &rec.Payload, &rec.LastFetchedAt, &rec.ManualOverride, &reason, &rec.Source)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	if reason != nil {
		rec.OverrideReason = *reason
	}
	return &rec, nil
}

// Put writes a refreshed record. The upsert is conditional on the record not
// being overridden; a rejected write reports ErrConflictingOverride so the
// caller knows the override won.
func (s *CacheStore) Put(ctx context.Context, rec provider.Record) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO resource_cache (key, payload, last_fetched_at, is_manual_override, source, updated_at)
		 VALUES ($1, $2, $3, FALSE, 'api', NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     last_fetched_at = EXCLUDED.last_fetched_at,
		     source = 'api',
		     updated_at = NOW()
		 WHERE resource_cache.is_manual_override = FALSE`,
		rec.Key, []byte(rec.Payload), rec.LastFetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put record %s: %w", rec.Key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("put %s: %w", rec.Key, provider.ErrConflictingOverride)
	}
	return nil
}

// SetOverride replaces the record's payload with manually entered data and
// marks it overridden. Creates the record if it does not exist.
func (s *CacheStore) SetOverride(ctx context.Context, key string, payload json.RawMessage, reason string) (*provider.Record, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resource_cache (key, payload, last_fetched_at, is_manual_override, override_reason, source, updated_at)
		 VALUES ($1, $2, NOW(), TRUE, $3, 'manual', NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     is_manual_override = TRUE,
		     override_reason = EXCLUDED.override_reason,
		     source = 'manual',
		     updated_at = NOW()`,
		key, []byte(payload), nullableString(reason),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set override %s: %w", key, err)
	}
	return s.Get(ctx, key)
}

// ClearOverride unmarks the record so the next refresh updates it from
// upstream. The fetch time is reset to the epoch so the manual payload is
// never served as fresh and the next read refreshes immediately.
func (s *CacheStore) ClearOverride(ctx context.Context, key string) (*provider.Record, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE resource_cache
		 SET is_manual_override = FALSE, override_reason = NULL,
		     last_fetched_at = 'epoch', updated_at = NOW()
		 WHERE key = $1`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to clear override %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("clear override %s: %w", key, provider.ErrNotFound)
	}
	return s.Get(ctx, key)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
