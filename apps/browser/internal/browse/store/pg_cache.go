package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Compile-time check: *PGCache implements browse.Cache.
var _ browse.Cache = (*PGCache)(nil)

// PGCache implements browse.Cache backed by the browse_cache table. Rows are
// never deleted by reads; an expired row is simply ignored and overwritten by
// the next Set for the same key.
type PGCache struct {
	pool *pgxpool.Pool
}

// NewPGCache creates a new PGCache with the given connection pool.
func NewPGCache(pool *pgxpool.Pool) *PGCache {
	return &PGCache{pool: pool}
}

// Get returns the live value stored under key.
func (c *PGCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.pool.QueryRow(ctx,
		`SELECT value FROM browse_cache WHERE key = $1 AND expires_at > now()`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key, expiring ttl from now.
func (c *PGCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO browse_cache (key, value, expires_at)
		 VALUES ($1, $2, now() + make_interval(secs => $3))
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (c *PGCache) Purge(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM browse_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
