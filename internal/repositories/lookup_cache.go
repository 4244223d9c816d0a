// package repositories provides the sqlite-backed lookup cache.
//
// MusicBrainz IDs are stable, so once a key has resolved there is no reason to
// spend a rate-limited request on it again. The cache is keyed by mode plus
// identity key and only stores positive results; not-found keys stay eligible
// for recheck.
package repositories

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	mode       TEXT NOT NULL,
	key        TEXT NOT NULL,
	mbid       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (mode, key)
);`

// LookupCache maps resolved identity keys to MBIDs across runs.
type LookupCache struct {
	db *sql.DB
}

// OpenLookupCache opens (or creates) the cache database at path. The path can
// be ":memory:" for an in-memory cache.
func OpenLookupCache(path string) (*LookupCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}
	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &LookupCache{db: db}, nil
}

// Get returns the cached MBID for a key. Failures are treated as misses; the
// cache is an optimization, not a source of truth.
func (c *LookupCache) Get(mode, key string) (string, bool) {
	var mbid string
	err := c.db.QueryRow(
		`SELECT mbid FROM lookup_cache WHERE mode = ? AND key = ?`, mode, key,
	).Scan(&mbid)
	if err != nil {
		return "", false
	}
	return mbid, true
}

// Put records a resolved key. Re-inserting an existing key is a no-op; the
// first cached match wins, matching the store's append semantics.
func (c *LookupCache) Put(mode, key, mbid string) error {
	_, err := c.db.Exec(
		`INSERT OR IGNORE INTO lookup_cache (mode, key, mbid) VALUES (?, ?, ?)`,
		mode, key, mbid,
	)
	if err != nil {
		return fmt.Errorf("failed to cache lookup: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *LookupCache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM lookup_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (c *LookupCache) Close() error {
	return c.db.Close()
}
