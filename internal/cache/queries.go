// Package cache provides a SQLite-backed cache of generated queries so
// repeated runs over the same hypotheses skip the generation provider.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	_ "modernc.org/sqlite"

	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

// QueryCache stores generated queries keyed by (hypothesis content hash,
// model), evicting least-recently-used entries past maxEntries.
type QueryCache struct {
	db         *sql.DB
	maxEntries int
}

// CacheStats reports current cache usage.
type CacheStats struct {
	Entries int
}

// NewQueryCache opens (or creates) a query cache at dbPath. maxEntries caps
// the number of cached queries before LRU eviction triggers.
func NewQueryCache(dbPath string, maxEntries int) (*QueryCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS generated_queries (
			content_hash TEXT NOT NULL,
			model        TEXT NOT NULL,
			query_json   BLOB NOT NULL,
			created_at   INTEGER NOT NULL,
			accessed_at  INTEGER NOT NULL,
			PRIMARY KEY (content_hash, model)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_queries_accessed ON generated_queries(accessed_at)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &QueryCache{db: db, maxEntries: maxEntries}, nil
}

// ContentHash returns the SHA-256 hex digest of the given text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached query for the given content hash and model.
// Returns (nil, nil) on cache miss.
func (c *QueryCache) Get(contentHash, model string) (*types.GeneratedQuery, error) {
	row := c.db.QueryRow(
		`SELECT query_json FROM generated_queries WHERE content_hash = ? AND model = ?`,
		contentHash, model,
	)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get query: %w", err)
	}

	_, _ = c.db.Exec(
		`UPDATE generated_queries SET accessed_at = ? WHERE content_hash = ? AND model = ?`,
		time.Now().UnixNano(), contentHash, model,
	)

	var q types.GeneratedQuery
	if err := json.Unmarshal(blob, &q); err != nil {
		return nil, fmt.Errorf("decode cached query: %w", err)
	}
	return &q, nil
}

// Put stores a generated query, then evicts if over the entry limit.
func (c *QueryCache) Put(contentHash, model string, q *types.GeneratedQuery) error {
	blob, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	now := time.Now().UnixNano()

	_, err = c.db.Exec(
		`INSERT INTO generated_queries(content_hash, model, query_json, created_at, accessed_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash, model) DO UPDATE SET query_json=excluded.query_json, accessed_at=excluded.accessed_at`,
		contentHash, model, blob, now, now,
	)
	if err != nil {
		return fmt.Errorf("put query: %w", err)
	}

	return c.evictIfNeeded()
}

// Stats returns current cache statistics.
func (c *QueryCache) Stats() (*CacheStats, error) {
	row := c.db.QueryRow(`SELECT COUNT(*) FROM generated_queries`)
	var stats CacheStats
	if err := row.Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	return &stats, nil
}

// Clear removes all cached entries.
func (c *QueryCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM generated_queries`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *QueryCache) Close() error {
	return c.db.Close()
}

func (c *QueryCache) evictIfNeeded() error {
	if c.maxEntries <= 0 {
		return nil
	}

	row := c.db.QueryRow(`SELECT COUNT(*) FROM generated_queries`)
	var total int
	if err := row.Scan(&total); err != nil {
		return fmt.Errorf("evict size check: %w", err)
	}
	if total <= c.maxEntries {
		return nil
	}

	_, err := c.db.Exec(
		`DELETE FROM generated_queries WHERE rowid IN
		 (SELECT rowid FROM generated_queries ORDER BY accessed_at ASC LIMIT ?)`,
		total-c.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}
