// Package cache keeps fetched pages in a SQLite database so that resolving
// the same link twice does not hit the network twice.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"autoembed/internal/embed"
)

const schema = `CREATE TABLE IF NOT EXISTS pages (
	url        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	fetched_at TEXT NOT NULL
)`

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a page cache with a fixed time to live. Timestamps are stored as
// UTC text since SQLite has no native time type.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	log *slog.Logger
}

// Open opens or creates the cache database at path. A ttl <= 0 keeps pages
// forever.
func Open(ctx context.Context, path string, ttl time.Duration) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now, log: slog.Default()}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached body of url. Expired entries count as missing.
func (s *Store) Get(ctx context.Context, url string) (string, bool, error) {
	var body, fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM pages WHERE url = ?`, url,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}

	if s.ttl > 0 {
		t, err := time.Parse(timeLayout, fetchedAt)
		if err != nil || s.now().Sub(t) > s.ttl {
			return "", false, nil
		}
	}
	return body, true, nil
}

// Put stores body for url, replacing any previous entry.
func (s *Store) Put(ctx context.Context, url, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pages (url, body, fetched_at) VALUES (?, ?, ?)`,
		url, body, s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many there were.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Len returns the number of stored pages, expired ones included.
func (s *Store) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache: %w", err)
	}
	return n, nil
}

// Prune removes expired entries.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Wrap returns a fetcher that serves pages from the cache and falls back to
// next on a miss. Failed fetches are not cached. Cache errors are logged
// and never fail the fetch.
func (s *Store) Wrap(next embed.Fetcher) embed.Fetcher {
	return embed.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		body, ok, err := s.Get(ctx, url)
		if err != nil {
			s.log.Warn("page cache unavailable", "url", url, "error", err)
		}
		if ok {
			return body, nil
		}

		body, err = next.Fetch(ctx, url)
		if err != nil {
			return "", err
		}
		if err := s.Put(ctx, url, body); err != nil {
			s.log.Warn("caching page", "url", url, "error", err)
		}
		return body, nil
	})
}
