package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned when another process holds the cache file.
var ErrLocked = errors.New("cache file is locked by another process")

// SQLiteKV persists cache entries in a single-table SQLite file so snapshots
// survive restarts. One process owns the file at a time.
type SQLiteKV struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteKV, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS cache_entries (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &SQLiteKV{db: db, lock: lock}, nil
}

func (s *SQLiteKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if uerr := s.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteKV) SetMany(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for k, v := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO cache_entries (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteKV) DeleteWhere(ctx context.Context, match func(key string) bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT key FROM cache_entries`)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	var doomed []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan key: %w", err)
		}
		if match(k) {
			doomed = append(doomed, k)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("rows: %w", err)
	}
	_ = rows.Close()

	for _, k := range doomed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}
