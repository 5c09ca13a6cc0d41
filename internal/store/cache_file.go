package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"folio-cli/internal/cache"
)

const cacheFileName = "cache.sqlite"

var cacheSchema = []string{
	`CREATE TABLE IF NOT EXISTS cache_meta (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS cache_records (
		key TEXT PRIMARY KEY,
		typename TEXT NOT NULL,
		fields_json TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cache_records_typename ON cache_records(typename);`,
}

// CacheFile persists committed cache state between CLI invocations.
type CacheFile struct {
	Path string
}

// DefaultCacheFile returns <config dir>/cache.sqlite.
func DefaultCacheFile() (CacheFile, error) {
	dir, err := ConfigDir()
	if err != nil {
		return CacheFile{}, err
	}
	return CacheFile{Path: filepath.Join(dir, cacheFileName)}, nil
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (f CacheFile) Load(ctx context.Context) (cache.Snapshot, error) {
	if _, err := os.Stat(f.Path); errors.Is(err, os.ErrNotExist) {
		return cache.Snapshot{}, nil
	}
	db, err := openSQLite(ctx, f.Path, cacheSchema)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT key, fields_json FROM cache_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Reassemble a JSON document so values decode through the same path as
	// cache.UnmarshalSnapshot.
	raw := map[string]json.RawMessage{}
	for rows.Next() {
		var k, js string
		if err := rows.Scan(&k, &js); err != nil {
			return nil, err
		}
		raw[k] = json.RawMessage(js)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return cache.UnmarshalSnapshot(b)
}

// Save replaces the stored snapshot in one transaction.
func (f CacheFile) Save(ctx context.Context, snap cache.Snapshot) error {
	db, err := openSQLite(ctx, f.Path, cacheSchema)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_records`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_records(key, typename, fields_json) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, rec := range snap {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if _, err := stmt.ExecContext(ctx, string(k), k.Typename(), string(b)); err != nil {
			return err
		}
	}
	savedAt := strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO cache_meta(k, v) VALUES('saved_at_unixms', ?)`, savedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes the cache file and its WAL companions.
func (f CacheFile) Clear() error {
	for _, p := range []string{f.Path, f.Path + "-wal", f.Path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
