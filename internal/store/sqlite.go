package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openSQLite opens (creating if needed) a SQLite file and runs the given
// schema statements.
func openSQLite(ctx context.Context, path string, schema []string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite". Per-connection pragmas go in the DSN so
	// every pooled connection enforces foreign keys.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers (CLI and a running TUI share the cache file).
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range append(pragmas, schema...) {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
