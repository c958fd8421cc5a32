// Package db writes analysis results to a SQLite file so they can be queried
// after the run, and exposes that file on the viewer's debug routes.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/collision.report/internal/fsutil"
)

// DB is an analysis export database.
type DB struct {
	*sql.DB
	path string
}

// Create replaces any database at path with a fresh one at the latest schema.
// Stale database and sidecar files are removed through fsys first. Each run
// owns its file; nothing carries over from a previous run.
func Create(fsys fsutil.FileSystem, path string) (*DB, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := fsys.Remove(p); err != nil {
			return nil, fmt.Errorf("failed to remove stale %s: %w", p, err)
		}
	}
	return open(path)
}

func open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection.
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }
