// Package photosdb reads a macOS Photos library database (Photos.sqlite)
// strictly read-only. The schema is vendor-private and changes between
// Photos releases, so generation-specific table and column names are
// discovered at open time rather than hardcoded.
package photosdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"par-go/internal/par"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Opener locates and opens a Photos library database.
// Path may be a .photoslibrary bundle directory, a direct path to
// Photos.sqlite, or empty for the default library under ~/Pictures.
type Opener struct {
	Path string
}

// Open resolves the database path, opens a read-only connection, and
// probes the schema generation. The returned Library must be closed after
// one query sequence; holding a long-lived handle risks contention with
// the live Photos application.
func (o Opener) Open(ctx context.Context) (par.Library, error) {
	dbPath, err := resolveDBPath(o.Path)
	if err != nil {
		return nil, &par.AccessError{Path: o.Path, Err: err}
	}

	db, err := openReadOnly(dbPath)
	if err != nil {
		return nil, &par.AccessError{Path: dbPath, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &par.AccessError{Path: dbPath, Err: err}
	}

	lib, err := NewLibraryFromDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	lib.path = dbPath
	return lib, nil
}

// dsnEscaper escapes the characters SQLite's URI parser treats as
// special. Slashes and spaces pass through; library bundle paths
// routinely contain spaces.
var dsnEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// openReadOnly opens the database with mode=ro so the driver refuses
// writes at the connection level, and a busy timeout so a briefly locked
// database does not fail immediately.
func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dsnEscaper.Replace(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One query sequence per handle; no need for a pool.
	db.SetMaxOpenConns(1)
	return db, nil
}

// resolveDBPath turns a user-supplied library location into the path of
// the Photos.sqlite file inside it.
func resolveDBPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, "Pictures", "Photos Library.photoslibrary")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("no Photos library at %s: %w", path, err)
	}

	if info.IsDir() {
		dbPath := filepath.Join(path, "database", "Photos.sqlite")
		if _, err := os.Stat(dbPath); err != nil {
			return "", fmt.Errorf("no Photos database inside %s: %w", path, err)
		}
		return dbPath, nil
	}

	if !strings.HasSuffix(strings.ToLower(path), "photos.sqlite") {
		return "", fmt.Errorf("%s is not a Photos database", path)
	}
	return path, nil
}
