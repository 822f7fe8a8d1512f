// Package journal persists restore runs so a partial run can be resumed
// against its original album handle instead of creating a duplicate album.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"par-go/internal/journal/migrations"
	"par-go/internal/par"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements par.Journal using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens (or creates) the journal database at path and
// applies pending migrations. path can be ":memory:" for tests.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal schema: %w", err)
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
// Exported for tests that need a properly configured journal connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if path == ":memory:" {
		// The pool must not open a second connection: each in-memory
		// connection is a separate empty database.
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

func (j *SQLiteJournal) BeginRun(ctx context.Context, run *par.RestoreRun, assetUUIDs []string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO restore_runs (id, album_uuid, album_name, album_handle, total_assets, state, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AlbumUUID, run.AlbumName, run.AlbumHandle, run.TotalAssets, string(run.State), run.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO restore_assets (run_id, asset_uuid, position) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing asset insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range assetUUIDs {
		if _, err := stmt.ExecContext(ctx, run.ID, u, i); err != nil {
			return fmt.Errorf("inserting asset %s: %w", u, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) ConfirmAssets(ctx context.Context, runID string, assetUUIDs []string) error {
	if len(assetUUIDs) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE restore_assets SET confirmed = 1 WHERE run_id = ? AND asset_uuid = ?")
	if err != nil {
		return fmt.Errorf("preparing confirmation update: %w", err)
	}
	defer stmt.Close()

	for _, u := range assetUUIDs {
		if _, err := stmt.ExecContext(ctx, runID, u); err != nil {
			return fmt.Errorf("confirming asset %s: %w", u, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) FinishRun(ctx context.Context, runID string, state par.RunState, finishedAt time.Time) error {
	_, err := j.db.ExecContext(ctx,
		"UPDATE restore_runs SET state = ?, finished_at = ? WHERE id = ?",
		string(state), finishedAt, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) FindRun(ctx context.Context, runID string) (*par.RestoreRun, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, album_uuid, album_name, album_handle, total_assets, state, started_at, finished_at
		FROM restore_runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

func (j *SQLiteJournal) UnconfirmedAssets(ctx context.Context, runID string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT asset_uuid FROM restore_assets WHERE run_id = ? AND confirmed = 0 ORDER BY position",
		runID)
	if err != nil {
		return nil, fmt.Errorf("querying unconfirmed assets: %w", err)
	}
	defer rows.Close()

	var uuids []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		uuids = append(uuids, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading asset rows: %w", err)
	}
	return uuids, nil
}

func (j *SQLiteJournal) ListRuns(ctx context.Context, limit int) ([]*par.RestoreRun, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, album_uuid, album_name, album_handle, total_assets, state, started_at, finished_at
		FROM restore_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*par.RestoreRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading run rows: %w", err)
	}
	return runs, nil
}

func (j *SQLiteJournal) Close() error { return j.db.Close() }

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*par.RestoreRun, error) {
	var (
		run        par.RestoreRun
		state      string
		finishedAt sql.NullTime
	)
	err := s.Scan(&run.ID, &run.AlbumUUID, &run.AlbumName, &run.AlbumHandle,
		&run.TotalAssets, &state, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	run.State = par.RunState(state)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}
