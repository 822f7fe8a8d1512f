package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"par-go/internal/automation"
	"par-go/internal/config"
	"par-go/internal/journal"
	"par-go/internal/par"
	"par-go/internal/photosdb"
)

// PARApp is the application layer between the CLI and the recovery
// service. It constructs all dependencies from config and manages their
// lifecycle on Close.
type PARApp struct {
	cfg        *config.Config
	journal    par.Journal
	automation par.Automation
	service    *par.Service
	logFile    *os.File
}

// NewPARApp creates a fully wired PARApp from the given config.
// operation identifies the CLI command being run (e.g. "ListDeletedAlbums").
// The caller must call Close when done.
func NewPARApp(cfg *config.Config, operation string) (*PARApp, error) {
	jnl, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	auto, err := automation.NewAutomationFromConfig(cfg.Automation)
	if err != nil {
		jnl.Close()
		return nil, fmt.Errorf("creating automation port: %w", err)
	}

	sessionID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, sessionID)
	if err != nil {
		jnl.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	opener := photosdb.Opener{Path: cfg.LibraryPath}
	policy := par.Policy{
		BatchSize:      cfg.Restore.BatchSize,
		MaxRetries:     cfg.Restore.MaxRetries,
		RetryDelay:     time.Duration(cfg.Restore.RetryDelaySeconds) * time.Second,
		IncludeTrashed: cfg.Restore.IncludeTrashed,
	}

	svc := par.NewService(opener, auto, jnl, &slogAdapter{l: logger}, par.RealClock{}, par.UUIDGenerator{}, policy)

	logger.Debug("app initialized", "operation", operation, "library", cfg.LibraryPath)

	return &PARApp{
		cfg:        cfg,
		journal:    jnl,
		automation: auto,
		service:    svc,
		logFile:    logFile,
	}, nil
}

// ListDeletedAlbums returns the recoverable soft-deleted albums.
func (a *PARApp) ListDeletedAlbums(ctx context.Context) ([]par.AlbumRecord, error) {
	return a.service.ListDeletedAlbums(ctx)
}

// ResolveMembership builds the restore plan for one album.
func (a *PARApp) ResolveMembership(ctx context.Context, album par.AlbumRecord) (*par.RestorePlan, error) {
	return a.service.ResolveMembership(ctx, album)
}

// Restore executes a restore plan.
func (a *PARApp) Restore(ctx context.Context, plan *par.RestorePlan, progress par.ProgressFunc) (*par.Outcome, error) {
	return a.service.Restore(ctx, plan, progress)
}

// Resume re-drives a partial restore run by its journal ID.
func (a *PARApp) Resume(ctx context.Context, runID string, progress par.ProgressFunc) (*par.Outcome, error) {
	return a.service.Resume(ctx, runID, progress)
}

// Runs returns the most recent restore runs.
func (a *PARApp) Runs(ctx context.Context, limit int) ([]*par.RestoreRun, error) {
	return a.service.Runs(ctx, limit)
}

// Close releases the journal and the log file.
func (a *PARApp) Close() error {
	var firstErr error

	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
