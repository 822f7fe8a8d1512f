package par

import (
	"context"
	"time"
)

// Journal persists restore runs and per-asset confirmations. It exists to
// close the re-run gap: the automation port cannot look an album up by
// name, so resuming a partial run requires the original handle and the
// set of assets already confirmed.
type Journal interface {
	// BeginRun records a new run and its planned assets, all unconfirmed.
	BeginRun(ctx context.Context, run *RestoreRun, assetUUIDs []string) error

	// ConfirmAssets marks the given assets of a run as confirmed added.
	ConfirmAssets(ctx context.Context, runID string, assetUUIDs []string) error

	// FinishRun records the terminal state of a run.
	FinishRun(ctx context.Context, runID string, state RunState, finishedAt time.Time) error

	// FindRun returns a run by ID, or nil if it does not exist.
	FindRun(ctx context.Context, runID string) (*RestoreRun, error)

	// UnconfirmedAssets returns the assets of a run not yet confirmed,
	// in planned order.
	UnconfirmedAssets(ctx context.Context, runID string) ([]string, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RestoreRun, error)

	Close() error
}
