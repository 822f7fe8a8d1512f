package par

import (
	"context"
	"fmt"
)

// ProgressFunc receives batch progress during a restore: batch is the
// number of batches finished so far out of total. Called between
// automation calls, so a caller can cancel via context between batches.
type ProgressFunc func(batch, total int)

// Restore executes a RestorePlan: creates the target album through the
// automation port, then replays membership in bounded batches.
//
// A creation failure is fatal for the run and returns a CreationError
// with zero assets added. After creation, a failing batch is recorded and
// the run continues — the album already exists, and partial recovery is
// strictly better than none. The created album is never rolled back.
func (s *Service) Restore(ctx context.Context, plan *RestorePlan, progress ProgressFunc) (*Outcome, error) {
	out := &Outcome{
		RunID: s.idgen.New(),
		State: StateNotStarted,
	}

	if err := s.automation.Ping(ctx); err != nil {
		out.State = StateAbortedPartial
		out.Unconfirmed = append(out.Unconfirmed, plan.AssetUUIDs...)
		return out, &CreationError{Album: plan.Name, Err: fmt.Errorf("host application unreachable: %w", err)}
	}

	handle, err := s.automation.CreateAlbum(ctx, plan.Name)
	if err != nil {
		out.State = StateAbortedPartial
		out.Unconfirmed = append(out.Unconfirmed, plan.AssetUUIDs...)
		return out, &CreationError{Album: plan.Name, Err: err}
	}
	out.AlbumHandle = handle
	out.State = StateAlbumCreated
	s.logger.Info("album created", "name", plan.Name, "handle", handle, "assets", len(plan.AssetUUIDs))

	run := &RestoreRun{
		ID:          out.RunID,
		AlbumUUID:   plan.AlbumUUID,
		AlbumName:   plan.Name,
		AlbumHandle: handle,
		TotalAssets: len(plan.AssetUUIDs),
		State:       StateAlbumCreated,
		StartedAt:   s.clock.Now(),
	}
	if err := s.journal.BeginRun(ctx, run, plan.AssetUUIDs); err != nil {
		// The run proceeds either way; it just won't be resumable.
		s.logger.Warn("journal unavailable, run will not be resumable", "run", run.ID, "error", err)
	}

	out.State = StateAddingMembers
	s.addBatches(ctx, out, plan.AssetUUIDs, progress)
	s.finishRun(ctx, out)
	return out, nil
}

// Resume re-drives a partial run recorded in the journal, adding only the
// assets never confirmed, against the original album handle. This avoids
// the duplicate album a blind re-run would create.
func (s *Service) Resume(ctx context.Context, runID string, progress ProgressFunc) (*Outcome, error) {
	run, err := s.journal.FindRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("no restore run with ID %s", runID)
	}
	if run.State == StateCompleted {
		return nil, fmt.Errorf("run %s is already completed", runID)
	}
	if run.AlbumHandle == "" {
		return nil, fmt.Errorf("run %s has no album handle recorded; it cannot be resumed", runID)
	}

	pending, err := s.journal.UnconfirmedAssets(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading unconfirmed assets: %w", err)
	}

	out := &Outcome{
		RunID:       runID,
		AlbumHandle: run.AlbumHandle,
		State:       StateAddingMembers,
	}
	if len(pending) == 0 {
		s.finishRun(ctx, out)
		return out, nil
	}

	if err := s.automation.Ping(ctx); err != nil {
		return nil, fmt.Errorf("host application unreachable: %w", err)
	}

	s.logger.Info("resuming restore run", "run", runID, "album", run.AlbumName, "pending", len(pending))
	s.addBatches(ctx, out, pending, progress)
	s.finishRun(ctx, out)
	return out, nil
}

// addBatches replays assetUUIDs into out.AlbumHandle one batch at a time,
// accumulating confirmations and failures on out. Cancellation is honored
// between batches only: a batch in flight is allowed to finish, so the
// album is never left in a torn state.
func (s *Service) addBatches(ctx context.Context, out *Outcome, assetUUIDs []string, progress ProgressFunc) {
	size := s.policy.BatchSize
	total := (len(assetUUIDs) + size - 1) / size

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			s.logger.Warn("restore cancelled", "batches_done", i, "batches_total", total)
			out.Unconfirmed = append(out.Unconfirmed, assetUUIDs[i*size:]...)
			return
		}

		lo, hi := i*size, (i+1)*size
		if hi > len(assetUUIDs) {
			hi = len(assetUUIDs)
		}
		batch := assetUUIDs[lo:hi]

		confirmed, err := s.addBatchWithRetry(ctx, out.AlbumHandle, batch)
		out.Batches = append(out.Batches, BatchResult{Index: i, Size: len(batch), Confirmed: confirmed, Err: err})

		switch {
		case err != nil:
			out.Unconfirmed = append(out.Unconfirmed, batch...)
			s.logger.Error("batch failed", "batch", i+1, "total", total, "size", len(batch), "error", err)
		case confirmed < len(batch):
			// Host confirmed fewer than requested without an error.
			out.Confirmed = append(out.Confirmed, batch[:confirmed]...)
			out.Unconfirmed = append(out.Unconfirmed, batch[confirmed:]...)
			s.confirmInJournal(ctx, out.RunID, batch[:confirmed])
			s.logger.Warn("batch partially confirmed", "batch", i+1, "confirmed", confirmed, "size", len(batch))
		default:
			out.Confirmed = append(out.Confirmed, batch...)
			s.confirmInJournal(ctx, out.RunID, batch)
			s.logger.Debug("batch added", "batch", i+1, "total", total, "size", len(batch))
		}

		if progress != nil {
			progress(i+1, total)
		}
	}
}

// addBatchWithRetry issues one add-assets call, retrying transient
// failures up to the policy limit. Permanent failures are returned
// immediately; the caller decides how the run proceeds.
func (s *Service) addBatchWithRetry(ctx context.Context, handle string, batch []string) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= s.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			s.clock.Sleep(ctx, s.policy.RetryDelay)
			if ctx.Err() != nil {
				return 0, lastErr
			}
		}

		confirmed, err := s.automation.AddAssets(ctx, handle, batch)
		if err == nil {
			return confirmed, nil
		}
		if !IsTransient(err) {
			return 0, err
		}
		lastErr = err
		s.logger.Warn("transient automation failure", "attempt", attempt+1, "error", err)
	}
	return 0, lastErr
}

// confirmInJournal records confirmed assets. Journal failures are logged,
// not propagated: the assets are already in the album.
func (s *Service) confirmInJournal(ctx context.Context, runID string, assetUUIDs []string) {
	if err := s.journal.ConfirmAssets(ctx, runID, assetUUIDs); err != nil {
		s.logger.Warn("journal confirmation failed", "run", runID, "assets", len(assetUUIDs), "error", err)
	}
}

// finishRun aggregates the terminal state and records it in the journal.
func (s *Service) finishRun(ctx context.Context, out *Outcome) {
	if len(out.Unconfirmed) == 0 {
		out.State = StateCompleted
	} else {
		out.State = StateAbortedPartial
	}

	if err := s.journal.FinishRun(ctx, out.RunID, out.State, s.clock.Now()); err != nil {
		s.logger.Warn("recording run outcome failed", "run", out.RunID, "error", err)
	}
	s.logger.Info("restore finished",
		"run", out.RunID,
		"state", string(out.State),
		"confirmed", len(out.Confirmed),
		"unconfirmed", len(out.Unconfirmed))
}
