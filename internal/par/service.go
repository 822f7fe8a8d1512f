package par

import (
	"context"
	"time"
)

// Policy holds the tunable knobs of a recovery run.
type Policy struct {
	// BatchSize bounds the number of assets per add-assets call. Large
	// albums are dominated by per-call overhead against the host
	// application, so batches keep single-call latency bounded.
	BatchSize int
	// MaxRetries is the number of retries per batch after the first
	// attempt, applied only to transient failures.
	MaxRetries int
	// RetryDelay is slept between attempts of one batch.
	RetryDelay time.Duration
	// IncludeTrashed admits assets sitting in the system trash into
	// restore plans. Off by default: their recoverability is ambiguous.
	IncludeTrashed bool
}

// DefaultPolicy returns the policy used when a field is left zero.
func DefaultPolicy() Policy {
	return Policy{
		BatchSize:  200,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// Service is the recovery engine: it classifies deleted albums out of the
// library, reconstructs their membership, and replays it through the
// automation port. All collaborators are injected; the service itself is
// strictly sequential, because the automation port is a serialized,
// host-owned resource.
type Service struct {
	opener     LibraryOpener
	automation Automation
	journal    Journal
	logger     Logger
	clock      Clock
	idgen      IDGenerator
	policy     Policy
}

// NewService creates a Service with the provided dependencies.
// Zero policy fields fall back to DefaultPolicy values.
func NewService(opener LibraryOpener, automation Automation, journal Journal, logger Logger, clock Clock, idgen IDGenerator, policy Policy) *Service {
	def := DefaultPolicy()
	if policy.BatchSize <= 0 {
		policy.BatchSize = def.BatchSize
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = def.MaxRetries
	}
	if policy.RetryDelay <= 0 {
		policy.RetryDelay = def.RetryDelay
	}
	return &Service{
		opener:     opener,
		automation: automation,
		journal:    journal,
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
		policy:     policy,
	}
}

// ListDeletedAlbums returns the soft-deleted, recovery-eligible albums in
// the library, in deletion-date order. Performs no mutations.
func (s *Service) ListDeletedAlbums(ctx context.Context) ([]AlbumRecord, error) {
	lib, err := s.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer lib.Close()

	rootPK, err := lib.RootFolder(ctx)
	if err != nil {
		return nil, err
	}

	albums, err := lib.Albums(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []AlbumRecord
	for _, a := range albums {
		if Classify(a, rootPK) == ClassSoftDeleted {
			deleted = append(deleted, a)
		}
	}

	s.logger.Info("deleted albums classified",
		"eligible", len(deleted), "total", len(albums), "generation", lib.Generation())
	return deleted, nil
}

// Runs returns the most recent restore runs from the journal.
func (s *Service) Runs(ctx context.Context, limit int) ([]*RestoreRun, error) {
	return s.journal.ListRuns(ctx, limit)
}
