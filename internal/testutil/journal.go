package testutil

import (
	"testing"

	"par-go/internal/journal"
	"par-go/internal/par"
)

// NewTestJournal creates a new in-memory journal with schema applied.
// The journal is automatically closed when the test completes.
func NewTestJournal(t *testing.T) par.Journal {
	t.Helper()

	j, err := journal.NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}

	t.Cleanup(func() {
		j.Close()
	})

	return j
}
