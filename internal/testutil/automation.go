package testutil

import (
	"par-go/internal/automation"
)

// NewTestAutomation creates a new in-memory automation port for testing.
func NewTestAutomation() *automation.MemoryAutomation {
	return automation.NewMemoryAutomation()
}
