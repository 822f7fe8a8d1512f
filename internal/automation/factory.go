package automation

import (
	"fmt"
	"time"

	"par-go/internal/config"
	"par-go/internal/par"
)

// NewAutomationFromConfig creates an Automation implementation based on
// the automation config type.
func NewAutomationFromConfig(cfg config.AutomationConfig) (par.Automation, error) {
	switch cfg.Type {
	case "photos", "":
		return NewPhotosAutomation(time.Duration(cfg.TimeoutSeconds) * time.Second), nil
	case "memory":
		return NewMemoryAutomation(), nil
	default:
		return nil, fmt.Errorf("unknown automation type: %s", cfg.Type)
	}
}
