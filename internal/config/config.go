package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for par.
type Config struct {
	// LibraryPath points at a .photoslibrary bundle or Photos.sqlite file.
	// Empty means the default library under ~/Pictures.
	LibraryPath string           `toml:"library_path"`
	LogDir      string           `toml:"log_dir"`
	Journal     JournalConfig    `toml:"journal"`
	Automation  AutomationConfig `toml:"automation"`
	Restore     RestoreConfig    `toml:"restore"`
}

// JournalConfig represents configuration for the restore journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// AutomationConfig represents configuration for the Photos automation port.
type AutomationConfig struct {
	Type           string `toml:"type"`            // "photos" (default) or "memory"
	TimeoutSeconds int    `toml:"timeout_seconds"` // per-call bound; 0 means none
}

// RestoreConfig holds the tunables of a restore run.
type RestoreConfig struct {
	BatchSize         int  `toml:"batch_size"`
	MaxRetries        int  `toml:"max_retries"`
	RetryDelaySeconds int  `toml:"retry_delay_seconds"`
	IncludeTrashed    bool `toml:"include_trashed"`
}

// NewConfig creates a new Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		LogDir: filepath.Join(baseDir, "log"),
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "journal"),
		},
		Automation: AutomationConfig{
			Type:           "photos",
			TimeoutSeconds: 120,
		},
		Restore: RestoreConfig{
			BatchSize:         200,
			MaxRetries:        3,
			RetryDelaySeconds: 2,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
