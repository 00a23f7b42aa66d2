package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the settings for connecting to the tracking service and the
// local media library.
type Config struct {
	// Tracking service access.
	Username string `json:"username"`
	Token    string `json:"token"`
	Endpoint string `json:"endpoint"`

	// Local library layout.
	LibraryRoot    string `json:"library_root"`
	LibraryMapping string `json:"library_mapping"`

	// Enrichment behavior.
	WorkerCount     int  `json:"worker_count"`
	VerifyDownloads bool `json:"verify_downloads"`

	// Diagnostics.
	EnableLogging    bool `json:"enable_logging"`
	LogRetentionDays int  `json:"log_retention_days"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkerCount:      10,
		EnableLogging:    true,
		LogRetentionDays: 30,
	}
}

// ConfigDir returns the per-user directory all track-tidy state lives in.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".track-tidy"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk, falling back to defaults for a
// missing file and filling in any absent fields.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decode over the defaults so fields absent from the file keep their
	// default values while explicit settings still apply.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaults := DefaultConfig()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}
	if cfg.LibraryMapping == "" && cfg.LibraryRoot != "" {
		cfg.LibraryMapping = filepath.Join(cfg.LibraryRoot, "library.json")
	}

	return cfg, nil
}

// Save writes the configuration to disk.
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
