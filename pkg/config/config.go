package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the configuration for the zkid CLI
type Config struct {
	DataDir  DataDirConfig
	Database DatabaseConfig
}

// DataDirConfig contains data directory settings
type DataDirConfig struct {
	Path    string // Base data directory
	DocsDir string // Where DID documents are stored
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string // Key-handle database file path
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".zkid")

	return &Config{
		DataDir: DataDirConfig{
			Path:    dataDir,
			DocsDir: filepath.Join(dataDir, "docs"),
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "handles.db"),
		},
	}
}

// LoadConfig builds the configuration from defaults and environment
// variables
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("ZKID_DATA_DIR"); val != "" {
		cfg.DataDir.Path = val
		cfg.DataDir.DocsDir = filepath.Join(val, "docs")
		cfg.Database.Path = filepath.Join(val, "handles.db")
	}
	if val := os.Getenv("ZKID_DB_PATH"); val != "" {
		cfg.Database.Path = val
	}

	// Ensure data directories exist
	if err := os.MkdirAll(cfg.DataDir.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir.DocsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}

	return cfg, nil
}
