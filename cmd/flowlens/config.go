package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds the contents of .flowlens/config.yaml.
type ProjectConfig struct {
	Version           string   `yaml:"version"`
	LogLevel          string   `yaml:"log_level"`
	AnalysisTimeoutMs int      `yaml:"analysis_timeout_ms"`
	CallsLog          string   `yaml:"calls_log"`
	Snapshot          string   `yaml:"snapshot"`
	Include           []string `yaml:"include"`
	Exclude           []string `yaml:"exclude"`
}

// loadProjectConfig reads .flowlens/config.yaml from the current directory.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(".flowlens/config.yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSnapshotPath returns the snapshot path to use, applying the
// fallback chain:
//  1. Explicit --snapshot flag value (non-empty override)
//  2. snapshot from .flowlens/config.yaml
//  3. Default: .flowlens/index.msgpack
func resolveSnapshotPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg, err := loadProjectConfig(); err == nil && cfg != nil && cfg.Snapshot != "" {
		return cfg.Snapshot
	}
	return ".flowlens/index.msgpack"
}
