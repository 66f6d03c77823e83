package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// dirName is the per-user directory under $HOME.
const dirName = ".toptube"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), dirName, "cli.yaml")
}

// DefaultHistoryPath returns the default shell history path.
func DefaultHistoryPath() string {
	return filepath.Join(homeDir(), dirName, "history")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load reads the CLI configuration from path, or DefaultConfigPath when
// path is empty. A missing file yields an empty configuration. Unknown
// keys are rejected.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := &CLIConfig{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return withDefaults(cfg), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}

	if cfg.CAFile != "" && !filepath.IsAbs(cfg.CAFile) {
		cfg.CAFile = filepath.Join(filepath.Dir(path), cfg.CAFile)
	}
	return withDefaults(cfg), nil
}

func withDefaults(cfg *CLIConfig) *CLIConfig {
	if cfg.Shell.HistoryFile == "" {
		cfg.Shell.HistoryFile = DefaultHistoryPath()
	}
	if cfg.Shell.HistorySize <= 0 {
		cfg.Shell.HistorySize = DefaultHistorySize
	}
	return cfg
}
