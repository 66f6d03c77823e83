package config

// CLIConfig is the configuration for toptube-cli.
type CLIConfig struct {
	// Server is the default server address.
	Server string `yaml:"server"`

	// Output is the default output format (table, json, yaml).
	Output string `yaml:"output"`

	// Wide enables wide table output by default.
	Wide bool `yaml:"wide"`

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file"`

	Shell ShellConfig `yaml:"shell"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size"`
}

// DefaultHistorySize bounds the shell history when unset.
const DefaultHistorySize = 1000
