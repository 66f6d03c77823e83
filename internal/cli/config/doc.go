// Package config loads the optional toptube-cli configuration file
// (~/.toptube/cli.yaml by default).
//
// Values in the file replace flag defaults only; flags and environment
// variables given explicitly still win.
package config
