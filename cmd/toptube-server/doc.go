// Package main provides the entry point for toptube-server.
//
// The server exposes the daily Top 10 snapshots held in its document
// store over a read-only JSON API.
//
// Usage:
//
//	toptube-server [flags]
//	toptube-server -config /etc/toptube/server.yaml
//
// Configuration is layered as defaults, then the YAML file, then
// TOPTUBE_* environment variables. A .env file in the working directory
// is read first when present.
package main
