// Package main provides the entry point for toptube-cli.
//
// toptube-cli queries a toptube server and loads data directories:
//
//   - regions and leaderboard snapshots (latest, by date, history)
//   - server health and version
//   - offline import of snapshot files into a Badger directory
//
// Usage:
//
//	toptube-cli [global flags] command [command flags] [args]
//	toptube-cli -s http://127.0.0.1:8080 snapshot latest US
//	toptube-cli -o json snapshot history --limit 14 GB
//	toptube-cli store import --data-dir ./data snapshots.json
package main
