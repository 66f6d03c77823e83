// Package command provides CLI command definitions for toptube-cli.
//
// Commands are built on urfave/cli/v2:
//
//   - root.go: App, global flags, output rendering
//   - regions.go: regions listing
//   - snapshot.go: latest, by-date and history lookups
//   - system.go: health and version
//   - store.go: offline import into a Badger data directory
//
// Network commands parse flags, call the server through the connection
// package and render the result with the output package.
package command
