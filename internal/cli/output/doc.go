// Package output renders toptube-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables, with wide-only columns and
//     thousands separators for counts
//   - json.go, yaml.go: machine-readable output
//   - progress.go: progress bar for offline imports
package output
