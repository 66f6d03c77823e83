// Package logger provides structured logging for TopTube.
//
// This package wraps log/slog:
//
//   - logger.go: Logger construction, the shared level and the fallback logger
//   - output.go: Rotated file output (lumberjack)
//   - context.go: Context-aware logging with request/trace IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level changes
//   - Automatic masking of credentials in attributes
//   - Context propagation for request tracing
package logger
