// Package repl provides the interactive shell of toptube-cli.
//
// Each input line is split into arguments and handed to an Executor,
// which runs it as a regular command. The shell keeps a persistent
// history and suggests command names for mistyped input.
package repl
