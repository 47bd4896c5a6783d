// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package: JSON output in production
// environments, text output everywhere else.
package logger
