// Package logger provides an opinionated factory for log/slog loggers plus
// attribute helpers used across the auth packages. Services default to a
// discarded logger; applications inject a configured one at construction.
package logger
