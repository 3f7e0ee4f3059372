// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging wraps log/slog with the Level/Config surface
// cmd/cognitive loads from pkg/config: a minimum severity, a service tag
// attached to every record, and a choice between text and JSON output.
package logging

import (
	"log/slog"
	"os"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
// Setting a minimum level filters out all records below it.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. A zero-value Config has Level LevelDebug, so it
// logs every record to stderr as text.
type Config struct {
	// Level sets the minimum severity; records below it are discarded.
	Level Level

	// Service is attached to every record as the "service" attribute
	// (cmd/cognitive sets "cognitive").
	Service string

	// JSON selects JSON output over slog's default text handler.
	JSON bool

	// w overrides the output destination; nil means os.Stderr. Only
	// set by tests, via newWithWriter.
	w *os.File
}

// Logger wraps slog.Logger. Safe for concurrent use, since the underlying
// slog.Logger is.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger writing to stderr per config.
func New(config Config) *Logger {
	out := os.Stderr
	if config.w != nil {
		out = config.w
	}

	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}
	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	return &Logger{slog: slog.New(handler)}
}

// Default returns an Info-level, text-format logger tagged "cognitive".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "cognitive"})
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child Logger carrying additional attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Slog returns the underlying slog.Logger for callers that need LogAttrs
// or custom Record handling.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close is a no-op; kept so cmd/cognitive's defer logger.Close() holds even
// though this runtime never opens a file or exporter handle to release.
func (l *Logger) Close() error {
	return nil
}
