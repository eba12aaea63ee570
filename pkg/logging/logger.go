// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for originstats components.
//
// Built on Go's standard library slog package. Output goes to stderr
// following Unix conventions, so piped stdout stays clean for data.
//
// Basic usage:
//
//	logger := logging.New(logging.Config{Service: "originstats", Level: slog.LevelInfo})
//	slog.SetDefault(logger)
//	logger.Info("starting server", "addr", addr)
package logging

import (
	"log/slog"
	"os"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level emitted. Defaults to Info.
	Level slog.Level

	// JSON switches output to JSON lines (for production log shippers).
	// Default is human-readable text.
	JSON bool

	// Service is attached to every record as a "service" attribute.
	Service string
}

// New creates a logger writing to stderr with the given configuration.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}

// Default returns a text logger at Info level.
func Default() *slog.Logger {
	return New(Config{})
}
