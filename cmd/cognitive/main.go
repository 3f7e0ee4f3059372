// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command cognitive is the reference runtime CLI: resolve, run, install,
// and migrate Cognitive Modules from the local filesystem.
package main

import (
	"context"
	"log"

	"github.com/ziel-io/cognitive/pkg/config"
	"github.com/ziel-io/cognitive/pkg/logging"
)

var logger *logging.Logger

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config.yaml: %v", err)
	}
	logger = newLoggerFromConfig()
	defer logger.Close()

	shutdownTracing := setupTracing()
	defer shutdownTracing(context.Background())

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		log.Fatal(err)
	}
}

func newLoggerFromConfig() *logging.Logger {
	level := logging.LevelInfo
	switch config.Global.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(logging.Config{
		Level:   level,
		JSON:    config.Global.Logging.JSON,
		Service: "cognitive",
	})
}
