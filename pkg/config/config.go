// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the host's ~/.cognitive/config.yaml into a process
// singleton, creating a default file on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// LoggingConfig controls pkg/logging's defaults for cmd/cognitive.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the root configuration record.
type Config struct {
	// LLMProvider names the default dispatcher backend (openai, anthropic,
	// ollama, stub) when a run doesn't specify one.
	LLMProvider string `yaml:"llm_provider"`
	// LLMModel is read from the config file but no provider consults it;
	// each provider takes its model id from its own environment variable
	// (OPENAI_MODEL, CLAUDE_MODEL, or LLM_MODEL for ollama).
	LLMModel string `yaml:"llm_model"`
	// ModulesPath is read from the config file but the registry does not
	// consult it; extra search roots come only from the
	// COGNITIVE_MODULES_PATH environment variable.
	ModulesPath string        `yaml:"modules_path"`
	Logging     LoggingConfig `yaml:"logging"`
}

var (
	// Global is the process-wide singleton populated by Load.
	Global Config
	once   sync.Once
)

// Load ensures Global is populated, creating a default config file the
// first time it's called in a fresh environment.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not find the user's home directory: %w", err)
	}
	configPath := filepath.Join(home, ".cognitive", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefault(configPath); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}
	Global = DefaultConfig()
	if err := yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("failed to parse the config file: %w", err)
	}
	return nil
}

// DefaultConfig is the config a fresh environment gets.
func DefaultConfig() Config {
	return Config{
		LLMProvider: "stub",
		Logging:     LoggingConfig{Level: "info"},
	}
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
