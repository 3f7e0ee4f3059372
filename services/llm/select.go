// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"os"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderStub      = "stub"
)

// NewFromEnv selects a provider by the LLM_PROVIDER environment variable
// (spec.md §4.7 — "selection is driven by a single configuration key"),
// defaulting to the stub provider so a misconfigured environment fails
// safe rather than silently dialing out.
func NewFromEnv() (Client, error) {
	return New(os.Getenv("LLM_PROVIDER"))
}

// New builds the named provider's client, wrapped in a rate limiter when
// LLM_RATE_LIMIT_RPS is configured.
func New(provider string) (Client, error) {
	client, err := newUnwrapped(provider)
	if err != nil {
		return nil, err
	}
	return withRateLimit(client), nil
}

func newUnwrapped(provider string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient()
	case ProviderAnthropic:
		return NewAnthropicClient()
	case ProviderOllama:
		return NewOllamaClient()
	case ProviderStub, "":
		return NewStubClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}

// Status reports one provider's availability for a diagnostics surface
// (cmd/cognitive status).
type Status struct {
	Provider   string
	Installed  bool
	Configured bool
	Detail     string
}

// CheckProviderStatus reports the configuration state of every known
// provider, without making a network call to any of them.
func CheckProviderStatus() []Status {
	return []Status{
		checkEnvProvider(ProviderOpenAI, "OPENAI_API_KEY"),
		checkEnvProvider(ProviderAnthropic, "ANTHROPIC_API_KEY"),
		checkOllamaStatus(),
		{Provider: ProviderStub, Installed: true, Configured: true, Detail: "always available, offline"},
	}
}

func checkEnvProvider(provider, envVar string) Status {
	if os.Getenv(envVar) == "" {
		return Status{Provider: provider, Installed: true, Configured: false, Detail: envVar + " not set"}
	}
	return Status{Provider: provider, Installed: true, Configured: true}
}

func checkOllamaStatus() Status {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaHost
	}
	return Status{Provider: ProviderOllama, Installed: true, Configured: true, Detail: "assumes a reachable server at " + host}
}
