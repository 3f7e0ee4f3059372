// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"testing"
)

func TestWithRateLimit_NoEnvIsPassthrough(t *testing.T) {
	t.Setenv("LLM_RATE_LIMIT_RPS", "")
	stub := NewStubClient("ok")
	wrapped := withRateLimit(stub)
	if wrapped != Client(stub) {
		t.Fatal("expected withRateLimit to return the client unwrapped when no limit is configured")
	}
}

func TestWithRateLimit_WrappedClientForwardsCalls(t *testing.T) {
	t.Setenv("LLM_RATE_LIMIT_RPS", "1000")
	stub := NewStubClient("ok")
	wrapped := withRateLimit(stub)

	out, err := wrapped.Complete(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" {
		t.Fatalf("got %q, want %q", out, "ok")
	}
	if wrapped.Model() != defaultStubModel {
		t.Fatalf("Model() = %q, want %q", wrapped.Model(), defaultStubModel)
	}
}

func TestWithRateLimit_InvalidEnvIsPassthrough(t *testing.T) {
	t.Setenv("LLM_RATE_LIMIT_RPS", "not-a-number")
	stub := NewStubClient("ok")
	wrapped := withRateLimit(stub)
	if wrapped != Client(stub) {
		t.Fatal("expected an invalid LLM_RATE_LIMIT_RPS to fall back to unthrottled")
	}
}
