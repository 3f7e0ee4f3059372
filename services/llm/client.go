// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm is the provider-agnostic completion dispatcher (spec.md
// §4.7): a single narrow interface, selected by one configuration key, so
// the runner never branches on which backend is in play.
package llm

import "context"

// Client is the capability interface the runner calls. Model returns the
// concrete model id in use, so the runner can stamp meta.model without
// knowing which provider produced the completion.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Error codes the dispatcher produces; these pass straight through to the
// envelope's error.code (spec.md §6).
const (
	CodeLLMError    = "LLM_ERROR"
	CodeRateLimited = "RATE_LIMITED"
	CodeTimeout     = "TIMEOUT"
)

// Error carries the external error code plus the runner's retry hint
// (spec.md §6: LLM_ERROR 5s, RATE_LIMITED 10s, TIMEOUT 5s), so the runner
// never has to re-derive recoverability from an error string.
type Error struct {
	Code         string
	Message      string
	Recoverable  bool
	RetryAfterMs int64
	Cause        error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Code + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func rateLimited(message string, cause error) error {
	return &Error{Code: CodeRateLimited, Message: message, Recoverable: true, RetryAfterMs: 10000, Cause: cause}
}

func timeout(message string, cause error) error {
	return &Error{Code: CodeTimeout, Message: message, Recoverable: true, RetryAfterMs: 5000, Cause: cause}
}

func llmError(message string, cause error) error {
	return &Error{Code: CodeLLMError, Message: message, Recoverable: true, RetryAfterMs: 5000, Cause: cause}
}
