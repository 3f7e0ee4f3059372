// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import "context"

const defaultStubModel = "stub"

// StubClient is a deterministic, offline-only provider used by tests and by
// module authors iterating without a live backend. It never touches the
// network.
type StubClient struct {
	model     string
	responses []string
	next      int
	err       error
}

// NewStubClient builds a StubClient that returns responses in order on
// successive calls, repeating the last one once exhausted. With no
// responses configured it falls back to a minimal, low-confidence canned
// reply rather than erroring, matching a harmless default completion.
func NewStubClient(responses ...string) *StubClient {
	return &StubClient{model: defaultStubModel, responses: responses}
}

// NewFailingStubClient returns a StubClient whose Complete always returns
// err, for exercising the runner's transport-failure path in tests.
func NewFailingStubClient(err error) *StubClient {
	return &StubClient{model: defaultStubModel, err: err}
}

func (s *StubClient) Model() string { return s.model }

func (s *StubClient) Complete(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return `{"ok":true,"data":{"rationale":"stub response","confidence":0.0}}`, nil
	}
	idx := s.next
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	} else {
		s.next++
	}
	return s.responses[idx], nil
}
