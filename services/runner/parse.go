// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseLLMResponse decodes raw into a JSON object, first stripping a
// ```json fenced code block if the model wrapped its answer in one — a
// common completion habit that a bare json.Unmarshal would otherwise choke
// on.
func parseLLMResponse(raw string) (map[string]any, error) {
	cleaned := stripCodeFence(raw)
	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("runner: response is not a JSON object: %w", err)
	}
	return doc, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.SplitN(s, "\n", 2)
	if len(lines) < 2 {
		return s
	}
	body := lines[1]
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
