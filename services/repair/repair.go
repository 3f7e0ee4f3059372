// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package repair implements the single-pass normalization the runner applies
// to an envelope after parsing, before the final validation (spec.md §4.5).
// Repair fixes cosmetic meta defects an LLM is prone to producing — a
// confidence outside [0,1], an untrimmed or miscased risk string, an
// oversized explain — without ever touching data, error, or the ok flag,
// and without inventing or rewriting a risk value the module doesn't
// recognize. Applying Repair twice must be the same as applying it once.
package repair

import (
	"strings"

	"github.com/ziel-io/cognitive/services/envelope"
)

const defaultExplain = "No explanation provided"
const defaultRisk = "medium"

// Envelope repairs e's meta in place (on a copy) and returns the result.
// data, error, partial_data, version and ok are carried through unchanged.
// When explain is missing, it is derived from data.rationale (success) or
// error.message (failure) before falling back to the generic placeholder
// (spec.md §3: "explain derivable from rationale/error.message").
func Envelope(e envelope.Envelope) envelope.Envelope {
	out := e
	m := e.Meta
	m.Confidence = clampConfidence(m.Confidence)
	m.Risk = normalizeRisk(m.Risk)
	m.Explain = normalizeExplainWithFallback(m.Explain, explainFallback(e))
	out.Meta = m
	return out
}

// explainFallback returns the best source text to derive a missing explain
// from: data.rationale on the success branch, error.message on failure.
func explainFallback(e envelope.Envelope) string {
	if e.Ok {
		if v, ok := e.Data["rationale"]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	if e.Err != nil {
		return strings.TrimSpace(e.Err.Message)
	}
	return ""
}

// Meta applies the normalization rules to a single meta block, independent
// of which envelope branch (success/failure) it came from. Envelope does not
// call it: Envelope applies the same rules itself, but fills a missing
// explain from data.rationale or error.message before the placeholder.
func Meta(m envelope.Meta) envelope.Meta {
	m.Confidence = clampConfidence(m.Confidence)
	m.Risk = normalizeRisk(m.Risk)
	m.Explain = normalizeExplain(m.Explain)
	return m
}

// clampConfidence bounds confidence to [0,1]; an LLM that emits 1.7 or -0.3
// gets clamped rather than rejected, since the value is still informative.
func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// normalizeRisk trims and lowercases a canonical-level risk string. It never
// rewrites the value to a different enum member: an unrecognized level like
// "catastrophic" is preserved (trimmed/lowercased), because only the module
// author or a future schema revision gets to decide what's canonical —
// repair just cleans up whitespace and case. An empty risk is filled with
// the conservative default rather than left blank. Extended ({custom,
// reason}) risk values keep their custom tag; only the reason is trimmed.
func normalizeRisk(r envelope.Risk) envelope.Risk {
	if r.IsExtended() {
		r.Reason = strings.TrimSpace(r.Reason)
		return r
	}
	level := strings.ToLower(strings.TrimSpace(r.Level))
	if level == "" {
		level = defaultRisk
	}
	r.Level = level
	return r
}

// normalizeExplain fills a missing explain with the standard placeholder and
// truncates an oversized one to the 280-unit bound.
func normalizeExplain(explain string) string {
	return normalizeExplainWithFallback(explain, "")
}

// normalizeExplainWithFallback is normalizeExplain, but a missing explain is
// filled from fallback (when non-empty) before the generic placeholder.
func normalizeExplainWithFallback(explain, fallback string) string {
	explain = strings.TrimSpace(explain)
	if explain == "" {
		if fallback != "" {
			explain = fallback
		} else {
			explain = defaultExplain
		}
	}
	return envelope.TruncateExplain(explain)
}
